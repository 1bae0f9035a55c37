// Package clock provides the user-local notion of "now" used for dating
// entries and stamping daily actions.
package clock

import (
	"context"
	"fmt"
	"time"

	"daybook/models"
)

// Calendar returns the current wall-clock time for a user, in the user's
// location. Implementations decide how that location is known.
type Calendar interface {
	Now(ctx context.Context, userID string) time.Time
}

// Today is the user's current calendar date as YYYY-MM-DD.
func Today(ctx context.Context, cal Calendar, userID string) string {
	return models.FormatDate(cal.Now(ctx, userID))
}

// MinutesSinceMidnight of t in t's location.
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ZoneCalendar reports the system time in one fixed location for every user.
type ZoneCalendar struct {
	loc *time.Location
	now func() time.Time
}

// NewZoneCalendar loads the named IANA location ("UTC", "Europe/Vilnius", ...).
func NewZoneCalendar(name string) (*ZoneCalendar, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return &ZoneCalendar{loc: loc, now: time.Now}, nil
}

func (c *ZoneCalendar) Now(ctx context.Context, userID string) time.Time {
	return c.now().In(c.loc)
}

// Fixed is a Calendar frozen at one instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now(ctx context.Context, userID string) time.Time {
	return f.T
}
