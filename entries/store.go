// Package entries stores one journal entry per user and date.
package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"daybook/db"
	"daybook/models"
	"daybook/validation"
)

// StructureSource resolves the structure version governing a date.
type StructureSource interface {
	ForDate(ctx context.Context, userID, date string) (*models.StructureVersion, error)
}

// Store keeps entries in the ENTRIES partition of a user, keyed by date, so
// an ascending partition scan walks the journal chronologically.
type Store struct {
	store      db.Store
	structures StructureSource
	now        func() time.Time
	newID      func() string
}

func NewStore(store db.Store, structures StructureSource) *Store {
	return &Store{
		store:      store,
		structures: structures,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func entryKey(userID, date string) db.Key {
	return db.Key{PK: db.PartitionKey(userID, db.CategoryEntries), SK: date}
}

// Get returns the stored entry for date, or models.ErrNotFound.
func (s *Store) Get(ctx context.Context, userID, date string) (*models.JournalEntry, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, err
	}
	item, err := s.store.Get(ctx, entryKey(userID, date))
	if err != nil {
		return nil, err
	}
	return decodeEntry(item)
}

// GetOrCreate returns the entry for date. When none is stored it returns an
// empty, unsaved template and isNew=true.
func (s *Store) GetOrCreate(ctx context.Context, userID, date string) (*models.JournalEntry, bool, error) {
	entry, err := s.Get(ctx, userID, date)
	if err == nil {
		return entry, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}
	return &models.JournalEntry{
		UserID: userID,
		Date:   date,
		Values: []models.FieldValue{},
	}, true, nil
}

// Save writes values for date. A missing entry is inserted with structureID;
// an existing one only has values and updatedAt replaced, its structureID and
// createdAt never change.
func (s *Store) Save(ctx context.Context, userID, date string, values []models.FieldValue, structureID string) (*models.JournalEntry, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, err
	}
	if values == nil {
		values = []models.FieldValue{}
	}
	if err := models.CheckUniqueValues(values); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	values = stampValues(values, now)

	key := entryKey(userID, date)
	_, err := s.store.Get(ctx, key)
	switch {
	case errors.Is(err, models.ErrNotFound):
		if structureID == "" {
			return nil, fmt.Errorf("%w: structure id is required for a new entry", models.ErrValidation)
		}
		entry := &models.JournalEntry{
			ID:          s.newID(),
			UserID:      userID,
			Date:        date,
			StructureID: structureID,
			Values:      values,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		attrs, err := db.Encode(entry)
		if err != nil {
			return nil, err
		}
		if err := s.store.Put(ctx, db.Item{Key: key, Attrs: attrs}); err != nil {
			return nil, fmt.Errorf("failed to create entry for %s: %w", date, err)
		}
		return entry, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read entry for %s: %w", date, err)
	}

	encodedValues, err := db.EncodeValue(values)
	if err != nil {
		return nil, err
	}
	stamp, err := db.EncodeValue(now)
	if err != nil {
		return nil, err
	}
	item, err := s.store.Update(ctx, key, map[string]any{
		"values":    encodedValues,
		"updatedAt": stamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update entry for %s: %w", date, err)
	}
	return decodeEntry(item)
}

// FirstEntryDate returns the date of the user's earliest entry.
func (s *Store) FirstEntryDate(ctx context.Context, userID string) (string, bool, error) {
	items, err := s.store.Query(ctx, db.PartitionKey(userID, db.CategoryEntries), db.QueryOptions{Limit: 1})
	if err != nil {
		return "", false, fmt.Errorf("failed to find first entry: %w", err)
	}
	if len(items) == 0 {
		return "", false, nil
	}
	return items[0].SK, true, nil
}

// QuickFill copies the previous day's values into targetDate, dropping any
// value whose field type is not part of the structure governing targetDate.
func (s *Store) QuickFill(ctx context.Context, userID, targetDate string) (*models.JournalEntry, error) {
	previous, err := models.AddDays(targetDate, -1)
	if err != nil {
		return nil, err
	}
	source, err := s.Get(ctx, userID, previous)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: no entry for %s to copy from", models.ErrNotFound, previous)
	}
	if err != nil {
		return nil, err
	}

	version, err := s.structures.ForDate(ctx, userID, targetDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	values := validation.FilterEntryValues(source.Values, version)
	for i := range values {
		values[i].CreatedAt = now
		values[i].UpdatedAt = now
	}
	return s.Save(ctx, userID, targetDate, values, version.StructureID)
}

func stampValues(values []models.FieldValue, now time.Time) []models.FieldValue {
	out := make([]models.FieldValue, len(values))
	for i, v := range values {
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		if v.UpdatedAt.IsZero() {
			v.UpdatedAt = now
		}
		out[i] = v
	}
	return out
}

func decodeEntry(item db.Item) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	if err := db.Decode(item.Attrs, &entry); err != nil {
		return nil, fmt.Errorf("entry %s: %w", item.SK, err)
	}
	if entry.Values == nil {
		entry.Values = []models.FieldValue{}
	}
	return &entry, nil
}
