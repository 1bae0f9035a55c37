// Package actions implements one-tap shortcuts that mutate today's entry.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"daybook/clock"
	"daybook/db"
	"daybook/models"
	"daybook/structure"
	"daybook/validation"
)

// StructureSource is the part of the structure registry the engine needs.
type StructureSource interface {
	Active(ctx context.Context, userID string) (*models.StructureVersion, error)
	ForDate(ctx context.Context, userID, date string) (*models.StructureVersion, error)
}

// EntryStore is the part of the entry store the engine needs.
type EntryStore interface {
	GetOrCreate(ctx context.Context, userID, date string) (*models.JournalEntry, bool, error)
	Save(ctx context.Context, userID, date string, values []models.FieldValue, structureID string) (*models.JournalEntry, error)
}

// Engine stores actions in the ACTIONS partition of a user and applies them
// to the entry of the user's current day.
type Engine struct {
	store      db.Store
	structures StructureSource
	entries    EntryStore
	calendar   clock.Calendar
	logger     *log.Logger
	now        func() time.Time
	newID      func() string
}

func NewEngine(store db.Store, structures StructureSource, entries EntryStore, calendar clock.Calendar, logger *log.Logger) *Engine {
	return &Engine{
		store:      store,
		structures: structures,
		entries:    entries,
		calendar:   calendar,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// NewAction is the user input for Add.
type NewAction struct {
	Name          string
	Description   string
	FieldID       string
	Options       []models.ActionOption
	IsDailyAction bool
}

// Registration is one tap on an action. Value is the custom value typed by
// the user; nil means none was supplied.
type Registration struct {
	ActionID string
	Value    any
}

func actionKey(userID, actionID string) db.Key {
	return db.Key{PK: db.PartitionKey(userID, db.CategoryActions), SK: actionID}
}

// Get returns one stored action, valid or not.
func (e *Engine) Get(ctx context.Context, userID, actionID string) (*models.Action, error) {
	if actionID == "" {
		return nil, fmt.Errorf("%w: action id is required", models.ErrValidation)
	}
	item, err := e.store.Get(ctx, actionKey(userID, actionID))
	if err != nil {
		return nil, err
	}
	return decodeAction(item)
}

// All returns every stored action in display order.
func (e *Engine) All(ctx context.Context, userID string) ([]models.Action, error) {
	items, err := e.store.Query(ctx, db.PartitionKey(userID, db.CategoryActions), db.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	actions := make([]models.Action, 0, len(items))
	for _, item := range items {
		a, err := decodeAction(item)
		if err != nil {
			return nil, err
		}
		actions = append(actions, *a)
	}
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Order != actions[j].Order {
			return actions[i].Order < actions[j].Order
		}
		return actions[i].CreatedAt.Before(actions[j].CreatedAt)
	})
	return actions, nil
}

// List returns the actions usable against the active structure. Actions with
// dangling references are logged and left in place for the user to repair.
func (e *Engine) List(ctx context.Context, userID string) ([]models.Action, error) {
	actions, err := e.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	version, err := e.structures.Active(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	valid, dropped := validation.FilterActions(actions, version)
	for _, a := range dropped {
		e.logger.Warn("skipping action with stale field reference",
			"user", userID, "action", a.ID, "field", a.FieldID)
	}
	return valid, nil
}

// Add creates an action appended after the existing ones.
func (e *Engine) Add(ctx context.Context, userID string, in NewAction) (*models.Action, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: action name is required", models.ErrValidation)
	}
	if in.FieldID == "" {
		return nil, fmt.Errorf("%w: fieldId is required", models.ErrValidation)
	}
	for _, opt := range in.Options {
		if opt.FieldTypeID == "" {
			return nil, fmt.Errorf("%w: every option needs a fieldTypeId", models.ErrValidation)
		}
	}

	action := models.Action{
		ID:            e.newID(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		FieldID:       in.FieldID,
		Options:       in.Options,
		CreatedAt:     e.now().UTC(),
		IsDailyAction: in.IsDailyAction,
	}

	version, err := e.structures.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !validation.ActionIsValid(action, version) {
		return nil, fmt.Errorf("%w: field %s or one of its option types is not part of the current structure",
			models.ErrValidation, in.FieldID)
	}

	existing, err := e.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if a.Order >= action.Order {
			action.Order = a.Order + 1
		}
	}

	attrs, err := db.Encode(action)
	if err != nil {
		return nil, err
	}
	if err := e.store.Put(ctx, db.Item{Key: actionKey(userID, action.ID), Attrs: attrs}); err != nil {
		return nil, fmt.Errorf("failed to create action: %w", err)
	}
	return &action, nil
}

// Remove deletes an action.
func (e *Engine) Remove(ctx context.Context, userID, actionID string) error {
	if _, err := e.Get(ctx, userID, actionID); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, actionKey(userID, actionID)); err != nil {
		return fmt.Errorf("failed to remove action %s: %w", actionID, err)
	}
	return nil
}

// Reorder puts the listed actions first, in the given order; unlisted actions
// follow in their previous order.
func (e *Engine) Reorder(ctx context.Context, userID string, actionIDs []string) ([]models.Action, error) {
	actions, err := e.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Action, len(actions))
	for _, a := range actions {
		byID[a.ID] = a
	}

	position := make(map[string]int, len(actions))
	for i, id := range actionIDs {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: action %s", models.ErrNotFound, id)
		}
		if _, dup := position[id]; dup {
			return nil, fmt.Errorf("%w: action %s listed twice", models.ErrValidation, id)
		}
		position[id] = i
	}
	next := len(actionIDs)
	for _, a := range actions {
		if _, ok := position[a.ID]; !ok {
			position[a.ID] = next
			next++
		}
	}

	for _, a := range actions {
		order := position[a.ID]
		if order == a.Order {
			continue
		}
		if _, err := e.store.Update(ctx, actionKey(userID, a.ID), map[string]any{"order": float64(order)}); err != nil {
			return nil, fmt.Errorf("failed to reorder action %s: %w", a.ID, err)
		}
	}
	return e.All(ctx, userID)
}

// Register applies one tap of an action to today's entry.
//
// Lookups of the action, today's structure and the action's field are
// checked before anything is written. All changes are made to a copy of the
// entry's values and saved once; daily actions are then stamped with today's
// date. The sequence is an unguarded read-modify-write: two concurrent taps
// on the same day can lose one of the updates.
func (e *Engine) Register(ctx context.Context, userID string, reg Registration) (*models.JournalEntry, error) {
	if !models.IsScalar(reg.Value) {
		return nil, fmt.Errorf("%w: value must be a string, number, boolean or null", models.ErrValidation)
	}

	action, err := e.Get(ctx, userID, reg.ActionID)
	if err != nil {
		return nil, err
	}

	wall := e.calendar.Now(ctx, userID)
	today := models.FormatDate(wall)

	entry, isNew, err := e.entries.GetOrCreate(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	version, err := e.structures.ForDate(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	field, groupID, ok := structure.FindField(version, action.FieldID)
	if !ok {
		return nil, fmt.Errorf("%w: action %q points at field %s, which is no longer in your structure; edit or remove the action",
			models.ErrStaleReference, action.Name, action.FieldID)
	}
	for _, opt := range action.Options {
		if _, ok := field.Type(opt.FieldTypeID); !ok {
			return nil, fmt.Errorf("%w: action %q points at field type %s, which is no longer in your structure; edit or remove the action",
				models.ErrStaleReference, action.Name, opt.FieldTypeID)
		}
	}

	values := Apply(entry.Values, field, groupID, *action, reg.Value, wall, e.now().UTC())

	structureID := entry.StructureID
	if isNew || structureID == "" {
		structureID = version.StructureID
	}
	saved, err := e.entries.Save(ctx, userID, today, values, structureID)
	if err != nil {
		return nil, err
	}

	if action.IsDailyAction {
		if _, err := e.store.Update(ctx, actionKey(userID, action.ID), map[string]any{"lastTriggeredDate": today}); err != nil {
			return nil, fmt.Errorf("failed to stamp daily action %s: %w", action.ID, err)
		}
	}

	e.logger.Debug("registered action", "user", userID, "action", action.ID, "date", today)
	return saved, nil
}

// Apply returns a copy of values with one tap of action recorded on field.
// wall is the user's local time, used for TIME_SELECT capture; stamp is the
// timestamp written on touched values.
func Apply(values []models.FieldValue, field models.Field, groupID string, action models.Action, supplied any, wall, stamp time.Time) []models.FieldValue {
	out := make([]models.FieldValue, len(values))
	copy(out, values)

	upsert := func(fieldTypeID string, value any) {
		if i := models.FindValue(out, field.ID, fieldTypeID); i >= 0 {
			out[i].Value = value
			out[i].UpdatedAt = stamp
			return
		}
		out = append(out, models.FieldValue{
			GroupID:     groupID,
			FieldID:     field.ID,
			FieldTypeID: fieldTypeID,
			Value:       value,
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		})
	}

	customSet := make(map[string]bool)
	for _, opt := range action.Options {
		useSupplied := opt.IsCustom && supplied != nil
		i := models.FindValue(out, field.ID, opt.FieldTypeID)
		switch {
		case useSupplied:
			upsert(opt.FieldTypeID, supplied)
			customSet[opt.FieldTypeID] = true
		case opt.Increment != nil && i >= 0:
			upsert(opt.FieldTypeID, models.NumericValue(out[i].Value)+*opt.Increment)
		case opt.Increment != nil:
			upsert(opt.FieldTypeID, *opt.Increment)
		case i < 0:
			upsert(opt.FieldTypeID, float64(1))
		}
	}

	checked := false
	for i, v := range out {
		if field.IsCheckValue(v) {
			out[i].Value = true
			out[i].UpdatedAt = stamp
			checked = true
			break
		}
	}
	if !checked {
		upsert(field.CheckType().ID, true)
	}

	if ts, ok := field.TypeOfKind(models.KindTimeSelect); ok && !customSet[ts.ID] {
		opts, _ := ts.TimeSelect()
		step := opts.StepMinutes()
		minutes := clock.MinutesSinceMidnight(wall)
		upsert(ts.ID, float64(minutes-minutes%step))
	}

	return out
}

func decodeAction(item db.Item) (*models.Action, error) {
	var a models.Action
	if err := db.Decode(item.Attrs, &a); err != nil {
		return nil, fmt.Errorf("action %s: %w", item.SK, err)
	}
	return &a, nil
}
