// Package structure keeps the versioned journal structures of each user and
// resolves which version governs a given date.
package structure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"daybook/db"
	"daybook/models"
)

// Registry stores structure versions in the STRUCTURE partition of a user.
// Sort keys are "<effectiveFrom>#<structureId>" so a partition scan returns
// versions in effective-date order.
type Registry struct {
	store db.Store
	now   func() time.Time
	newID func() string
}

func NewRegistry(store db.Store) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func versionKey(v *models.StructureVersion) db.Key {
	return db.Key{
		PK: db.PartitionKey(v.UserID, db.CategoryStructure),
		SK: v.EffectiveFrom + "#" + v.StructureID,
	}
}

// Save stores the submitted groups as the user's structure.
//
// With no active version a first version is created, effective from asOfDate.
// When deletedElementIDs names any removed group, field or field type, the
// active version is frozen (deactivated) and a new version effective from
// asOfDate replaces it, so entries recorded earlier keep the schema they were
// written against. Otherwise the active version is updated in place.
func (r *Registry) Save(ctx context.Context, userID string, groups []models.Group, deletedElementIDs []string, asOfDate string) (*models.StructureVersion, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	if _, err := models.ParseDate(asOfDate); err != nil {
		return nil, err
	}
	groups, err := normalizeGroups(groups)
	if err != nil {
		return nil, err
	}

	active, err := r.Active(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := r.now().UTC()
	if active == nil {
		return r.insert(ctx, userID, groups, asOfDate, now)
	}

	if HasDeletions(deletedElementIDs) {
		// A version may not start before the one it replaces, otherwise the
		// frozen version would keep governing every date after asOfDate.
		if asOfDate < active.EffectiveFrom {
			return nil, fmt.Errorf("%w: structure change dated %s precedes the current structure, effective from %s",
				models.ErrValidation, asOfDate, active.EffectiveFrom)
		}
		// The replacement goes in first: a failure in between leaves two
		// active versions, which Active resolves to the replacement (same or
		// later effective date, later creation), rather than none at all.
		next, err := r.insert(ctx, userID, groups, asOfDate, now)
		if err != nil {
			return nil, err
		}
		stamp, err := db.EncodeValue(now)
		if err != nil {
			return nil, err
		}
		if _, err := r.store.Update(ctx, versionKey(active), map[string]any{
			"isActive":  false,
			"updatedAt": stamp,
		}); err != nil {
			return nil, fmt.Errorf("failed to deactivate structure %s: %w", active.StructureID, err)
		}
		return next, nil
	}

	encodedGroups, err := db.EncodeValue(groups)
	if err != nil {
		return nil, err
	}
	stamp, err := db.EncodeValue(now)
	if err != nil {
		return nil, err
	}
	item, err := r.store.Update(ctx, versionKey(active), map[string]any{
		"groups":    encodedGroups,
		"updatedAt": stamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update structure %s: %w", active.StructureID, err)
	}
	return decodeVersion(item)
}

func (r *Registry) insert(ctx context.Context, userID string, groups []models.Group, effectiveFrom string, now time.Time) (*models.StructureVersion, error) {
	v := &models.StructureVersion{
		StructureID:   r.newID(),
		UserID:        userID,
		IsActive:      true,
		EffectiveFrom: effectiveFrom,
		Groups:        groups,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	attrs, err := db.Encode(v)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, db.Item{Key: versionKey(v), Attrs: attrs}); err != nil {
		return nil, fmt.Errorf("failed to create structure version: %w", err)
	}
	return v, nil
}

// Versions returns every structure version of the user, oldest effective
// date first; versions sharing a date are ordered by creation time.
func (r *Registry) Versions(ctx context.Context, userID string) ([]models.StructureVersion, error) {
	items, err := r.store.Query(ctx, db.PartitionKey(userID, db.CategoryStructure), db.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list structure versions: %w", err)
	}

	versions := make([]models.StructureVersion, 0, len(items))
	for _, item := range items {
		v, err := decodeVersion(item)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	sort.SliceStable(versions, func(i, j int) bool {
		if versions[i].EffectiveFrom != versions[j].EffectiveFrom {
			return versions[i].EffectiveFrom < versions[j].EffectiveFrom
		}
		return versions[i].CreatedAt.Before(versions[j].CreatedAt)
	})
	return versions, nil
}

// Active returns the user's active structure version, or models.ErrNotFound.
func (r *Registry) Active(ctx context.Context, userID string) (*models.StructureVersion, error) {
	versions, err := r.Versions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].IsActive {
			return &versions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no active structure for user", models.ErrNotFound)
}

// ForDate returns the version governing date: the one with the greatest
// effectiveFrom not after date. Dates before every version resolve to the
// oldest one, and a single version governs every date.
func (r *Registry) ForDate(ctx context.Context, userID, date string) (*models.StructureVersion, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, err
	}
	versions, err := r.Versions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Resolve(versions, date)
}

// Resolve applies the ForDate rules to versions sorted as Versions returns them.
// YYYY-MM-DD strings compare lexically in date order.
func Resolve(versions []models.StructureVersion, date string) (*models.StructureVersion, error) {
	switch len(versions) {
	case 0:
		return nil, fmt.Errorf("%w: no structure for user", models.ErrNotFound)
	case 1:
		return &versions[0], nil
	}

	match := -1
	for i, v := range versions {
		if v.EffectiveFrom <= date {
			match = i
		}
	}
	if match < 0 {
		return &versions[0], nil
	}
	return &versions[match], nil
}

// FindField scans groups, then fields, for fieldID and returns the field and
// the id of its group.
func FindField(v *models.StructureVersion, fieldID string) (models.Field, string, bool) {
	if v == nil {
		return models.Field{}, "", false
	}
	for _, g := range v.Groups {
		for _, f := range g.Fields {
			if f.ID == fieldID {
				return f, g.ID, true
			}
		}
	}
	return models.Field{}, "", false
}

// FieldTypeIDs is the set of every field type id in the version, including
// the synthesized CHECK type of each field.
func FieldTypeIDs(v *models.StructureVersion) map[string]struct{} {
	ids := make(map[string]struct{})
	if v == nil {
		return ids
	}
	for _, g := range v.Groups {
		for _, f := range g.Fields {
			for _, ft := range f.Types {
				ids[ft.ID] = struct{}{}
			}
			ids[f.CheckType().ID] = struct{}{}
		}
	}
	return ids
}

// HasDeletions reports whether a save naming ids as deleted forks a new version.
func HasDeletions(ids []string) bool {
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			return true
		}
	}
	return false
}

// normalizeGroups rejects missing or repeated ids and stamps ownership ids
// onto fields and field types.
func normalizeGroups(groups []models.Group) ([]models.Group, error) {
	seen := make(map[string]struct{})
	claim := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s id is required", models.ErrValidation, kind)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate %s id %q", models.ErrValidation, kind, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	out := make([]models.Group, len(groups))
	for gi, g := range groups {
		if err := claim("group", g.ID); err != nil {
			return nil, err
		}
		fields := make([]models.Field, len(g.Fields))
		for fi, f := range g.Fields {
			if err := claim("field", f.ID); err != nil {
				return nil, err
			}
			f.GroupID = g.ID
			types := make([]models.FieldType, len(f.Types))
			for ti, ft := range f.Types {
				if err := claim("field type", ft.ID); err != nil {
					return nil, err
				}
				if ft.Options == nil {
					opts, ok := models.DefaultOptions(ft.Kind)
					if !ok {
						return nil, fmt.Errorf("%w: field type %q has unknown kind %q", models.ErrValidation, ft.ID, ft.Kind)
					}
					ft.Options = opts
				}
				if ft.Options.Kind() != ft.Kind {
					return nil, fmt.Errorf("%w: field type %q options do not match kind %q", models.ErrValidation, ft.ID, ft.Kind)
				}
				ft.FieldID = f.ID
				types[ti] = ft
			}
			f.Types = types
			fields[fi] = f
		}
		g.Fields = fields
		out[gi] = g
	}
	return out, nil
}

func decodeVersion(item db.Item) (*models.StructureVersion, error) {
	var v models.StructureVersion
	if err := db.Decode(item.Attrs, &v); err != nil {
		return nil, fmt.Errorf("structure %s: %w", item.SK, err)
	}
	return &v, nil
}
