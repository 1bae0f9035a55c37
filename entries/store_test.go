package entries

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/db"
	"daybook/models"
	"daybook/structure"
)

type fixture struct {
	store    *Store
	registry *structure.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	kv := db.NewMemoryDB()
	registry := structure.NewRegistry(kv)
	s := NewStore(kv, registry)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("e%d", seq)
	}
	return fixture{store: s, registry: registry}
}

func groups(typeIDs ...string) []models.Group {
	types := make([]models.FieldType, 0, len(typeIDs))
	for _, id := range typeIDs {
		types = append(types, models.FieldType{ID: id, Kind: models.KindNumber})
	}
	return []models.Group{{
		ID:     "health",
		Fields: []models.Field{{ID: "water", Types: types}},
	}}
}

func value(typeID string, v any) models.FieldValue {
	return models.FieldValue{GroupID: "health", FieldID: "water", FieldTypeID: typeID, Value: v}
}

func TestGetOrCreate_Template(t *testing.T) {
	f := newFixture(t)

	entry, isNew, err := f.store.GetOrCreate(context.Background(), "u1", "2024-05-01")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "2024-05-01", entry.Date)
	assert.Empty(t, entry.Values)
	assert.NotNil(t, entry.Values)

	// The template is not persisted.
	_, err = f.store.Get(context.Background(), "u1", "2024-05-01")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSave_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	values := []models.FieldValue{value("water-ml", 500.0)}

	first, err := f.store.Save(ctx, "u1", "2024-05-01", values, "s1")
	require.NoError(t, err)
	second, err := f.store.Save(ctx, "u1", "2024-05-01", values, "s1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Len(t, second.Values, 1)
	assert.Equal(t, 500.0, second.Values[0].Value)

	got, isNew, err := f.store.GetOrCreate(ctx, "u1", "2024-05-01")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, second.Values, got.Values)
}

func TestSave_KeepsStructureID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Save(ctx, "u1", "2024-05-01", nil, "s1")
	require.NoError(t, err)
	updated, err := f.store.Save(ctx, "u1", "2024-05-01", []models.FieldValue{value("water-ml", 1.0)}, "s2")
	require.NoError(t, err)

	assert.Equal(t, "s1", updated.StructureID)
}

func TestSave_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Save(ctx, "u1", "2024-05-01", nil, "")
	assert.ErrorIs(t, err, models.ErrValidation, "new entry without a structure")

	_, err = f.store.Save(ctx, "u1", "May 1st", nil, "s1")
	assert.ErrorIs(t, err, models.ErrValidation)

	dup := []models.FieldValue{value("water-ml", 1.0), value("water-ml", 2.0)}
	_, err = f.store.Save(ctx, "u1", "2024-05-01", dup, "s1")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFirstEntryDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, found, err := f.store.FirstEntryDate(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	for _, date := range []string{"2024-05-03", "2024-04-28", "2024-05-01"} {
		_, err := f.store.Save(ctx, "u1", date, nil, "s1")
		require.NoError(t, err)
	}
	_, err = f.store.Save(ctx, "u2", "2020-01-01", nil, "s1")
	require.NoError(t, err)

	date, found, err := f.store.FirstEntryDate(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2024-04-28", date)
}

func TestQuickFill_CopiesValidValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Save(ctx, "u1", groups("water-ml", "water-cups"), nil, "2024-04-01")
	require.NoError(t, err)
	_, err = f.store.Save(ctx, "u1", "2024-05-01", []models.FieldValue{
		value("water-ml", 500.0),
		value("water-cups", 2.0),
		value("water-CHECK", true),
	}, "s-old")
	require.NoError(t, err)

	// water-cups is dropped from the structure from May 2nd on.
	next, err := f.registry.Save(ctx, "u1", groups("water-ml"), []string{"water-cups"}, "2024-05-02")
	require.NoError(t, err)

	filled, err := f.store.QuickFill(ctx, "u1", "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, next.StructureID, filled.StructureID)
	require.Len(t, filled.Values, 2)
	assert.Equal(t, "water-ml", filled.Values[0].FieldTypeID)
	assert.Equal(t, 500.0, filled.Values[0].Value)
	assert.Equal(t, "water-CHECK", filled.Values[1].FieldTypeID)

	source, err := f.store.Get(ctx, "u1", "2024-05-01")
	require.NoError(t, err)
	assert.True(t, filled.Values[0].CreatedAt.After(source.Values[0].CreatedAt))
	assert.Len(t, source.Values, 3)
}

func TestQuickFill_NothingToCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registry.Save(ctx, "u1", groups("water-ml"), nil, "2024-04-01")
	require.NoError(t, err)

	_, err = f.store.QuickFill(ctx, "u1", "2024-05-02")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.store.QuickFill(ctx, "u1", "tomorrow")
	assert.ErrorIs(t, err, models.ErrValidation)
}
