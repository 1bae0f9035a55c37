package db

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/models"
)

// backends runs fn against every Store that needs no external service.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryDB())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteDB(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func seed(t *testing.T, s Store, pk string, sks ...string) {
	t.Helper()
	for _, sk := range sks {
		require.NoError(t, s.Put(context.Background(), Item{
			Key:   Key{PK: pk, SK: sk},
			Attrs: map[string]any{"sk": sk},
		}))
	}
}

func sortKeys(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.SK
	}
	return out
}

func TestStore_PutGet(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		key := Key{PK: PartitionKey("u1", CategoryEntries), SK: "2024-05-01"}

		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, s.Put(ctx, Item{Key: key, Attrs: map[string]any{
			"date":   "2024-05-01",
			"values": []any{map[string]any{"value": 2.0}},
		}}))

		item, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, item.Key)
		assert.Equal(t, "2024-05-01", item.Attrs["date"])
		assert.Equal(t, []any{map[string]any{"value": 2.0}}, item.Attrs["values"])

		require.NoError(t, s.Put(ctx, Item{Key: key, Attrs: map[string]any{"date": "replaced"}}))
		item, err = s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"date": "replaced"}, item.Attrs)
	})
}

func TestStore_Query(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		pk := PartitionKey("u1", CategoryStructure)
		seed(t, s, pk, "2024-03-01#b", "2024-01-01#a", "2024-03-01#a", "2025-01-01#c")
		seed(t, s, PartitionKey("u2", CategoryStructure), "2024-01-01#z")

		all, err := s.Query(ctx, pk, QueryOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-01#a", "2024-03-01#a", "2024-03-01#b", "2025-01-01#c"}, sortKeys(all))

		prefixed, err := s.Query(ctx, pk, QueryOptions{SKPrefix: "2024-03"})
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-03-01#a", "2024-03-01#b"}, sortKeys(prefixed))

		latest, err := s.Query(ctx, pk, QueryOptions{Descending: true, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-01-01#c", "2024-03-01#b"}, sortKeys(latest))

		empty, err := s.Query(ctx, PartitionKey("nobody", CategoryStructure), QueryOptions{})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestStore_Update(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		key := Key{PK: PartitionKey("u1", CategoryActions), SK: "a1"}

		_, err := s.Update(ctx, key, map[string]any{"order": 1.0})
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, s.Put(ctx, Item{Key: key, Attrs: map[string]any{"name": "Water", "order": 0.0}}))
		updated, err := s.Update(ctx, key, map[string]any{"order": 3.0, "lastTriggeredDate": "2024-05-01"})
		require.NoError(t, err)
		assert.Equal(t, "Water", updated.Attrs["name"])

		item, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Water", "order": 3.0, "lastTriggeredDate": "2024-05-01"}, item.Attrs)
	})
}

func TestStore_Delete(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		key := Key{PK: PartitionKey("u1", CategoryActions), SK: "a1"}
		seed(t, s, key.PK, key.SK)

		require.NoError(t, s.Delete(ctx, key))
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, models.ErrNotFound)

		// Deleting a missing key is not an error.
		assert.NoError(t, s.Delete(ctx, key))
	})
}

func TestMemoryDB_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDB()
	key := Key{PK: "p", SK: "s"}
	attrs := map[string]any{"values": []any{"a"}}
	require.NoError(t, s.Put(ctx, Item{Key: key, Attrs: attrs}))

	attrs["values"].([]any)[0] = "mutated"
	item, err := s.Get(ctx, key)
	require.NoError(t, err)
	item.Attrs["values"].([]any)[0] = "mutated again"

	again, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, again.Attrs["values"])
}

func TestPartitionKey_EscapesUserID(t *testing.T) {
	assert.Equal(t, "USER#abc#ENTRIES", PartitionKey("abc", CategoryEntries))
	assert.Equal(t, "USER#a%23b%2Fc#ACTIONS", PartitionKey("a#b/c", CategoryActions))
}

func TestDocumentID(t *testing.T) {
	id := DocumentID(Key{PK: "USER#a/b#STRUCTURE", SK: "2024-01-01#x"})
	assert.NotContains(t, id, "/")
	assert.Equal(t, "USER%23a%2Fb%23STRUCTURE|2024-01-01%23x", id)
}

func TestEncodeDecode(t *testing.T) {
	type record struct {
		Name  string  `json:"name"`
		Count float64 `json:"count"`
	}
	attrs, err := Encode(record{Name: "walk", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "walk", "count": 2.0}, attrs)

	var back record
	require.NoError(t, Decode(attrs, &back))
	assert.Equal(t, record{Name: "walk", Count: 2}, back)
}

func TestFirestoreDB_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	s, err := NewFirestoreDB(ctx, "daybook-test", "", "items-"+t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	pk := PartitionKey("u1", CategoryEntries)
	seed(t, s, pk, "2024-01-02", "2024-01-01")

	items, err := s.Query(ctx, pk, QueryOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, sortKeys(items))

	_, err = s.Update(ctx, Key{PK: pk, SK: "2023-12-31"}, map[string]any{"x": 1.0})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFirestoreIndexesCoverQuery(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "firestore.indexes.json"))
	require.NoError(t, err)

	var file struct {
		Indexes []struct {
			CollectionGroup string `json:"collectionGroup"`
			QueryScope      string `json:"queryScope"`
			Fields          []struct {
				FieldPath string `json:"fieldPath"`
				Order     string `json:"order"`
			} `json:"fields"`
		} `json:"indexes"`
	}
	require.NoError(t, json.Unmarshal(raw, &file))

	shapes := map[string]bool{}
	for _, idx := range file.Indexes {
		assert.Equal(t, "journal", idx.CollectionGroup)
		assert.Equal(t, "COLLECTION", idx.QueryScope)
		shape := ""
		for _, f := range idx.Fields {
			shape += f.FieldPath + ":" + f.Order + " "
		}
		shapes[shape] = true
	}
	// Query filters on pk and orders by sk in either direction.
	assert.True(t, shapes["pk:ASCENDING sk:ASCENDING "])
	assert.True(t, shapes["pk:ASCENDING sk:DESCENDING "])
}
