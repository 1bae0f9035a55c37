package db

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryDB is an in-process Store used for tests and STORE_DRIVER=memory.
type MemoryDB struct {
	mu    sync.RWMutex
	items map[string]map[string]map[string]any // pk -> sk -> attrs
}

// NewMemoryDB returns an empty in-memory store.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{items: make(map[string]map[string]map[string]any)}
}

func (m *MemoryDB) Get(ctx context.Context, key Key) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs, ok := m.items[key.PK][key.SK]
	if !ok {
		return Item{}, notFound(key)
	}
	return Item{Key: key, Attrs: cloneAttrs(attrs)}, nil
}

func (m *MemoryDB) Put(ctx context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	partition, ok := m.items[item.PK]
	if !ok {
		partition = make(map[string]map[string]any)
		m.items[item.PK] = partition
	}
	partition[item.SK] = cloneAttrs(item.Attrs)
	return nil
}

func (m *MemoryDB) Query(ctx context.Context, pk string, opts QueryOptions) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items[pk]))
	for sk := range m.items[pk] {
		if strings.HasPrefix(sk, opts.SKPrefix) {
			keys = append(keys, sk)
		}
	}
	sort.Strings(keys)
	if opts.Descending {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	}
	if opts.Limit > 0 && len(keys) > opts.Limit {
		keys = keys[:opts.Limit]
	}

	items := make([]Item, 0, len(keys))
	for _, sk := range keys {
		items = append(items, Item{Key: Key{PK: pk, SK: sk}, Attrs: cloneAttrs(m.items[pk][sk])})
	}
	return items, nil
}

func (m *MemoryDB) Update(ctx context.Context, key Key, attrs map[string]any) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[key.PK][key.SK]
	if !ok {
		return Item{}, notFound(key)
	}
	for k, v := range attrs {
		current[k] = cloneValue(v)
	}
	return Item{Key: key, Attrs: cloneAttrs(current)}, nil
}

func (m *MemoryDB) Delete(ctx context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items[key.PK], key.SK)
	return nil
}

func (m *MemoryDB) Close() error {
	return nil
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneAttrs(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
