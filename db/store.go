package db

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"daybook/models"
)

// Record categories, encoded into the partition key next to the user id.
const (
	CategoryEntries   = "ENTRIES"
	CategoryStructure = "STRUCTURE"
	CategoryActions   = "ACTIONS"
)

// Key addresses one record in the single-table layout.
type Key struct {
	PK string // partition key: user + record category
	SK string // sort key: discriminator inside the category
}

// Item is a full record. Attrs holds JSON-compatible values only
// (string, bool, float64, nil, []any, map[string]any).
type Item struct {
	Key
	Attrs map[string]any
}

// QueryOptions narrows a partition scan.
type QueryOptions struct {
	SKPrefix   string
	Limit      int // 0 means no limit
	Descending bool
}

// Store is the key-value access layer every domain component goes through.
// Get and Update return models.ErrNotFound for a missing key; every other
// backend failure is wrapped with models.ErrStoreFailure.
type Store interface {
	Get(ctx context.Context, key Key) (Item, error)
	Put(ctx context.Context, item Item) error
	Query(ctx context.Context, pk string, opts QueryOptions) ([]Item, error)
	Update(ctx context.Context, key Key, attrs map[string]any) (Item, error)
	Delete(ctx context.Context, key Key) error
	Close() error
}

// PartitionKey builds the partition key for a user's record category.
func PartitionKey(userID, category string) string {
	return "USER#" + url.PathEscape(userID) + "#" + category
}

// Encode converts a domain struct into store attributes using its JSON shape.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}
	var attrs map[string]any
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}
	return attrs, nil
}

// Decode fills v from store attributes.
func Decode(attrs map[string]any, v any) error {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to decode item: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode item: %w", err)
	}
	return nil
}

// prefixEnd is the exclusive upper bound for a sort-key prefix scan.
func prefixEnd(prefix string) string {
	return prefix + "\uffff"
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStoreFailure, op, err)
}

func notFound(key Key) error {
	return fmt.Errorf("%w: item %s/%s", models.ErrNotFound, key.PK, key.SK)
}

// EncodeValue converts a single attribute value (slice, struct, time) into
// its store representation, for use with Update.
func EncodeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return out, nil
}
