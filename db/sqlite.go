package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
	pk    TEXT NOT NULL,
	sk    TEXT NOT NULL,
	attrs TEXT NOT NULL,
	PRIMARY KEY (pk, sk)
) WITHOUT ROWID;
`

// SQLiteDB is a single-table Store backed by a local SQLite file.
// Used for local development (STORE_DRIVER=sqlite).
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the database at path and applies the schema.
func NewSQLiteDB(ctx context.Context, path string) (*SQLiteDB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}

	return &SQLiteDB{db: conn}, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Get(ctx context.Context, key Key) (Item, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT attrs FROM items WHERE pk = ? AND sk = ?`, key.PK, key.SK).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, notFound(key)
	}
	if err != nil {
		return Item{}, storeErr("get item", err)
	}
	return decodeRow(key, raw)
}

func (s *SQLiteDB) Put(ctx context.Context, item Item) error {
	raw, err := json.Marshal(item.Attrs)
	if err != nil {
		return storeErr("encode item", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (pk, sk, attrs) VALUES (?, ?, ?)
		 ON CONFLICT (pk, sk) DO UPDATE SET attrs = excluded.attrs`,
		item.PK, item.SK, string(raw))
	if err != nil {
		return storeErr("put item", err)
	}
	return nil
}

func (s *SQLiteDB) Query(ctx context.Context, pk string, opts QueryOptions) ([]Item, error) {
	var b strings.Builder
	args := []any{pk}
	b.WriteString(`SELECT sk, attrs FROM items WHERE pk = ?`)
	if opts.SKPrefix != "" {
		b.WriteString(` AND sk >= ? AND sk < ?`)
		args = append(args, opts.SKPrefix, prefixEnd(opts.SKPrefix))
	}
	if opts.Descending {
		b.WriteString(` ORDER BY sk DESC`)
	} else {
		b.WriteString(` ORDER BY sk ASC`)
	}
	if opts.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storeErr("query items", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var sk, raw string
		if err := rows.Scan(&sk, &raw); err != nil {
			return nil, storeErr("scan item", err)
		}
		item, err := decodeRow(Key{PK: pk, SK: sk}, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query items", err)
	}
	return items, nil
}

func (s *SQLiteDB) Update(ctx context.Context, key Key, attrs map[string]any) (Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, storeErr("begin update", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT attrs FROM items WHERE pk = ? AND sk = ?`, key.PK, key.SK).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, notFound(key)
	}
	if err != nil {
		return Item{}, storeErr("read item for update", err)
	}

	item, err := decodeRow(key, raw)
	if err != nil {
		return Item{}, err
	}
	for k, v := range attrs {
		item.Attrs[k] = v
	}
	merged, err := json.Marshal(item.Attrs)
	if err != nil {
		return Item{}, storeErr("encode item", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET attrs = ? WHERE pk = ? AND sk = ?`, string(merged), key.PK, key.SK); err != nil {
		return Item{}, storeErr("update item", err)
	}
	if err := tx.Commit(); err != nil {
		return Item{}, storeErr("commit update", err)
	}
	return item, nil
}

func (s *SQLiteDB) Delete(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM items WHERE pk = ? AND sk = ?`, key.PK, key.SK); err != nil {
		return storeErr("delete item", err)
	}
	return nil
}

func decodeRow(key Key, raw string) (Item, error) {
	var attrs map[string]any
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return Item{}, storeErr("decode item", err)
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	return Item{Key: key, Attrs: attrs}, nil
}
