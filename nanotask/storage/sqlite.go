package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// metadataKey holds the snapshot metadata alongside the slots.
const metadataKey = "__metadata__"

// SQLiteBackend persists snapshots in a key/value table of a SQLite file.
// The whole snapshot is rewritten in one transaction.
type SQLiteBackend struct {
	path string
	db   *sql.DB
}

// NewSQLiteBackend returns a backend for path. The database is opened on
// first use.
func NewSQLiteBackend(path string) *SQLiteBackend {
	return &SQLiteBackend{path: path}
}

// Path implements Backend.Path
func (b *SQLiteBackend) Path() string { return b.path }

func (b *SQLiteBackend) open(ctx context.Context) error {
	if b.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}
	b.db = db
	return nil
}

// Load implements Backend.Load
func (b *SQLiteBackend) Load() (*Snapshot, error) {
	if _, err := os.Stat(b.path); errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	ctx := context.Background()
	if err := b.open(ctx); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, "SELECT key, value FROM shelf")
	if err != nil {
		return nil, fmt.Errorf("read shelf: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := &Snapshot{Slots: make(map[string][]byte)}
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan shelf row: %w", err)
		}
		if key == metadataKey {
			if err := json.Unmarshal(value, &snap.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
			continue
		}
		snap.Slots[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read shelf: %w", err)
	}
	return snap, nil
}

// Save implements Backend.Save
func (b *SQLiteBackend) Save(snap *Snapshot) error {
	ctx := context.Background()
	if err := b.open(ctx); err != nil {
		return err
	}

	meta, err := json.Marshal(snap.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM shelf"); err != nil {
		return fmt.Errorf("clear shelf: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO shelf (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	if _, err := stmt.ExecContext(ctx, metadataKey, meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	for k, v := range snap.Slots {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("write slot %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// Close implements Backend.Close
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
