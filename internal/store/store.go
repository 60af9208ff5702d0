// Package store is a reference implementation of the conditional
// key-value store collaborator. It consumes compiled operation
// descriptors, enforces their record-exists precondition, and applies the
// update expression to records held in SQLite. The compiler core never
// calls into this package; the CLI and the conformance harness do.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/patch"
)

//go:embed schema.sql
var schemaSQL string

// Store holds sparse key-value records in SQLite. WAL mode allows
// concurrent reads while a batch is being applied.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store database at path. Pragmas and schema are
// applied automatically; calling Open twice on the same path is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect store: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY during batch applies.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Put writes a full record, creating or replacing it. Seeding records goes
// through Put; update operations never create.
func (s *Store) Put(ctx context.Context, table string, key patch.Key, attrs attr.Map) error {
	if !key.Valid() {
		return fmt.Errorf("put: key requires both partition and sort parts")
	}
	encoded, err := encodeAttrs(attrs)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (tbl, pk, sk, attrs)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tbl, pk, sk) DO UPDATE SET attrs = excluded.attrs
	`, table, key.Partition, key.Sort, encoded)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

// Get reads a record's attributes. Returns a NotFoundError when no record
// exists under the key.
func (s *Store) Get(ctx context.Context, table string, key patch.Key) (attr.Map, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `
		SELECT attrs FROM records WHERE tbl = ? AND pk = ? AND sk = ?
	`, table, key.Partition, key.Sort).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Table: table, Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return decodeAttrs(encoded)
}

// Delete removes a record. Deleting a missing record is a no-op.
func (s *Store) Delete(ctx context.Context, table string, key patch.Key) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM records WHERE tbl = ? AND pk = ? AND sk = ?
	`, table, key.Partition, key.Sort)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// encodeAttrs serializes an attribute map to the stored JSON object of
// wire-encoded values.
func encodeAttrs(attrs attr.Map) (string, error) {
	fields := make(map[string]json.RawMessage, len(attrs))
	for name, v := range attrs {
		wire, err := attr.EncodeWire(v)
		if err != nil {
			return "", fmt.Errorf("attribute %q: %w", name, err)
		}
		fields[name] = wire
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// decodeAttrs parses the stored JSON object back to an attribute map.
func decodeAttrs(encoded string) (attr.Map, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(encoded), &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	attrs := make(attr.Map, len(fields))
	for name, wire := range fields {
		v, err := attr.DecodeWire(wire)
		if err != nil {
			return nil, fmt.Errorf("decode record attribute %q: %w", name, err)
		}
		attrs[name] = v
	}
	return attrs, nil
}
