// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

// Package sqlite implements index.Index backed by SQLite with the sqlite-vec
// extension. Each universe owns one directory holding a single database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shoprag/universe/internal/index"
	unierr "github.com/shoprag/universe/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

const dbFileName = "things.db"

// Compile-time interface check.
var _ index.Index = (*Index)(nil)

// Index implements index.Index with a vec0 virtual table for embeddings and a
// companion things table carrying the text payload and insertion order.
type Index struct {
	mu         sync.Mutex // serializes mutating operations
	db         *sql.DB
	dir        string
	dimensions int
}

// Open creates or opens the index rooted at dir. The vector dimensionality is
// pinned when the index is first created; a later open with a different value
// is rejected rather than silently degrading queries.
func Open(dir string, dimensions int) (index.Index, error) {
	if dimensions <= 0 {
		return nil, unierr.Errorf(unierr.CodeIndexOpenFailure,
			"index dimensions must be positive, got %d", dimensions)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unierr.Wrapf(err, unierr.CodeIndexOpenFailure, "creating index directory %s", dir)
	}

	dbPath := filepath.Join(dir, dbFileName)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, unierr.Wrapf(err, unierr.CodeIndexOpenFailure, "opening index db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, classify(err, unierr.CodeIndexOpenFailure, "pinging index db")
	}

	if err := migrate(db, dimensions); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Index{db: db, dir: dir, dimensions: dimensions}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	const metaDDL = `
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
	if _, err := db.Exec(metaDDL); err != nil {
		return classify(err, unierr.CodeIndexOpenFailure, "creating index_meta table")
	}

	var stored string
	err := db.QueryRow(`SELECT value FROM index_meta WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec(`INSERT INTO index_meta(key, value) VALUES ('dimensions', ?)`,
			strconv.Itoa(dimensions)); err != nil {
			return classify(err, unierr.CodeIndexOpenFailure, "pinning index dimensions")
		}
	case err != nil:
		return classify(err, unierr.CodeIndexOpenFailure, "reading index dimensions")
	default:
		pinned, convErr := strconv.Atoi(stored)
		if convErr != nil {
			return unierr.Errorf(unierr.CodeIndexCorrupt,
				"index_meta dimensions is not a number: %q", stored)
		}
		if pinned != dimensions {
			return unierr.Errorf(unierr.CodeIndexDimensionMismatch,
				"index was created with %d dimensions, provider produces %d", pinned, dimensions)
		}
	}

	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vectors USING vec0(id TEXT PRIMARY KEY, embedding float[%d] distance_metric=cosine)`,
		dimensions,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return classify(err, unierr.CodeIndexOpenFailure, "creating vectors virtual table")
	}

	const thingsDDL = `
CREATE TABLE IF NOT EXISTS things (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	body TEXT NOT NULL
)`
	if _, err := db.Exec(thingsDDL); err != nil {
		return classify(err, unierr.CodeIndexOpenFailure, "creating things table")
	}

	return nil
}

// Insert stores or replaces a record. vec0 has no ON CONFLICT, so upsert is
// delete-then-insert inside one transaction.
func (x *Index) Insert(ctx context.Context, id string, vector []float32, text string) (string, error) {
	if err := x.checkDims(vector); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.New().String()
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return "", unierr.Wrap(err, unierr.CodeIndexWriteFailure, "serializing embedding")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return "", classify(err, unierr.CodeIndexWriteFailure, "beginning insert transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, id); err != nil {
		return "", classify(err, unierr.CodeIndexWriteFailure, "clearing existing vector")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM things WHERE id = ?`, id); err != nil {
		return "", classify(err, unierr.CodeIndexWriteFailure, "clearing existing thing")
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO vectors(id, embedding) VALUES (?, ?)`, id, blob); err != nil {
		return "", classify(err, unierr.CodeIndexWriteFailure, "inserting vector")
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO things(id, body) VALUES (?, ?)`, id, text); err != nil {
		return "", classify(err, unierr.CodeIndexWriteFailure, "inserting thing")
	}

	if err := tx.Commit(); err != nil {
		return "", classify(err, unierr.CodeIndexWriteFailure, "committing insert")
	}
	return id, nil
}

// Delete removes a record by id. Deleting an absent id succeeds.
func (x *Index) Delete(ctx context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, unierr.CodeIndexWriteFailure, "beginning delete transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, id); err != nil {
		return classify(err, unierr.CodeIndexWriteFailure, "deleting vector")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM things WHERE id = ?`, id); err != nil {
		return classify(err, unierr.CodeIndexWriteFailure, "deleting thing")
	}

	if err := tx.Commit(); err != nil {
		return classify(err, unierr.CodeIndexWriteFailure, "committing delete")
	}
	return nil
}

// Query performs a k-nearest-neighbor search. Cosine distance from vec0 is
// mapped to closeness = 1 - distance; ties resolve by insertion order.
func (x *Index) Query(ctx context.Context, vector []float32, k int) ([]index.Result, error) {
	if k <= 0 {
		return nil, unierr.Errorf(unierr.CodeReachInvalid, "query k must be positive, got %d", k)
	}
	if err := x.checkDims(vector); err != nil {
		return nil, err
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, unierr.Wrap(err, unierr.CodeIndexQueryFailure, "serializing query vector")
	}

	const q = `SELECT v.id, v.distance, COALESCE(t.body, ''), COALESCE(t.seq, 0)
FROM vectors v
LEFT JOIN things t ON t.id = v.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance, t.seq`

	rows, err := x.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, classify(err, unierr.CodeIndexQueryFailure, "searching vectors")
	}
	defer func() { _ = rows.Close() }()

	results := []index.Result{}
	for rows.Next() {
		var (
			r        index.Result
			distance float64
			seq      int64
		)
		if err := rows.Scan(&r.ID, &distance, &r.Text, &seq); err != nil {
			return nil, classify(err, unierr.CodeIndexQueryFailure, "scanning query result")
		}
		r.Closeness = 1 - distance
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, unierr.CodeIndexQueryFailure, "iterating query results")
	}

	return results, nil
}

// ListIDs returns all live identifiers in insertion order.
func (x *Index) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT id FROM things ORDER BY seq`)
	if err != nil {
		return nil, classify(err, unierr.CodeIndexQueryFailure, "listing ids")
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err, unierr.CodeIndexQueryFailure, "scanning id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, unierr.CodeIndexQueryFailure, "iterating ids")
	}
	return ids, nil
}

// Destroy closes the handle and removes the universe directory wholesale.
func (x *Index) Destroy() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.db.Close(); err != nil {
		return unierr.Wrap(err, unierr.CodeIndexDestroyFailure, "closing index db")
	}
	if err := os.RemoveAll(x.dir); err != nil {
		return unierr.Wrapf(err, unierr.CodeIndexDestroyFailure, "removing index directory %s", x.dir)
	}
	return nil
}

// Close releases the database handle.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) checkDims(vector []float32) error {
	if len(vector) != x.dimensions {
		return unierr.Errorf(unierr.CodeIndexDimensionMismatch,
			"vector has %d dimensions, index is pinned to %d", len(vector), x.dimensions)
	}
	return nil
}

// classify wraps a SQLite error, promoting on-disk corruption to its own code
// so callers can distinguish it from transient failures.
func classify(err error, fallback unierr.Code, msg string) error {
	s := err.Error()
	if strings.Contains(s, "file is not a database") ||
		strings.Contains(s, "database disk image is malformed") {
		return unierr.Wrap(err, unierr.CodeIndexCorrupt, msg)
	}
	return unierr.Wrap(err, fallback, msg)
}
