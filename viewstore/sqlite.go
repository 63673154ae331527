// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package viewstore

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/meshdir-foundation/meshdir/directory"
)

// SQLiteView is the persistent directory.View: one row per key in a
// WITHOUT ROWID table, so the primary-key index delivers the ordered
// prefix scans the determinism contract requires.
//
// The engine drives Get/Scan/Commit from a single goroutine; the
// pool's remaining connections are free for concurrent readers
// between transitions.
type SQLiteView struct {
	pool *Pool
	ctx  context.Context
}

// NewSQLiteView wraps a pool as a directory.View. The context bounds
// connection acquisition for every operation.
func NewSQLiteView(ctx context.Context, pool *Pool) *SQLiteView {
	return &SQLiteView{pool: pool, ctx: ctx}
}

// Get implements directory.View.
func (v *SQLiteView) Get(key string) ([]byte, bool, error) {
	conn, err := v.pool.Take(v.ctx)
	if err != nil {
		return nil, false, err
	}
	defer v.pool.Put(conn)

	var value []byte
	var found bool
	err = sqlitex.Execute(conn, "SELECT value FROM view WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("viewstore: get %q: %w", key, err)
	}
	return value, found, nil
}

// Scan implements directory.View. The prefix range is expressed as
// [prefix, upperBound) so the scan rides the primary-key index; an
// empty prefix walks the whole table.
func (v *SQLiteView) Scan(prefix string, fn func(key string, value []byte) error) error {
	conn, err := v.pool.Take(v.ctx)
	if err != nil {
		return err
	}
	defer v.pool.Put(conn)

	query := "SELECT key, value FROM view ORDER BY key"
	args := []any{}
	if prefix != "" {
		if upper, bounded := prefixUpperBound(prefix); bounded {
			query = "SELECT key, value FROM view WHERE key >= ? AND key < ? ORDER BY key"
			args = []any{prefix, upper}
		} else {
			query = "SELECT key, value FROM view WHERE key >= ? ORDER BY key"
			args = []any{prefix}
		}
	}

	var callbackErr error
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			key := stmt.ColumnText(0)
			value := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, value)
			if err := fn(key, value); err != nil {
				callbackErr = err
				return err
			}
			return nil
		},
	})
	if callbackErr != nil {
		return callbackErr
	}
	if err != nil {
		return fmt.Errorf("viewstore: scan %q: %w", prefix, err)
	}
	return nil
}

// Commit implements directory.View. The whole delta lands inside one
// savepoint: a failure rolls every row back.
func (v *SQLiteView) Commit(delta directory.Delta) (err error) {
	conn, takeErr := v.pool.Take(v.ctx)
	if takeErr != nil {
		return takeErr
	}
	defer v.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	for _, put := range delta.Puts {
		err = sqlitex.Execute(conn,
			"INSERT INTO view (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			&sqlitex.ExecOptions{Args: []any{put.Key, put.Value}})
		if err != nil {
			return fmt.Errorf("viewstore: put %q: %w", put.Key, err)
		}
	}
	for _, key := range delta.Deletes {
		err = sqlitex.Execute(conn, "DELETE FROM view WHERE key = ?",
			&sqlitex.ExecOptions{Args: []any{key}})
		if err != nil {
			return fmt.Errorf("viewstore: delete %q: %w", key, err)
		}
	}
	return nil
}

// prefixUpperBound returns the smallest string greater than every
// string with the given prefix, by incrementing the last byte that is
// not 0xff. The second return is false when no such bound exists (a
// prefix of all 0xff bytes).
func prefixUpperBound(prefix string) (string, bool) {
	bytes := []byte(prefix)
	for i := len(bytes) - 1; i >= 0; i-- {
		if bytes[i] != 0xff {
			bytes[i]++
			return string(bytes[:i+1]), true
		}
	}
	return "", false
}
