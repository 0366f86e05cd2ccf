// Package pgstore is the Postgres-backed engine.Store, grounded on the
// teacher's internal/repository package: one *sqlx.DB per table-family
// (MarketRepository, BetRepository, UserRepository, WalletRepository), FOR
// UPDATE row locks for anything that must serialize, and `db:` struct tags
// for reads; inserts use positional ExecContext/GetContext arguments.
//
// Unlike the teacher's repositories, engine.Store is a single interface, so
// this package folds the per-entity split into one file per concern
// (prediction.go, judge.go, bet.go, cashout.go, access.go, user.go,
// audit.go) that share a dbtx parameter rather than one struct each
// exposing its own handful of unrelated methods — WithTx needs a single
// type that can hand back the whole interface bound to one transaction.
//
// The driver is wired at cmd/server/main.go via jackc/pgx/v5's stdlib
// adapter (pgx/v5/stdlib), not lib/pq: see DESIGN.md for why this one
// teacher dependency was swapped rather than kept.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/jmoiron/sqlx"
)

// dbtx is the subset of *sqlx.DB and *sqlx.Tx this package needs, so every
// query function can run unmodified against either a plain connection or a
// transaction already holding the per-prediction lock.
type dbtx interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// Store is the top-level engine.Store implementation, backed directly by a
// *sqlx.DB (no transaction in progress).
type Store struct {
	db *sqlx.DB
}

// New wraps an already-connected *sqlx.DB. Callers are expected to have run
// db/migrations (via cmd/migrate) beforehand.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

var _ engine.Store = (*Store)(nil)

// WithTx opens a transaction, takes a row-level lock on the prediction
// (serializing concurrent transitions per the interface's documented
// requirement), runs fn against a transaction-scoped Store, and commits only
// if fn succeeds.
func (s *Store) WithTx(ctx context.Context, predictionID domain.RowId, fn func(ctx context.Context, tx engine.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgstore.WithTx begin: %w", err)
	}

	var locked int64
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM predictions WHERE id = $1 FOR UPDATE`, predictionID); err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return domain.ErrPredictionNotFound
		}
		return fmt.Errorf("pgstore.WithTx lock: %w", err)
	}

	if err := fn(ctx, &txStore{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgstore.WithTx commit: %w", err)
	}
	return nil
}

// txStore is engine.Store bound to an already-open, already-locked
// transaction. Every method below in prediction.go/judge.go/bet.go/
// cashout.go/access.go/user.go/audit.go is implemented once as a
// package-level function taking dbtx, and both Store and txStore just
// supply their respective connection.
type txStore struct {
	tx *sqlx.Tx
}

var _ engine.Store = (*txStore)(nil)

// WithTx on a txStore is a no-op nesting guard: the lock is already held by
// the enclosing Store.WithTx call, so fn just runs against the same
// transaction.
func (t *txStore) WithTx(ctx context.Context, _ domain.RowId, fn func(ctx context.Context, tx engine.Store) error) error {
	return fn(ctx, t)
}
