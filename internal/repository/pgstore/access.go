package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evetabi/prediction/internal/domain"
)

func createSession(ctx context.Context, db dbtx, user domain.PubKey, challenge string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (user_pubkey, challenge, sig, last_access)
		VALUES ($1, $2, '', now())
		ON CONFLICT (user_pubkey, challenge) DO NOTHING`,
		user, challenge)
	if err != nil {
		return fmt.Errorf("pgstore.createSession: %w", err)
	}
	return nil
}

// updateAccessToken stamps last_access with the database's own clock (now())
// rather than a parameter, the same way a real NOW() column would behave
// independently of the engine's injected business-time Clock — see
// DESIGN.md's note on memstore's matching behavior.
func updateAccessToken(ctx context.Context, db dbtx, user domain.PubKey, sig, challenge string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE sessions SET sig = $1, last_access = now() WHERE user_pubkey = $2 AND challenge = $3`,
		sig, user, challenge)
	if err != nil {
		return fmt.Errorf("pgstore.updateAccessToken: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotAuthenticated
	}
	return nil
}

func getLastAccess(ctx context.Context, db dbtx, user domain.PubKey, challenge string) (string, time.Time, error) {
	var row struct {
		Sig        string    `db:"sig"`
		LastAccess time.Time `db:"last_access"`
	}
	err := db.GetContext(ctx, &row,
		`SELECT sig, last_access FROM sessions WHERE user_pubkey = $1 AND challenge = $2`, user, challenge)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, domain.ErrNotAuthenticated
		}
		return "", time.Time{}, fmt.Errorf("pgstore.getLastAccess: %w", err)
	}
	return row.Sig, row.LastAccess, nil
}

// Store method wrappers

func (s *Store) CreateSession(ctx context.Context, user domain.PubKey, challenge string) error {
	return createSession(ctx, s.db, user, challenge)
}
func (s *Store) UpdateAccessToken(ctx context.Context, user domain.PubKey, sig, challenge string) error {
	return updateAccessToken(ctx, s.db, user, sig, challenge)
}
func (s *Store) GetLastAccess(ctx context.Context, user domain.PubKey, challenge string) (string, time.Time, error) {
	return getLastAccess(ctx, s.db, user, challenge)
}

// txStore method wrappers

func (t *txStore) CreateSession(ctx context.Context, user domain.PubKey, challenge string) error {
	return createSession(ctx, t.tx, user, challenge)
}
func (t *txStore) UpdateAccessToken(ctx context.Context, user domain.PubKey, sig, challenge string) error {
	return updateAccessToken(ctx, t.tx, user, sig, challenge)
}
func (t *txStore) GetLastAccess(ctx context.Context, user domain.PubKey, challenge string) (string, time.Time, error) {
	return getLastAccess(ctx, t.tx, user, challenge)
}
