package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
)

// getOrCreateUser mirrors memstore's auto-creation of a RoleUser record on
// first touch, grounded on the same reasoning: users never go through an
// explicit signup call here, they appear the first time a user operation
// (a role lookup, a username update, a profile read) touches the pubkey.
// Login challenges and sessions do not create a user row.
func getOrCreateUser(ctx context.Context, db dbtx, user domain.PubKey) (*domain.User, error) {
	var u domain.User
	err := db.GetContext(ctx, &u, `SELECT * FROM users WHERE pubkey = $1`, user)
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pgstore.getOrCreateUser: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (pubkey, role) VALUES ($1, $2)
		ON CONFLICT (pubkey) DO NOTHING`,
		user, string(domain.RoleUser))
	if err != nil {
		return nil, fmt.Errorf("pgstore.getOrCreateUser insert: %w", err)
	}
	return &domain.User{PubKey: user, Role: domain.RoleUser}, nil
}

func updateUsername(ctx context.Context, db dbtx, user domain.PubKey, name string) error {
	if _, err := getOrCreateUser(ctx, db, user); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `UPDATE users SET display_name = $1 WHERE pubkey = $2`, name, user)
	if err != nil {
		return fmt.Errorf("pgstore.updateUsername: %w", err)
	}
	return nil
}

func getUsername(ctx context.Context, db dbtx, user domain.PubKey) (*string, error) {
	u, err := getOrCreateUser(ctx, db, user)
	if err != nil {
		return nil, err
	}
	return u.DisplayName, nil
}

func getUser(ctx context.Context, db dbtx, user domain.PubKey) (*domain.User, error) {
	return getOrCreateUser(ctx, db, user)
}

func getUserRole(ctx context.Context, db dbtx, user domain.PubKey) (domain.UserRole, error) {
	u, err := getOrCreateUser(ctx, db, user)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func updateUserRole(ctx context.Context, db dbtx, user domain.PubKey, role domain.UserRole) error {
	if _, err := getOrCreateUser(ctx, db, user); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE pubkey = $2`, string(role), user)
	if err != nil {
		return fmt.Errorf("pgstore.updateUserRole: %w", err)
	}
	return nil
}

// Store method wrappers

func (s *Store) UpdateUsername(ctx context.Context, user domain.PubKey, name string) error {
	return updateUsername(ctx, s.db, user, name)
}
func (s *Store) GetUsername(ctx context.Context, user domain.PubKey) (*string, error) {
	return getUsername(ctx, s.db, user)
}
func (s *Store) GetUser(ctx context.Context, user domain.PubKey) (*domain.User, error) {
	return getUser(ctx, s.db, user)
}
func (s *Store) GetUserRole(ctx context.Context, user domain.PubKey) (domain.UserRole, error) {
	return getUserRole(ctx, s.db, user)
}
func (s *Store) UpdateUserRole(ctx context.Context, user domain.PubKey, role domain.UserRole) error {
	return updateUserRole(ctx, s.db, user, role)
}

// txStore method wrappers

func (t *txStore) UpdateUsername(ctx context.Context, user domain.PubKey, name string) error {
	return updateUsername(ctx, t.tx, user, name)
}
func (t *txStore) GetUsername(ctx context.Context, user domain.PubKey) (*string, error) {
	return getUsername(ctx, t.tx, user)
}
func (t *txStore) GetUser(ctx context.Context, user domain.PubKey) (*domain.User, error) {
	return getUser(ctx, t.tx, user)
}
func (t *txStore) GetUserRole(ctx context.Context, user domain.PubKey) (domain.UserRole, error) {
	return getUserRole(ctx, t.tx, user)
}
func (t *txStore) UpdateUserRole(ctx context.Context, user domain.PubKey, role domain.UserRole) error {
	return updateUserRole(ctx, t.tx, user, role)
}
