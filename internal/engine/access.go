package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/rand"

	"github.com/evetabi/prediction/internal/domain"
)

// challengeAlphabet matches the 30-character alphanumeric challenge the
// reference implementation generates via rand::distributions::Alphanumeric.
const challengeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const challengeLength = 30

// SignatureVerifier checks a signature over a message for a given user.
// This is the "login-challenge signature verification machinery" the
// design explicitly scopes out as an external collaborator — it is invoked
// here but its cryptographic details are supplied by the implementation
// below, grounded on btcsuite/btcd/btcec/v2's secp256k1 primitives.
type SignatureVerifier interface {
	Verify(user domain.PubKey, message []byte, sig string) bool
}

// CreateLoginChallenge generates a random 30-character alphanumeric string
// and stores (user, challenge) as pending.
func (e *Engine) CreateLoginChallenge(ctx context.Context, user domain.PubKey) (string, error) {
	challenge := randomChallenge()
	if err := e.store.CreateSession(ctx, user, challenge); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return challenge, nil
}

func randomChallenge() string {
	b := make([]byte, challengeLength)
	for i := range b {
		b[i] = challengeAlphabet[rand.Intn(len(challengeAlphabet))]
	}
	return string(b)
}

// TryLogin verifies sig over sha256(challenge) against user and, on
// success, persists the session.
func (e *Engine) TryLogin(ctx context.Context, user domain.PubKey, sig, challenge string) error {
	sum := sha256.Sum256([]byte(challenge))
	if !e.verifier.Verify(user, sum[:], sig) {
		return domain.ErrSignatureInvalid
	}
	if err := e.store.UpdateAccessToken(ctx, user, sig, challenge); err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	return nil
}

// CheckAccess validates an AccessRequest and returns the caller's role.
// When the engine was constructed with test mode, access checks
// short-circuit to Root — this is an engine construction parameter, not a
// runtime escape hatch.
func (e *Engine) CheckAccess(ctx context.Context, access domain.AccessRequest) (domain.UserRole, error) {
	if e.test {
		return domain.RoleRoot, nil
	}
	sig, lastAccess, err := e.store.GetLastAccess(ctx, access.User, access.Challenge)
	if err != nil {
		return "", fmt.Errorf("get last access: %w", err)
	}
	if access.Sig != sig {
		return "", domain.ErrNotAuthenticated
	}
	if (&domain.Session{LastAccess: lastAccess}).Expired(e.clock.Now()) {
		return "", domain.ErrSessionExpired
	}
	role, err := e.store.GetUserRole(ctx, access.User)
	if err != nil {
		return "", fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}

// CheckAccessForUser additionally enforces that a User-role caller may only
// act on their own behalf; Admin/Root may act for anyone.
func (e *Engine) CheckAccessForUser(ctx context.Context, user domain.PubKey, access domain.AccessRequest) error {
	role, err := e.CheckAccess(ctx, access)
	if err != nil {
		return err
	}
	if role == domain.RoleUser && user != access.User {
		return domain.ErrForbidden
	}
	return nil
}

// requireAdmin is the admin-only API guard used by force_decision_period,
// pay_bet, and the all-users listing endpoints.
func (e *Engine) requireAdmin(ctx context.Context, access domain.AccessRequest) error {
	role, err := e.CheckAccess(ctx, access)
	if err != nil {
		return err
	}
	if role == domain.RoleUser {
		return domain.ErrForbidden
	}
	return nil
}
