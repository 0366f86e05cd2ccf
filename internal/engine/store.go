// Package engine implements the MarketEngine: the prediction and bet state
// machines, resolution and payout triggering, and access control. It is the
// orchestrator — Store and PaymentOracle are the two external collaborators
// it depends on, both expressed as interfaces here (not in internal/domain)
// so the concrete repository and oracle packages can implement them without
// an import cycle, following this repository's existing convention of
// declaring consumer-side interfaces next to the service that uses them
// (compare internal/service's Refunder/Rebalancer/Broadcaster pattern).
package engine

import (
	"context"
	"time"

	"github.com/evetabi/prediction/internal/domain"
)

// Store is the durable mapping of predictions, judges, bets, cash-outs,
// sessions and users. All mutating operations must be atomic per-call; two
// concurrent callers attempting conflicting transitions on the same
// prediction must serialize so that at most one succeeds.
type Store interface {
	// Predictions
	AddPrediction(ctx context.Context, p *domain.Prediction) (domain.RowId, error)
	GetPredictionState(ctx context.Context, id domain.RowId) (domain.MarketState, error)
	SetPredictionState(ctx context.Context, id domain.RowId, s domain.MarketState) error
	GetTradingEnd(ctx context.Context, id domain.RowId) (time.Time, error)
	GetDecisionPeriod(ctx context.Context, id domain.RowId) (time.Duration, error)
	GetJudgeSharePpm(ctx context.Context, id domain.RowId) (domain.Ppm, error)
	GetJudgeCount(ctx context.Context, id domain.RowId) (uint32, error)
	GetPrediction(ctx context.Context, id domain.RowId) (*domain.Prediction, error)
	GetPredictions(ctx context.Context) ([]domain.PredictionOverview, error)
	GetPredictionOverview(ctx context.Context, id domain.RowId) (*domain.PredictionOverview, error)
	GetPredictionRatio(ctx context.Context, id domain.RowId) (domain.PredictionRatio, error)

	// Judges
	GetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey) (domain.JudgeState, error)
	SetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey, s domain.JudgeState) error
	GetJudgeStates(ctx context.Context, id domain.RowId) ([]domain.JudgeState, error)
	GetJudges(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error)
	GetJudge(ctx context.Context, id domain.RowId, user domain.PubKey) (*domain.Judge, error)
	GetPredictionJudges(ctx context.Context, id domain.RowId) ([]domain.Judge, error)

	// Bets
	CreateBet(ctx context.Context, predictionID domain.RowId, user domain.PubKey, side bool, invoice string) error
	GetBet(ctx context.Context, invoice string) (*domain.Bet, error)
	SettleBet(ctx context.Context, invoice string, amount domain.Sats) error
	InitBetRefund(ctx context.Context, invoice string, refundInvoice *string) error
	SettleBetRefund(ctx context.Context, invoice string) error
	GetUserPredictionBets(ctx context.Context, predictionID domain.RowId, user domain.PubKey) ([]domain.Bet, error)
	GetPredictionBets(ctx context.Context, predictionID domain.RowId, side bool) ([]domain.Bet, error)
	GetPredictionBetsAggregated(ctx context.Context, predictionID domain.RowId, side bool) (domain.Sats, error)
	GetBets(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.Bet, error)

	// Cash-outs
	SetCashOut(ctx context.Context, predictionID domain.RowId, amounts map[domain.PubKey]domain.Sats) error
	SetCashOutInvoice(ctx context.Context, predictionID domain.RowId, user domain.PubKey, invoice string) error
	GetCashOut(ctx context.Context, predictionID domain.RowId, user domain.PubKey) (*domain.CashOut, error)
	GetCashOuts(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.CashOut, error)

	// Access control
	CreateSession(ctx context.Context, user domain.PubKey, challenge string) error
	UpdateAccessToken(ctx context.Context, user domain.PubKey, sig, challenge string) error
	GetLastAccess(ctx context.Context, user domain.PubKey, challenge string) (sig string, lastAccess time.Time, err error)

	// Users
	UpdateUsername(ctx context.Context, user domain.PubKey, name string) error
	GetUsername(ctx context.Context, user domain.PubKey) (*string, error)
	GetUser(ctx context.Context, user domain.PubKey) (*domain.User, error)
	GetUserRole(ctx context.Context, user domain.PubKey) (domain.UserRole, error)
	UpdateUserRole(ctx context.Context, user domain.PubKey, role domain.UserRole) error

	// Audit
	LogTransition(ctx context.Context, predictionID domain.RowId, entity, from, to, reason string) error

	// WithTx runs fn inside a single serialized, atomic transaction scoped to
	// predictionID: the implementation must take whatever per-prediction lock
	// (row-level FOR UPDATE or equivalent) is needed so that concurrent
	// transitions on the same prediction serialize per §5.
	WithTx(ctx context.Context, predictionID domain.RowId, fn func(ctx context.Context, tx Store) error) error
}
