package engine

import (
	"context"

	"github.com/evetabi/prediction/internal/domain"
)

// GetPredictions lists every prediction's read-only overview.
func (e *Engine) GetPredictions(ctx context.Context) ([]domain.PredictionOverview, error) {
	return e.store.GetPredictions(ctx)
}

// GetPredictionOverview returns one prediction's read-only overview.
func (e *Engine) GetPredictionOverview(ctx context.Context, predictionID domain.RowId) (*domain.PredictionOverview, error) {
	return e.store.GetPredictionOverview(ctx, predictionID)
}

// GetPredictionRatio returns the current true/false pool split.
func (e *Engine) GetPredictionRatio(ctx context.Context, predictionID domain.RowId) (domain.PredictionRatio, error) {
	return e.store.GetPredictionRatio(ctx, predictionID)
}

// GetPredictionJudges lists a prediction's judge records.
func (e *Engine) GetPredictionJudges(ctx context.Context, predictionID domain.RowId) ([]domain.Judge, error) {
	return e.store.GetPredictionJudges(ctx, predictionID)
}

// GetJudges lists judge records, optionally filtered by prediction and/or
// user. This read is unauthenticated (public judge roster), matching the
// reference implementation.
func (e *Engine) GetJudges(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error) {
	return e.store.GetJudges(ctx, predictionID, user)
}

// GetJudge returns a single judge record.
func (e *Engine) GetJudge(ctx context.Context, predictionID domain.RowId, user domain.PubKey, access domain.AccessRequest) (*domain.Judge, error) {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return nil, err
	}
	return e.store.GetJudge(ctx, predictionID, user)
}

// GetBets lists bets. Listing across all users requires an Admin/Root
// caller.
func (e *Engine) GetBets(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey, access domain.AccessRequest) ([]domain.Bet, error) {
	if user != nil {
		if err := e.CheckAccessForUser(ctx, *user, access); err != nil {
			return nil, err
		}
	} else {
		role, err := e.CheckAccess(ctx, access)
		if err != nil {
			return nil, err
		}
		if role == domain.RoleUser {
			return nil, domain.ErrForbidden
		}
	}
	return e.store.GetBets(ctx, predictionID, user)
}

// UpdateUser updates a user's display name.
func (e *Engine) UpdateUser(ctx context.Context, user domain.PubKey, name *string, access domain.AccessRequest) error {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return err
	}
	if name == nil {
		return nil
	}
	return e.store.UpdateUsername(ctx, user, *name)
}

// GetUsername returns a user's display name, if set. Unauthenticated.
func (e *Engine) GetUsername(ctx context.Context, user domain.PubKey) (*string, error) {
	return e.store.GetUsername(ctx, user)
}

// GetUser returns a user's full record.
func (e *Engine) GetUser(ctx context.Context, user domain.PubKey, access domain.AccessRequest) (*domain.User, error) {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return nil, err
	}
	return e.store.GetUser(ctx, user)
}
