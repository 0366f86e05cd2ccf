package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
)

type judgeRow struct {
	PredictionID domain.RowId  `db:"prediction_id"`
	User         domain.PubKey `db:"user_pubkey"`
	Kind         string        `db:"kind"`
	Decision     *bool         `db:"decision"`
}

func rowToJudgeState(r judgeRow) domain.JudgeState {
	if r.Kind == string(domain.JudgeResolved) {
		return domain.JudgeDecided(*r.Decision)
	}
	return domain.JudgeState{Kind: domain.JudgeKind(r.Kind)}
}

func getJudgeState(ctx context.Context, db dbtx, id domain.RowId, user domain.PubKey) (domain.JudgeState, error) {
	var r judgeRow
	err := db.GetContext(ctx, &r,
		`SELECT prediction_id, user_pubkey, kind, decision FROM judges WHERE prediction_id = $1 AND user_pubkey = $2`,
		id, user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JudgeState{}, domain.ErrJudgeNotFound
		}
		return domain.JudgeState{}, fmt.Errorf("pgstore.getJudgeState: %w", err)
	}
	return rowToJudgeState(r), nil
}

func setJudgeState(ctx context.Context, db dbtx, id domain.RowId, user domain.PubKey, s domain.JudgeState) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO judges (prediction_id, user_pubkey, kind, decision)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (prediction_id, user_pubkey)
		DO UPDATE SET kind = EXCLUDED.kind, decision = EXCLUDED.decision`,
		id, user, string(s.Kind), s.Decision)
	if err != nil {
		return fmt.Errorf("pgstore.setJudgeState: %w", err)
	}
	return nil
}

func getJudgeStates(ctx context.Context, db dbtx, id domain.RowId) ([]domain.JudgeState, error) {
	var rows []judgeRow
	if err := db.SelectContext(ctx, &rows,
		`SELECT prediction_id, user_pubkey, kind, decision FROM judges WHERE prediction_id = $1 ORDER BY seq`, id); err != nil {
		return nil, fmt.Errorf("pgstore.getJudgeStates: %w", err)
	}
	states := make([]domain.JudgeState, len(rows))
	for i, r := range rows {
		states[i] = rowToJudgeState(r)
	}
	return states, nil
}

func getJudges(ctx context.Context, db dbtx, predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error) {
	query := `SELECT prediction_id, user_pubkey, kind, decision FROM judges WHERE 1=1`
	var args []interface{}
	if predictionID != nil {
		args = append(args, *predictionID)
		query += fmt.Sprintf(" AND prediction_id = $%d", len(args))
	}
	if user != nil {
		args = append(args, *user)
		query += fmt.Sprintf(" AND user_pubkey = $%d", len(args))
	}
	query += " ORDER BY prediction_id, seq"

	var rows []judgeRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("pgstore.getJudges: %w", err)
	}
	out := make([]domain.JudgePublic, len(rows))
	for i, r := range rows {
		out[i] = domain.JudgePublic{PredictionID: r.PredictionID, User: r.User, State: rowToJudgeState(r)}
	}
	return out, nil
}

func getJudge(ctx context.Context, db dbtx, id domain.RowId, user domain.PubKey) (*domain.Judge, error) {
	st, err := getJudgeState(ctx, db, id, user)
	if err != nil {
		return nil, err
	}
	return &domain.Judge{PredictionID: id, User: user, State: st}, nil
}

func getPredictionJudges(ctx context.Context, db dbtx, id domain.RowId) ([]domain.Judge, error) {
	var rows []judgeRow
	if err := db.SelectContext(ctx, &rows,
		`SELECT prediction_id, user_pubkey, kind, decision FROM judges WHERE prediction_id = $1 ORDER BY seq`, id); err != nil {
		return nil, fmt.Errorf("pgstore.getPredictionJudges: %w", err)
	}
	out := make([]domain.Judge, len(rows))
	for i, r := range rows {
		out[i] = domain.Judge{PredictionID: r.PredictionID, User: r.User, State: rowToJudgeState(r)}
	}
	return out, nil
}

// Store method wrappers

func (s *Store) GetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey) (domain.JudgeState, error) {
	return getJudgeState(ctx, s.db, id, user)
}
func (s *Store) SetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey, st domain.JudgeState) error {
	return setJudgeState(ctx, s.db, id, user, st)
}
func (s *Store) GetJudgeStates(ctx context.Context, id domain.RowId) ([]domain.JudgeState, error) {
	return getJudgeStates(ctx, s.db, id)
}
func (s *Store) GetJudges(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error) {
	return getJudges(ctx, s.db, predictionID, user)
}
func (s *Store) GetJudge(ctx context.Context, id domain.RowId, user domain.PubKey) (*domain.Judge, error) {
	return getJudge(ctx, s.db, id, user)
}
func (s *Store) GetPredictionJudges(ctx context.Context, id domain.RowId) ([]domain.Judge, error) {
	return getPredictionJudges(ctx, s.db, id)
}

// txStore method wrappers

func (t *txStore) GetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey) (domain.JudgeState, error) {
	return getJudgeState(ctx, t.tx, id, user)
}
func (t *txStore) SetJudgeState(ctx context.Context, id domain.RowId, user domain.PubKey, st domain.JudgeState) error {
	return setJudgeState(ctx, t.tx, id, user, st)
}
func (t *txStore) GetJudgeStates(ctx context.Context, id domain.RowId) ([]domain.JudgeState, error) {
	return getJudgeStates(ctx, t.tx, id)
}
func (t *txStore) GetJudges(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.JudgePublic, error) {
	return getJudges(ctx, t.tx, predictionID, user)
}
func (t *txStore) GetJudge(ctx context.Context, id domain.RowId, user domain.PubKey) (*domain.Judge, error) {
	return getJudge(ctx, t.tx, id, user)
}
func (t *txStore) GetPredictionJudges(ctx context.Context, id domain.RowId) ([]domain.Judge, error) {
	return getPredictionJudges(ctx, t.tx, id)
}
