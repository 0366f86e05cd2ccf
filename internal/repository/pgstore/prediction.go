package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evetabi/prediction/internal/domain"
)

type predictionRow struct {
	ID             domain.RowId  `db:"id"`
	Question       string        `db:"question"`
	JudgeCount     uint32        `db:"judge_count"`
	JudgeSharePpm  domain.Ppm    `db:"judge_share_ppm"`
	StateKind      string        `db:"state_kind"`
	Outcome        *bool         `db:"outcome"`
	Reason         *string       `db:"reason"`
	TradingEnd     time.Time     `db:"trading_end"`
	DecisionPeriod time.Duration `db:"decision_period"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

func stateToRow(s domain.MarketState) (string, *bool, *string) {
	if s.Reason != nil {
		r := string(*s.Reason)
		return string(s.Kind), nil, &r
	}
	return string(s.Kind), s.Outcome, nil
}

func rowToState(r predictionRow) domain.MarketState {
	switch domain.MarketKind(r.StateKind) {
	case domain.KindResolved:
		return domain.Resolved(*r.Outcome)
	case domain.KindRefunded:
		return domain.Refunded(domain.RefundReason(*r.Reason))
	default:
		return domain.MarketState{Kind: domain.MarketKind(r.StateKind)}
	}
}

func addPrediction(ctx context.Context, db dbtx, p *domain.Prediction) (domain.RowId, error) {
	kind, outcome, reason := stateToRow(p.State)
	var id domain.RowId
	query := `
		INSERT INTO predictions
			(question, judge_count, judge_share_ppm, state_kind, outcome, reason, trading_end, decision_period, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id`
	if err := db.GetContext(ctx, &id, query,
		p.Question, p.JudgeCount, p.JudgeSharePpm, kind, outcome, reason, p.TradingEnd, p.DecisionPeriod); err != nil {
		return 0, fmt.Errorf("pgstore.addPrediction: %w", err)
	}
	return id, nil
}

func getPredictionState(ctx context.Context, db dbtx, id domain.RowId) (domain.MarketState, error) {
	var r predictionRow
	err := db.GetContext(ctx, &r, `SELECT state_kind, outcome, reason FROM predictions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MarketState{}, domain.ErrPredictionNotFound
		}
		return domain.MarketState{}, fmt.Errorf("pgstore.getPredictionState: %w", err)
	}
	return rowToState(r), nil
}

func setPredictionState(ctx context.Context, db dbtx, id domain.RowId, s domain.MarketState) error {
	kind, outcome, reason := stateToRow(s)
	res, err := db.ExecContext(ctx,
		`UPDATE predictions SET state_kind = $1, outcome = $2, reason = $3, updated_at = now() WHERE id = $4`,
		kind, outcome, reason, id)
	if err != nil {
		return fmt.Errorf("pgstore.setPredictionState: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPredictionNotFound
	}
	return nil
}

func getTradingEnd(ctx context.Context, db dbtx, id domain.RowId) (time.Time, error) {
	var t time.Time
	err := db.GetContext(ctx, &t, `SELECT trading_end FROM predictions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrPredictionNotFound
		}
		return time.Time{}, fmt.Errorf("pgstore.getTradingEnd: %w", err)
	}
	return t, nil
}

func getDecisionPeriod(ctx context.Context, db dbtx, id domain.RowId) (time.Duration, error) {
	var d time.Duration
	err := db.GetContext(ctx, &d, `SELECT decision_period FROM predictions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrPredictionNotFound
		}
		return 0, fmt.Errorf("pgstore.getDecisionPeriod: %w", err)
	}
	return d, nil
}

func getJudgeSharePpm(ctx context.Context, db dbtx, id domain.RowId) (domain.Ppm, error) {
	var p domain.Ppm
	err := db.GetContext(ctx, &p, `SELECT judge_share_ppm FROM predictions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrPredictionNotFound
		}
		return 0, fmt.Errorf("pgstore.getJudgeSharePpm: %w", err)
	}
	return p, nil
}

func getJudgeCountCol(ctx context.Context, db dbtx, id domain.RowId) (uint32, error) {
	var c uint32
	err := db.GetContext(ctx, &c, `SELECT judge_count FROM predictions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrPredictionNotFound
		}
		return 0, fmt.Errorf("pgstore.getJudgeCountCol: %w", err)
	}
	return c, nil
}

func getPrediction(ctx context.Context, db dbtx, id domain.RowId) (*domain.Prediction, error) {
	var r predictionRow
	err := db.GetContext(ctx, &r, `SELECT * FROM predictions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPredictionNotFound
		}
		return nil, fmt.Errorf("pgstore.getPrediction: %w", err)
	}
	var judges []domain.PubKey
	if err := db.SelectContext(ctx, &judges,
		`SELECT user_pubkey FROM judges WHERE prediction_id = $1 ORDER BY seq`, id); err != nil {
		return nil, fmt.Errorf("pgstore.getPrediction judges: %w", err)
	}
	return &domain.Prediction{
		ID:             r.ID,
		Question:       r.Question,
		Judges:         judges,
		JudgeCount:     r.JudgeCount,
		JudgeSharePpm:  r.JudgeSharePpm,
		State:          rowToState(r),
		TradingEnd:     r.TradingEnd,
		DecisionPeriod: r.DecisionPeriod,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

func overviewQuery(ctx context.Context, db dbtx, where string, args ...interface{}) ([]domain.PredictionOverview, error) {
	var rows []predictionRow
	if err := db.SelectContext(ctx, &rows, `SELECT * FROM predictions `+where+` ORDER BY created_at DESC`, args...); err != nil {
		return nil, fmt.Errorf("pgstore.overviewQuery predictions: %w", err)
	}
	overviews := make([]domain.PredictionOverview, 0, len(rows))
	for _, r := range rows {
		trueAmt, falseAmt, err := sideTotals(ctx, db, r.ID)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, domain.PredictionOverview{
			ID:            r.ID,
			Question:      r.Question,
			State:         rowToState(r),
			TradingEnd:    r.TradingEnd,
			TrueAmount:    trueAmt,
			FalseAmount:   falseAmt,
			JudgeCount:    r.JudgeCount,
			JudgeSharePpm: r.JudgeSharePpm,
		})
	}
	return overviews, nil
}

func sideTotals(ctx context.Context, db dbtx, id domain.RowId) (domain.Sats, domain.Sats, error) {
	var trueAmt, falseAmt domain.Sats
	err := db.GetContext(ctx, &trueAmt,
		`SELECT COALESCE(SUM(amount), 0) FROM bets WHERE prediction_id = $1 AND side = true AND state = $2`,
		id, string(domain.BetFunded))
	if err != nil {
		return 0, 0, fmt.Errorf("pgstore.sideTotals true: %w", err)
	}
	err = db.GetContext(ctx, &falseAmt,
		`SELECT COALESCE(SUM(amount), 0) FROM bets WHERE prediction_id = $1 AND side = false AND state = $2`,
		id, string(domain.BetFunded))
	if err != nil {
		return 0, 0, fmt.Errorf("pgstore.sideTotals false: %w", err)
	}
	return trueAmt, falseAmt, nil
}

func getPredictions(ctx context.Context, db dbtx) ([]domain.PredictionOverview, error) {
	return overviewQuery(ctx, db, "")
}

func getPredictionOverview(ctx context.Context, db dbtx, id domain.RowId) (*domain.PredictionOverview, error) {
	overviews, err := overviewQuery(ctx, db, "WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(overviews) == 0 {
		return nil, domain.ErrPredictionNotFound
	}
	return &overviews[0], nil
}

func getPredictionRatio(ctx context.Context, db dbtx, id domain.RowId) (domain.PredictionRatio, error) {
	trueAmt, falseAmt, err := sideTotals(ctx, db, id)
	if err != nil {
		return domain.PredictionRatio{}, err
	}
	return domain.PredictionRatio{TrueAmount: trueAmt, FalseAmount: falseAmt}, nil
}

// Store method wrappers

func (s *Store) AddPrediction(ctx context.Context, p *domain.Prediction) (domain.RowId, error) {
	return addPrediction(ctx, s.db, p)
}
func (s *Store) GetPredictionState(ctx context.Context, id domain.RowId) (domain.MarketState, error) {
	return getPredictionState(ctx, s.db, id)
}
func (s *Store) SetPredictionState(ctx context.Context, id domain.RowId, st domain.MarketState) error {
	return setPredictionState(ctx, s.db, id, st)
}
func (s *Store) GetTradingEnd(ctx context.Context, id domain.RowId) (time.Time, error) {
	return getTradingEnd(ctx, s.db, id)
}
func (s *Store) GetDecisionPeriod(ctx context.Context, id domain.RowId) (time.Duration, error) {
	return getDecisionPeriod(ctx, s.db, id)
}
func (s *Store) GetJudgeSharePpm(ctx context.Context, id domain.RowId) (domain.Ppm, error) {
	return getJudgeSharePpm(ctx, s.db, id)
}
func (s *Store) GetJudgeCount(ctx context.Context, id domain.RowId) (uint32, error) {
	return getJudgeCountCol(ctx, s.db, id)
}
func (s *Store) GetPrediction(ctx context.Context, id domain.RowId) (*domain.Prediction, error) {
	return getPrediction(ctx, s.db, id)
}
func (s *Store) GetPredictions(ctx context.Context) ([]domain.PredictionOverview, error) {
	return getPredictions(ctx, s.db)
}
func (s *Store) GetPredictionOverview(ctx context.Context, id domain.RowId) (*domain.PredictionOverview, error) {
	return getPredictionOverview(ctx, s.db, id)
}
func (s *Store) GetPredictionRatio(ctx context.Context, id domain.RowId) (domain.PredictionRatio, error) {
	return getPredictionRatio(ctx, s.db, id)
}

// txStore method wrappers

func (t *txStore) AddPrediction(ctx context.Context, p *domain.Prediction) (domain.RowId, error) {
	return addPrediction(ctx, t.tx, p)
}
func (t *txStore) GetPredictionState(ctx context.Context, id domain.RowId) (domain.MarketState, error) {
	return getPredictionState(ctx, t.tx, id)
}
func (t *txStore) SetPredictionState(ctx context.Context, id domain.RowId, st domain.MarketState) error {
	return setPredictionState(ctx, t.tx, id, st)
}
func (t *txStore) GetTradingEnd(ctx context.Context, id domain.RowId) (time.Time, error) {
	return getTradingEnd(ctx, t.tx, id)
}
func (t *txStore) GetDecisionPeriod(ctx context.Context, id domain.RowId) (time.Duration, error) {
	return getDecisionPeriod(ctx, t.tx, id)
}
func (t *txStore) GetJudgeSharePpm(ctx context.Context, id domain.RowId) (domain.Ppm, error) {
	return getJudgeSharePpm(ctx, t.tx, id)
}
func (t *txStore) GetJudgeCount(ctx context.Context, id domain.RowId) (uint32, error) {
	return getJudgeCountCol(ctx, t.tx, id)
}
func (t *txStore) GetPrediction(ctx context.Context, id domain.RowId) (*domain.Prediction, error) {
	return getPrediction(ctx, t.tx, id)
}
func (t *txStore) GetPredictions(ctx context.Context) ([]domain.PredictionOverview, error) {
	return getPredictions(ctx, t.tx)
}
func (t *txStore) GetPredictionOverview(ctx context.Context, id domain.RowId) (*domain.PredictionOverview, error) {
	return getPredictionOverview(ctx, t.tx, id)
}
func (t *txStore) GetPredictionRatio(ctx context.Context, id domain.RowId) (domain.PredictionRatio, error) {
	return getPredictionRatio(ctx, t.tx, id)
}
