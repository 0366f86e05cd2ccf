package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
)

func createBet(ctx context.Context, db dbtx, predictionID domain.RowId, user domain.PubKey, side bool, invoice string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO bets (fund_invoice, user_pubkey, prediction_id, side, state, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		invoice, user, predictionID, side, string(domain.BetFundInit))
	if err != nil {
		return fmt.Errorf("pgstore.createBet: %w", err)
	}
	return nil
}

func getBet(ctx context.Context, db dbtx, invoice string) (*domain.Bet, error) {
	var b domain.Bet
	err := db.GetContext(ctx, &b, `SELECT * FROM bets WHERE fund_invoice = $1`, invoice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBetNotFound
		}
		return nil, fmt.Errorf("pgstore.getBet: %w", err)
	}
	return &b, nil
}

func settleBet(ctx context.Context, db dbtx, invoice string, amount domain.Sats) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bets SET amount = $1, state = $2 WHERE fund_invoice = $3`,
		amount, string(domain.BetFunded), invoice)
	if err != nil {
		return fmt.Errorf("pgstore.settleBet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}

func initBetRefund(ctx context.Context, db dbtx, invoice string, refundInvoice *string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bets SET state = $1, refund_invoice = $2 WHERE fund_invoice = $3`,
		string(domain.BetRefundInit), refundInvoice, invoice)
	if err != nil {
		return fmt.Errorf("pgstore.initBetRefund: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}

func settleBetRefund(ctx context.Context, db dbtx, invoice string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bets SET state = $1 WHERE fund_invoice = $2`,
		string(domain.BetRefunded), invoice)
	if err != nil {
		return fmt.Errorf("pgstore.settleBetRefund: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}

func getUserPredictionBets(ctx context.Context, db dbtx, predictionID domain.RowId, user domain.PubKey) ([]domain.Bet, error) {
	var bets []domain.Bet
	err := db.SelectContext(ctx, &bets,
		`SELECT * FROM bets WHERE prediction_id = $1 AND user_pubkey = $2 ORDER BY created_at ASC`,
		predictionID, user)
	if err != nil {
		return nil, fmt.Errorf("pgstore.getUserPredictionBets: %w", err)
	}
	return bets, nil
}

func getPredictionBets(ctx context.Context, db dbtx, predictionID domain.RowId, side bool) ([]domain.Bet, error) {
	var bets []domain.Bet
	err := db.SelectContext(ctx, &bets,
		`SELECT * FROM bets WHERE prediction_id = $1 AND side = $2 ORDER BY created_at ASC`,
		predictionID, side)
	if err != nil {
		return nil, fmt.Errorf("pgstore.getPredictionBets: %w", err)
	}
	return bets, nil
}

func getPredictionBetsAggregated(ctx context.Context, db dbtx, predictionID domain.RowId, side bool) (domain.Sats, error) {
	var total domain.Sats
	err := db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0) FROM bets WHERE prediction_id = $1 AND side = $2 AND state = $3`,
		predictionID, side, string(domain.BetFunded))
	if err != nil {
		return 0, fmt.Errorf("pgstore.getPredictionBetsAggregated: %w", err)
	}
	return total, nil
}

func getBets(ctx context.Context, db dbtx, predictionID *domain.RowId, user *domain.PubKey) ([]domain.Bet, error) {
	query := `SELECT * FROM bets WHERE 1=1`
	var args []interface{}
	if predictionID != nil {
		args = append(args, *predictionID)
		query += fmt.Sprintf(" AND prediction_id = $%d", len(args))
	}
	if user != nil {
		args = append(args, *user)
		query += fmt.Sprintf(" AND user_pubkey = $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	var bets []domain.Bet
	if err := db.SelectContext(ctx, &bets, query, args...); err != nil {
		return nil, fmt.Errorf("pgstore.getBets: %w", err)
	}
	return bets, nil
}

// Store method wrappers

func (s *Store) CreateBet(ctx context.Context, predictionID domain.RowId, user domain.PubKey, side bool, invoice string) error {
	return createBet(ctx, s.db, predictionID, user, side, invoice)
}
func (s *Store) GetBet(ctx context.Context, invoice string) (*domain.Bet, error) {
	return getBet(ctx, s.db, invoice)
}
func (s *Store) SettleBet(ctx context.Context, invoice string, amount domain.Sats) error {
	return settleBet(ctx, s.db, invoice, amount)
}
func (s *Store) InitBetRefund(ctx context.Context, invoice string, refundInvoice *string) error {
	return initBetRefund(ctx, s.db, invoice, refundInvoice)
}
func (s *Store) SettleBetRefund(ctx context.Context, invoice string) error {
	return settleBetRefund(ctx, s.db, invoice)
}
func (s *Store) GetUserPredictionBets(ctx context.Context, predictionID domain.RowId, user domain.PubKey) ([]domain.Bet, error) {
	return getUserPredictionBets(ctx, s.db, predictionID, user)
}
func (s *Store) GetPredictionBets(ctx context.Context, predictionID domain.RowId, side bool) ([]domain.Bet, error) {
	return getPredictionBets(ctx, s.db, predictionID, side)
}
func (s *Store) GetPredictionBetsAggregated(ctx context.Context, predictionID domain.RowId, side bool) (domain.Sats, error) {
	return getPredictionBetsAggregated(ctx, s.db, predictionID, side)
}
func (s *Store) GetBets(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.Bet, error) {
	return getBets(ctx, s.db, predictionID, user)
}

// txStore method wrappers

func (t *txStore) CreateBet(ctx context.Context, predictionID domain.RowId, user domain.PubKey, side bool, invoice string) error {
	return createBet(ctx, t.tx, predictionID, user, side, invoice)
}
func (t *txStore) GetBet(ctx context.Context, invoice string) (*domain.Bet, error) {
	return getBet(ctx, t.tx, invoice)
}
func (t *txStore) SettleBet(ctx context.Context, invoice string, amount domain.Sats) error {
	return settleBet(ctx, t.tx, invoice, amount)
}
func (t *txStore) InitBetRefund(ctx context.Context, invoice string, refundInvoice *string) error {
	return initBetRefund(ctx, t.tx, invoice, refundInvoice)
}
func (t *txStore) SettleBetRefund(ctx context.Context, invoice string) error {
	return settleBetRefund(ctx, t.tx, invoice)
}
func (t *txStore) GetUserPredictionBets(ctx context.Context, predictionID domain.RowId, user domain.PubKey) ([]domain.Bet, error) {
	return getUserPredictionBets(ctx, t.tx, predictionID, user)
}
func (t *txStore) GetPredictionBets(ctx context.Context, predictionID domain.RowId, side bool) ([]domain.Bet, error) {
	return getPredictionBets(ctx, t.tx, predictionID, side)
}
func (t *txStore) GetPredictionBetsAggregated(ctx context.Context, predictionID domain.RowId, side bool) (domain.Sats, error) {
	return getPredictionBetsAggregated(ctx, t.tx, predictionID, side)
}
func (t *txStore) GetBets(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.Bet, error) {
	return getBets(ctx, t.tx, predictionID, user)
}
