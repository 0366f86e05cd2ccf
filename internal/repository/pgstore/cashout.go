package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
)

func setCashOut(ctx context.Context, db dbtx, predictionID domain.RowId, amounts map[domain.PubKey]domain.Sats) error {
	for user, amount := range amounts {
		_, err := db.ExecContext(ctx, `
			INSERT INTO cash_outs (prediction_id, user_pubkey, amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (prediction_id, user_pubkey)
			DO UPDATE SET amount = cash_outs.amount + EXCLUDED.amount`,
			predictionID, user, amount)
		if err != nil {
			return fmt.Errorf("pgstore.setCashOut: %w", err)
		}
	}
	return nil
}

func setCashOutInvoice(ctx context.Context, db dbtx, predictionID domain.RowId, user domain.PubKey, invoice string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE cash_outs SET invoice = $1 WHERE prediction_id = $2 AND user_pubkey = $3`,
		invoice, predictionID, user)
	if err != nil {
		return fmt.Errorf("pgstore.setCashOutInvoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoCashOut
	}
	return nil
}

func getCashOut(ctx context.Context, db dbtx, predictionID domain.RowId, user domain.PubKey) (*domain.CashOut, error) {
	var c domain.CashOut
	err := db.GetContext(ctx, &c,
		`SELECT * FROM cash_outs WHERE prediction_id = $1 AND user_pubkey = $2`, predictionID, user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoCashOut
		}
		return nil, fmt.Errorf("pgstore.getCashOut: %w", err)
	}
	return &c, nil
}

func getCashOuts(ctx context.Context, db dbtx, predictionID *domain.RowId, user *domain.PubKey) ([]domain.CashOut, error) {
	query := `SELECT * FROM cash_outs WHERE 1=1`
	var args []interface{}
	if predictionID != nil {
		args = append(args, *predictionID)
		query += fmt.Sprintf(" AND prediction_id = $%d", len(args))
	}
	if user != nil {
		args = append(args, *user)
		query += fmt.Sprintf(" AND user_pubkey = $%d", len(args))
	}
	query += " ORDER BY prediction_id"

	var cashOuts []domain.CashOut
	if err := db.SelectContext(ctx, &cashOuts, query, args...); err != nil {
		return nil, fmt.Errorf("pgstore.getCashOuts: %w", err)
	}
	return cashOuts, nil
}

// Store method wrappers

func (s *Store) SetCashOut(ctx context.Context, predictionID domain.RowId, amounts map[domain.PubKey]domain.Sats) error {
	return setCashOut(ctx, s.db, predictionID, amounts)
}
func (s *Store) SetCashOutInvoice(ctx context.Context, predictionID domain.RowId, user domain.PubKey, invoice string) error {
	return setCashOutInvoice(ctx, s.db, predictionID, user, invoice)
}
func (s *Store) GetCashOut(ctx context.Context, predictionID domain.RowId, user domain.PubKey) (*domain.CashOut, error) {
	return getCashOut(ctx, s.db, predictionID, user)
}
func (s *Store) GetCashOuts(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.CashOut, error) {
	return getCashOuts(ctx, s.db, predictionID, user)
}

// txStore method wrappers

func (t *txStore) SetCashOut(ctx context.Context, predictionID domain.RowId, amounts map[domain.PubKey]domain.Sats) error {
	return setCashOut(ctx, t.tx, predictionID, amounts)
}
func (t *txStore) SetCashOutInvoice(ctx context.Context, predictionID domain.RowId, user domain.PubKey, invoice string) error {
	return setCashOutInvoice(ctx, t.tx, predictionID, user, invoice)
}
func (t *txStore) GetCashOut(ctx context.Context, predictionID domain.RowId, user domain.PubKey) (*domain.CashOut, error) {
	return getCashOut(ctx, t.tx, predictionID, user)
}
func (t *txStore) GetCashOuts(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey) ([]domain.CashOut, error) {
	return getCashOuts(ctx, t.tx, predictionID, user)
}
