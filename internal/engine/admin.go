package engine

import (
	"context"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
)

// PayBet is the admin-only escape hatch for manually pushing a payment
// through the oracle and immediately reconciling the affected bet.
func (e *Engine) PayBet(ctx context.Context, invoice string, amount domain.Sats, access domain.AccessRequest) error {
	if err := e.requireAdmin(ctx, access); err != nil {
		return err
	}
	if _, err := e.oracle.Pay(ctx, invoice, amount); err != nil {
		return fmt.Errorf("pay: %w", err)
	}
	_, err := e.CheckBet(ctx, invoice, access)
	return err
}
