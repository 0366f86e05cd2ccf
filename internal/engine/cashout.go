package engine

import (
	"context"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
)

// CashOutUser pays out a resolved prediction's owed amount to invoice. If no
// outbound invoice is recorded yet, it records this one and pays. If one is
// already recorded: Created/Failed allows rebinding to a new invoice and
// retrying; PayInit rejects (already in flight); Settled rejects (already
// paid).
func (e *Engine) CashOutUser(ctx context.Context, predictionID domain.RowId, user domain.PubKey, invoice string, access domain.AccessRequest) (domain.Sats, error) {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return 0, err
	}

	state, err := e.store.GetPredictionState(ctx, predictionID)
	if err != nil {
		return 0, err
	}
	if state.Kind != domain.KindResolved {
		return 0, domain.ErrWrongMarketState
	}

	cashOut, err := e.store.GetCashOut(ctx, predictionID, user)
	if err != nil {
		return 0, fmt.Errorf("get cash out: %w", err)
	}
	if cashOut == nil {
		return 0, domain.ErrNoCashOut
	}

	if cashOut.Invoice == nil {
		if err := e.store.SetCashOutInvoice(ctx, predictionID, user, invoice); err != nil {
			return 0, fmt.Errorf("set cash out invoice: %w", err)
		}
		if _, err := e.oracle.Pay(ctx, invoice, cashOut.Amount); err != nil {
			return 0, fmt.Errorf("pay cash out: %w", err)
		}
		return cashOut.Amount, nil
	}

	payState, err := e.oracle.CheckPayment(ctx, *cashOut.Invoice)
	if err != nil {
		return 0, fmt.Errorf("check cash out payment: %w", err)
	}
	switch payState.Kind {
	case domain.PaymentCreated, domain.PaymentFailed:
		if invoice != *cashOut.Invoice {
			if err := e.store.SetCashOutInvoice(ctx, predictionID, user, invoice); err != nil {
				return 0, fmt.Errorf("rebind cash out invoice: %w", err)
			}
			if _, err := e.oracle.Pay(ctx, invoice, cashOut.Amount); err != nil {
				return 0, fmt.Errorf("pay cash out: %w", err)
			}
		} else {
			if _, err := e.oracle.Pay(ctx, *cashOut.Invoice, cashOut.Amount); err != nil {
				return 0, fmt.Errorf("pay cash out: %w", err)
			}
		}
		return cashOut.Amount, nil
	case domain.PaymentPayInit:
		return 0, domain.ErrPaymentAlreadyInFlight
	default: // Settled
		return 0, domain.ErrPaymentAlreadyPaid
	}
}

// GetCashOut returns the owed amount and, if bound, the live payment state
// of the withdrawal invoice.
func (e *Engine) GetCashOut(ctx context.Context, predictionID domain.RowId, user domain.PubKey, access domain.AccessRequest) (*domain.CashOutResponse, error) {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return nil, err
	}
	cashOut, err := e.store.GetCashOut(ctx, predictionID, user)
	if err != nil {
		return nil, fmt.Errorf("get cash out: %w", err)
	}
	if cashOut == nil {
		return nil, domain.ErrNoCashOut
	}
	resp := &domain.CashOutResponse{Amount: cashOut.Amount, Invoice: cashOut.Invoice}
	if cashOut.Invoice != nil {
		state, err := e.oracle.CheckPayment(ctx, *cashOut.Invoice)
		if err != nil {
			return nil, fmt.Errorf("check invoice: %w", err)
		}
		resp.State = &state
	}
	return resp, nil
}

// GetCashOuts lists cash-out rows. Listing across all users requires an
// Admin/Root caller.
func (e *Engine) GetCashOuts(ctx context.Context, predictionID *domain.RowId, user *domain.PubKey, access domain.AccessRequest) ([]domain.CashOut, error) {
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
	return e.store.GetCashOuts(ctx, predictionID, user)
}
