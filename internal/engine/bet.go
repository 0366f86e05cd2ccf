package engine

import (
	"context"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/metrics"
)

// AddBet is allowed only in Trading (after the lazy clock check). It mints
// a funding handle via the PaymentOracle and stores a new Bet in FundInit.
// The bet's amount is not fixed here — the caller pays whatever amount they
// choose against the returned invoice.
func (e *Engine) AddBet(ctx context.Context, predictionID domain.RowId, user domain.PubKey, side bool, access domain.AccessRequest) (domain.Payment, error) {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return "", err
	}

	var invoice domain.Payment
	err := e.store.WithTx(ctx, predictionID, func(ctx context.Context, tx Store) error {
		state, err := e.advanceLazyTransitions(ctx, tx, predictionID)
		if err != nil {
			return err
		}
		switch state.Kind {
		case domain.KindTrading:
			// proceed below
		case domain.KindWaitingForDecision:
			return domain.ErrTradingEnded
		default:
			return domain.ErrWrongMarketState
		}

		inv, err := e.oracle.CreatePayment(ctx)
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := tx.CreateBet(ctx, predictionID, user, side, inv); err != nil {
			return fmt.Errorf("create bet: %w", err)
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return "", err
	}
	return invoice, nil
}

// CheckBet reconciles a bet with the PaymentOracle. It observes the
// prediction's state only after any lazy time-driven transition has been
// applied — essential, since a payment that arrives after trading ends
// must not count (SPEC_FULL.md §4.2 "Ordering note").
func (e *Engine) CheckBet(ctx context.Context, invoice string, access domain.AccessRequest) (domain.BetKind, error) {
	bet, err := e.store.GetBet(ctx, invoice)
	if err != nil {
		return "", fmt.Errorf("get bet: %w", err)
	}
	if err := e.CheckAccessForUser(ctx, bet.User, access); err != nil {
		return "", err
	}

	var result domain.BetKind
	err = e.store.WithTx(ctx, bet.PredictionID, func(ctx context.Context, tx Store) error {
		bet, err := tx.GetBet(ctx, invoice)
		if err != nil {
			return err
		}
		switch bet.State {
		case domain.BetFundInit:
			paymentState, err := e.oracle.CheckPayment(ctx, invoice)
			if err != nil {
				return fmt.Errorf("check payment: %w", err)
			}
			if paymentState.Kind != domain.PaymentSettled {
				result = domain.BetFundInit
				return nil
			}
			if *paymentState.Amount == 0 {
				return domain.ErrZeroSettlement
			}
			marketState, err := e.advanceLazyTransitions(ctx, tx, bet.PredictionID)
			if err != nil {
				return err
			}
			if marketState.Kind == domain.KindTrading {
				if err := tx.SettleBet(ctx, invoice, *paymentState.Amount); err != nil {
					return err
				}
				result = domain.BetFunded
				metrics.BetsPlaced.WithLabelValues(metrics.SideLabel(bet.Side)).Inc()
				e.broadcastBetPlaced(bet.PredictionID, bet.Side, *paymentState.Amount)
			} else {
				if err := tx.InitBetRefund(ctx, invoice, nil); err != nil {
					return err
				}
				result = domain.BetRefundInit
			}
			return nil

		case domain.BetRefundInit:
			if bet.RefundInvoice == nil {
				result = domain.BetRefundInit
				return nil
			}
			refundState, err := e.oracle.CheckPayment(ctx, *bet.RefundInvoice)
			if err != nil {
				return fmt.Errorf("check refund payment: %w", err)
			}
			switch refundState.Kind {
			case domain.PaymentSettled:
				if err := tx.SettleBetRefund(ctx, invoice); err != nil {
					return err
				}
				result = domain.BetRefunded
			case domain.PaymentFailed:
				if err := tx.InitBetRefund(ctx, invoice, nil); err != nil {
					return err
				}
				result = domain.BetRefundInit
			default:
				result = domain.BetRefundInit
			}
			return nil

		default:
			result = bet.State
			return nil
		}
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// CancelBet is idempotent refund initiation. A Funded bet moves to
// RefundInit and orders payout of amount to refund_invoice. A RefundInit
// bet with no refund_invoice yet attaches one and pays it. A RefundInit bet
// that already has a refund_invoice is a no-op whichever refund_invoice is
// passed, and returns BetRefundInit (the reference
// implementation leaves this path unimplemented; this design requires it to
// be idempotent rather than erroring — see DESIGN.md).
func (e *Engine) CancelBet(ctx context.Context, invoice, refundInvoice string, access domain.AccessRequest) (domain.BetKind, error) {
	bet, err := e.store.GetBet(ctx, invoice)
	if err != nil {
		return "", fmt.Errorf("get bet: %w", err)
	}
	if err := e.CheckAccessForUser(ctx, bet.User, access); err != nil {
		return "", err
	}

	state, err := e.CheckBet(ctx, invoice, access)
	if err != nil {
		return "", err
	}

	var result domain.BetKind
	err = e.store.WithTx(ctx, bet.PredictionID, func(ctx context.Context, tx Store) error {
		bet, err := tx.GetBet(ctx, invoice)
		if err != nil {
			return err
		}
		marketState, err := tx.GetPredictionState(ctx, bet.PredictionID)
		if err != nil {
			return err
		}

		switch state {
		case domain.BetFunded:
			switch marketState.Kind {
			case domain.KindTrading:
				advanced, err := e.advanceLazyTransitions(ctx, tx, bet.PredictionID)
				if err != nil {
					return err
				}
				if advanced.Kind != domain.KindTrading {
					return domain.ErrWrongMarketState
				}
			case domain.KindRefunded:
				// allowed irrespective of side
			default:
				return domain.ErrWrongMarketState
			}
			if err := tx.InitBetRefund(ctx, invoice, &refundInvoice); err != nil {
				return err
			}
			if _, err := e.oracle.Pay(ctx, refundInvoice, *bet.Amount); err != nil {
				return fmt.Errorf("pay refund: %w", err)
			}
			result = domain.BetRefundInit
			return nil

		case domain.BetRefundInit:
			if bet.RefundInvoice == nil {
				if err := tx.InitBetRefund(ctx, invoice, &refundInvoice); err != nil {
					return err
				}
				if _, err := e.oracle.Pay(ctx, refundInvoice, *bet.Amount); err != nil {
					return fmt.Errorf("pay refund: %w", err)
				}
				result = domain.BetRefundInit
				return nil
			}
			// Idempotent no-op: same refund already in flight or settled.
			result = domain.BetRefundInit
			return nil

		default:
			result = state
			return nil
		}
	})
	if err != nil {
		return "", err
	}
	return result, nil
}
