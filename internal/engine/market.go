package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/metrics"
)

const (
	minTradingWindow  = 2 * 24 * time.Hour
	minDecisionPeriod = 24 * time.Hour
)

// NewPrediction validates and creates a prediction in WaitingForJudges, with
// Nominated judge records for every nominee.
func (e *Engine) NewPrediction(
	ctx context.Context,
	question string,
	judges []domain.PubKey,
	judgeCount uint32,
	judgeSharePpm domain.Ppm,
	tradingEnd time.Time,
	decisionPeriod time.Duration,
) (domain.RowId, error) {
	if uint32(len(judges)) < judgeCount || judgeCount == 0 {
		return 0, fmt.Errorf("%w: %d nominated, need at least %d", domain.ErrNotEnoughJudges, len(judges), judgeCount)
	}
	if judgeSharePpm > domain.MaxPpm {
		return 0, fmt.Errorf("%w: %d", domain.ErrJudgeShareOutOfRange, judgeSharePpm)
	}
	now := e.clock.Now()
	if tradingEnd.Before(now.Add(minTradingWindow)) {
		return 0, fmt.Errorf("%w: trading_end %s is before %s", domain.ErrTradingEndTooEarly, tradingEnd, now.Add(minTradingWindow))
	}
	if decisionPeriod < minDecisionPeriod {
		return 0, fmt.Errorf("%w: %s", domain.ErrDecisionPeriodTooShort, decisionPeriod)
	}

	p := &domain.Prediction{
		Question:       question,
		Judges:         judges,
		JudgeCount:     judgeCount,
		JudgeSharePpm:  judgeSharePpm,
		State:          domain.WaitingForJudges(),
		TradingEnd:     tradingEnd,
		DecisionPeriod: decisionPeriod,
	}
	id, err := e.store.AddPrediction(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("add prediction: %w", err)
	}
	for _, j := range judges {
		if err := e.store.SetJudgeState(ctx, id, j, domain.Nominated()); err != nil {
			return 0, fmt.Errorf("nominate judge %s: %w", j, err)
		}
	}
	e.broadcastPredictionCreated(id, question, tradingEnd)
	return id, nil
}

// AcceptNomination marks a nominated judge Accepted and activates Trading
// once enough judges have accepted.
func (e *Engine) AcceptNomination(ctx context.Context, predictionID domain.RowId, user domain.PubKey, access domain.AccessRequest) error {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return err
	}
	return e.store.WithTx(ctx, predictionID, func(ctx context.Context, tx Store) error {
		state, err := tx.GetPredictionState(ctx, predictionID)
		if err != nil {
			return err
		}
		if state.Kind != domain.KindWaitingForJudges {
			return domain.ErrWrongMarketState
		}
		if err := tx.SetJudgeState(ctx, predictionID, user, domain.Accepted()); err != nil {
			return err
		}
		return e.tryActivateTrading(ctx, tx, predictionID)
	})
}

// RefuseNomination marks a nominated judge Refused. If refusals make it
// impossible to ever reach judge_count Accepted judges, the prediction is
// forced into Refunded(InsufficientJudges) — the resolution this design
// recommends for the "stuck WaitingForJudges" open question.
func (e *Engine) RefuseNomination(ctx context.Context, predictionID domain.RowId, user domain.PubKey, access domain.AccessRequest) error {
	if err := e.CheckAccessForUser(ctx, user, access); err != nil {
		return err
	}
	return e.store.WithTx(ctx, predictionID, func(ctx context.Context, tx Store) error {
		state, err := tx.GetPredictionState(ctx, predictionID)
		if err != nil {
			return err
		}
		if state.Kind != domain.KindWaitingForJudges {
			return domain.ErrWrongMarketState
		}
		if err := tx.SetJudgeState(ctx, predictionID, user, domain.Refused()); err != nil {
			return err
		}
		return e.checkStuckWaitingForJudges(ctx, tx, predictionID)
	})
}

// tryActivateTrading transitions WaitingForJudges -> Trading once the
// number of Accepted judges equals judge_count.
func (e *Engine) tryActivateTrading(ctx context.Context, tx Store, predictionID domain.RowId) error {
	states, err := tx.GetJudgeStates(ctx, predictionID)
	if err != nil {
		return err
	}
	var accepted uint32
	for _, s := range states {
		if s.Kind == domain.JudgeAccepted {
			accepted++
		}
	}
	count, err := tx.GetJudgeCount(ctx, predictionID)
	if err != nil {
		return err
	}
	if accepted == count {
		if err := tx.SetPredictionState(ctx, predictionID, domain.Trading()); err != nil {
			return err
		}
		_ = tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindWaitingForJudges), string(domain.KindTrading), "all nominated judges accepted")
		tradingEnd, err := tx.GetTradingEnd(ctx, predictionID)
		if err != nil {
			return err
		}
		e.broadcastTradingActivated(predictionID, tradingEnd)
	}
	return nil
}

// checkStuckWaitingForJudges forces Refunded(InsufficientJudges) as soon as
// enough judges have refused that Accepted can never reach judge_count.
func (e *Engine) checkStuckWaitingForJudges(ctx context.Context, tx Store, predictionID domain.RowId) error {
	states, err := tx.GetJudgeStates(ctx, predictionID)
	if err != nil {
		return err
	}
	var refused uint32
	for _, s := range states {
		if s.Kind == domain.JudgeRefused {
			refused++
		}
	}
	count, err := tx.GetJudgeCount(ctx, predictionID)
	if err != nil {
		return err
	}
	nominees := uint32(len(states))
	if refused > nominees-count {
		if err := tx.SetPredictionState(ctx, predictionID, domain.Refunded(domain.RefundInsufficientJudges)); err != nil {
			return err
		}
		_ = tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindWaitingForJudges), string(domain.KindRefunded), "insufficient judges remaining")
		metrics.PredictionsRefunded.WithLabelValues(string(domain.RefundInsufficientJudges)).Inc()
		e.broadcastPredictionRefunded(predictionID, domain.RefundInsufficientJudges)
	}
	return nil
}

// advanceLazyTransitions applies the clock-driven transitions
// (Trading -> WaitingForDecision, WaitingForDecision -> Refunded(TimeForDecisionRanOut))
// if due, and returns the resulting (possibly unchanged) state. Every
// operation that touches a prediction's state must call this first — it is
// the one place lazy time-driven advancement happens, so add_bet,
// cancel_bet, make_decision and check_bet all observe the same predicate.
func (e *Engine) advanceLazyTransitions(ctx context.Context, tx Store, predictionID domain.RowId) (domain.MarketState, error) {
	state, err := tx.GetPredictionState(ctx, predictionID)
	if err != nil {
		return domain.MarketState{}, err
	}
	now := e.clock.Now()

	if state.Kind == domain.KindTrading {
		tradingEnd, err := tx.GetTradingEnd(ctx, predictionID)
		if err != nil {
			return domain.MarketState{}, err
		}
		if !now.Before(tradingEnd) {
			next := domain.WaitingForDecision()
			if err := tx.SetPredictionState(ctx, predictionID, next); err != nil {
				return domain.MarketState{}, err
			}
			_ = tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindTrading), string(domain.KindWaitingForDecision), "trading_end reached")
			decisionPeriod, err := tx.GetDecisionPeriod(ctx, predictionID)
			if err != nil {
				return domain.MarketState{}, err
			}
			e.broadcastWaitingDecision(predictionID, tradingEnd.Add(decisionPeriod))
			state = next
		}
	}

	if state.Kind == domain.KindWaitingForDecision {
		tradingEnd, err := tx.GetTradingEnd(ctx, predictionID)
		if err != nil {
			return domain.MarketState{}, err
		}
		decisionPeriod, err := tx.GetDecisionPeriod(ctx, predictionID)
		if err != nil {
			return domain.MarketState{}, err
		}
		deadline := tradingEnd.Add(decisionPeriod)
		if !now.Before(deadline) {
			next := domain.Refunded(domain.RefundTimeForDecisionRanOut)
			if err := tx.SetPredictionState(ctx, predictionID, next); err != nil {
				return domain.MarketState{}, err
			}
			_ = tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindWaitingForDecision), string(domain.KindRefunded), "decision deadline elapsed")
			metrics.PredictionsRefunded.WithLabelValues(string(domain.RefundTimeForDecisionRanOut)).Inc()
			e.broadcastPredictionRefunded(predictionID, domain.RefundTimeForDecisionRanOut)
			state = next
		}
	}

	return state, nil
}

// ForceDecisionPeriod is the admin-only operation that manually cuts
// Trading short, moving straight to WaitingForDecision.
func (e *Engine) ForceDecisionPeriod(ctx context.Context, predictionID domain.RowId, access domain.AccessRequest) error {
	if err := e.requireAdmin(ctx, access); err != nil {
		return err
	}
	return e.store.WithTx(ctx, predictionID, func(ctx context.Context, tx Store) error {
		state, err := tx.GetPredictionState(ctx, predictionID)
		if err != nil {
			return err
		}
		if state.Kind != domain.KindTrading {
			return domain.ErrWrongMarketState
		}
		if err := tx.SetPredictionState(ctx, predictionID, domain.WaitingForDecision()); err != nil {
			return err
		}
		return tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindTrading), string(domain.KindWaitingForDecision), "forced by admin")
	})
}
