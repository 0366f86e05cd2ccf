package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/metrics"
)

// MakeDecision records an Accepted judge's vote and, once every accepted
// judge has voted, triggers resolution.
func (e *Engine) MakeDecision(ctx context.Context, predictionID domain.RowId, judge domain.PubKey, decision bool, access domain.AccessRequest) error {
	if err := e.CheckAccessForUser(ctx, judge, access); err != nil {
		return err
	}
	// ErrWrongMarketState and ErrTie are returned after the transaction has
	// committed, so a lazy refund or a tie refund made inside it is kept.
	var rejected error
	err := e.store.WithTx(ctx, predictionID, func(ctx context.Context, tx Store) error {
		state, err := e.advanceLazyTransitions(ctx, tx, predictionID)
		if err != nil {
			return err
		}
		if state.Kind != domain.KindWaitingForDecision {
			rejected = domain.ErrWrongMarketState
			return nil
		}

		judgeState, err := tx.GetJudgeState(ctx, predictionID, judge)
		if err != nil {
			return err
		}
		if judgeState.Kind == domain.JudgeNominated || judgeState.Kind == domain.JudgeRefused {
			return domain.ErrWrongJudgeState
		}

		if err := tx.SetJudgeState(ctx, predictionID, judge, domain.JudgeDecided(decision)); err != nil {
			return err
		}
		err = e.tryResolve(ctx, tx, predictionID)
		if errors.Is(err, domain.ErrTie) {
			rejected = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return rejected
}

// tryResolve tallies votes once every Accepted judge has a Resolved state.
// Strictly-more true wins; strictly-more false wins; a tie refunds.
func (e *Engine) tryResolve(ctx context.Context, tx Store, predictionID domain.RowId) error {
	states, err := tx.GetJudgeStates(ctx, predictionID)
	if err != nil {
		return err
	}
	var trueCount, falseCount int
	for _, s := range states {
		switch s.Kind {
		case domain.JudgeAccepted:
			// Still waiting on this judge's vote.
			return nil
		case domain.JudgeResolved:
			if *s.Decision {
				trueCount++
			} else {
				falseCount++
			}
		}
	}

	var outcome domain.MarketState
	switch {
	case trueCount > falseCount:
		outcome = domain.Resolved(true)
	case falseCount > trueCount:
		outcome = domain.Resolved(false)
	default:
		if err := tx.SetPredictionState(ctx, predictionID, domain.Refunded(domain.RefundTie)); err != nil {
			return err
		}
		_ = tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindWaitingForDecision), string(domain.KindRefunded), "decision tie")
		metrics.PredictionsRefunded.WithLabelValues(string(domain.RefundTie)).Inc()
		e.broadcastPredictionRefunded(predictionID, domain.RefundTie)
		return domain.ErrTie
	}

	if err := tx.SetPredictionState(ctx, predictionID, outcome); err != nil {
		return err
	}
	_ = tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindWaitingForDecision), string(domain.KindResolved), "vote tally")
	metrics.PredictionsResolved.WithLabelValues(metrics.SideLabel(*outcome.Outcome)).Inc()
	e.broadcastPredictionResolved(predictionID, *outcome.Outcome)

	cashOuts, err := e.calculateCashOut(ctx, tx, predictionID, *outcome.Outcome)
	if errors.Is(err, domain.ErrInsolvency) {
		// calculateCashOut has already forced Refunded(Insolvency) and logged it.
		return nil
	}
	if err != nil {
		return err
	}
	if len(cashOuts) == 0 {
		return nil
	}
	return tx.SetCashOut(ctx, predictionID, cashOuts)
}

// calculateCashOut computes the per-user payout map after a prediction
// resolves. The two truncations in PayoutMath are independent; see
// domain.CalculateUserCashOut / domain.CalculateJudgeCashOut.
func (e *Engine) calculateCashOut(ctx context.Context, tx Store, predictionID domain.RowId, outcome bool) (map[domain.PubKey]domain.Sats, error) {
	bets, err := tx.GetPredictionBets(ctx, predictionID, outcome)
	if err != nil {
		return nil, fmt.Errorf("get winning bets: %w", err)
	}
	outcomeAmount, err := tx.GetPredictionBetsAggregated(ctx, predictionID, outcome)
	if err != nil {
		return nil, fmt.Errorf("aggregate winning bets: %w", err)
	}
	nonOutcomeAmount, err := tx.GetPredictionBetsAggregated(ctx, predictionID, !outcome)
	if err != nil {
		return nil, fmt.Errorf("aggregate losing bets: %w", err)
	}
	judgeSharePpm, err := tx.GetJudgeSharePpm(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	cashOuts := make(map[domain.PubKey]domain.Sats)
	var userTotal domain.Sats
	for _, b := range bets {
		if b.State != domain.BetFunded || b.Amount == nil {
			continue
		}
		payout := domain.CalculateUserCashOut(*b.Amount, outcomeAmount, nonOutcomeAmount, judgeSharePpm)
		if payout == 0 {
			continue
		}
		userTotal += payout
		cashOuts[b.User] += payout
	}

	judgeStates, err := tx.GetJudgeStates(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	var outcomeJudges uint32
	for _, s := range judgeStates {
		if s.Kind == domain.JudgeResolved && *s.Decision == outcome {
			outcomeJudges++
		}
	}

	judges, err := tx.GetPredictionJudges(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	var judgeTotal domain.Sats
	for _, j := range judges {
		if j.State.Kind != domain.JudgeResolved || *j.State.Decision != outcome {
			continue
		}
		payout := domain.CalculateJudgeCashOut(outcomeJudges, outcomeAmount, nonOutcomeAmount, judgeSharePpm)
		if payout == 0 {
			continue
		}
		judgeTotal += payout
		cashOuts[j.User] += payout // judge-user overlap sums into a single row
	}

	total := outcomeAmount + nonOutcomeAmount
	if userTotal+judgeTotal > total {
		if err := tx.SetPredictionState(ctx, predictionID, domain.Refunded(domain.RefundInsolvency)); err != nil {
			return nil, err
		}
		e.log.Error("cash out calculation made prediction insolvent, forcing refund",
			"prediction_id", predictionID,
			"user_total", userTotal,
			"judge_total", judgeTotal,
			"pool_total", total,
		)
		_ = tx.LogTransition(ctx, predictionID, "prediction", string(domain.KindResolved), string(domain.KindRefunded), "insolvency guard")
		metrics.PredictionsRefunded.WithLabelValues(string(domain.RefundInsolvency)).Inc()
		e.broadcastPredictionRefunded(predictionID, domain.RefundInsolvency)
		return nil, domain.ErrInsolvency
	}

	return cashOuts, nil
}
