package engine

import (
	"context"
	"time"

	"github.com/evetabi/prediction/internal/metrics"
)

// SweepLazyTransitions drives the clock-driven transitions
// (Trading -> WaitingForDecision, WaitingForDecision -> Refunded) for every
// non-terminal prediction, independent of any caller touching it through
// add_bet/check_bet/make_decision. Intended to be called periodically by a
// background loop (internal/scheduler) so a prediction nobody interacts with
// after trading_end still reaches its terminal state in bounded time.
// Refunded predictions carry no payout map of their own — each bettor
// recovers their stake individually through CancelBet, same as any other
// Refunded reason.
func (e *Engine) SweepLazyTransitions(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	overviews, err := e.store.GetPredictions(ctx)
	if err != nil {
		return err
	}
	for _, o := range overviews {
		if o.State.IsTerminal() {
			continue
		}
		id := o.ID
		err := e.store.WithTx(ctx, id, func(ctx context.Context, tx Store) error {
			_, err := e.advanceLazyTransitions(ctx, tx, id)
			return err
		})
		if err != nil {
			e.log.Error("sweep: advance lazy transitions failed", "prediction_id", id, "err", err)
		}
	}
	return nil
}
