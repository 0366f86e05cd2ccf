package engine

import (
	"time"

	"github.com/evetabi/prediction/internal/domain"
)

// Broadcaster pushes prediction lifecycle events to connected clients. It is
// satisfied by an adapter over *ws.Hub; declared here so the engine package
// never imports ws and avoids a circular dependency, the same reasoning the
// teacher's scheduler.WsHub interface uses for its own hub dependency.
type Broadcaster interface {
	BroadcastPredictionCreated(predictionID domain.RowId, question string, tradingEnd time.Time)
	BroadcastTradingActivated(predictionID domain.RowId, tradingEnd time.Time)
	BroadcastBetPlaced(predictionID domain.RowId, side bool, amount domain.Sats)
	BroadcastWaitingDecision(predictionID domain.RowId, deadline time.Time)
	BroadcastPredictionResolved(predictionID domain.RowId, outcome bool)
	BroadcastPredictionRefunded(predictionID domain.RowId, reason domain.RefundReason)
}

// WithBroadcaster wires a Broadcaster into the Engine. Without one, every
// broadcast call below is a silent no-op — useful for tests and for the
// backoffice binary, which has no WS hub of its own.
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Engine) { e.broadcaster = b }
}

func (e *Engine) broadcastPredictionCreated(predictionID domain.RowId, question string, tradingEnd time.Time) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastPredictionCreated(predictionID, question, tradingEnd)
	}
}

func (e *Engine) broadcastTradingActivated(predictionID domain.RowId, tradingEnd time.Time) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastTradingActivated(predictionID, tradingEnd)
	}
}

func (e *Engine) broadcastBetPlaced(predictionID domain.RowId, side bool, amount domain.Sats) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastBetPlaced(predictionID, side, amount)
	}
}

func (e *Engine) broadcastWaitingDecision(predictionID domain.RowId, deadline time.Time) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastWaitingDecision(predictionID, deadline)
	}
}

func (e *Engine) broadcastPredictionResolved(predictionID domain.RowId, outcome bool) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastPredictionResolved(predictionID, outcome)
	}
}

func (e *Engine) broadcastPredictionRefunded(predictionID domain.RowId, reason domain.RefundReason) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastPredictionRefunded(predictionID, reason)
	}
}
