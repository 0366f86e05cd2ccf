package ws

import (
	"time"

	"github.com/evetabi/prediction/internal/domain"
)

// EngineBroadcaster adapts *Hub to engine.Broadcaster, translating raw
// domain values into the wire message types and stamping each with the
// current time. Declared here, not in internal/engine, so engine never
// imports ws.
type EngineBroadcaster struct {
	Hub *Hub
}

func (b EngineBroadcaster) BroadcastPredictionCreated(predictionID domain.RowId, question string, tradingEnd time.Time) {
	b.Hub.BroadcastPredictionCreated(PredictionCreatedMessage{
		Type:         MsgTypePredictionCreated,
		PredictionID: predictionID,
		Question:     question,
		TradingEnd:   tradingEnd,
		Timestamp:    time.Now(),
	})
}

func (b EngineBroadcaster) BroadcastTradingActivated(predictionID domain.RowId, tradingEnd time.Time) {
	b.Hub.BroadcastTradingActivated(TradingActivatedMessage{
		Type:         MsgTypeTradingActivated,
		PredictionID: predictionID,
		TradingEnd:   tradingEnd,
		Timestamp:    time.Now(),
	})
}

func (b EngineBroadcaster) BroadcastBetPlaced(predictionID domain.RowId, side bool, amount domain.Sats) {
	b.Hub.BroadcastBetPlaced(BetPlacedMessage{
		Type:         MsgTypeBetPlaced,
		PredictionID: predictionID,
		Side:         side,
		Amount:       amount,
		Timestamp:    time.Now(),
	})
}

func (b EngineBroadcaster) BroadcastWaitingDecision(predictionID domain.RowId, deadline time.Time) {
	b.Hub.BroadcastWaitingDecision(WaitingDecisionMessage{
		Type:         MsgTypeWaitingDecision,
		PredictionID: predictionID,
		Deadline:     deadline,
		Timestamp:    time.Now(),
	})
}

func (b EngineBroadcaster) BroadcastPredictionResolved(predictionID domain.RowId, outcome bool) {
	b.Hub.BroadcastPredictionResolved(PredictionResolvedMessage{
		Type:         MsgTypePredictionResolved,
		PredictionID: predictionID,
		Outcome:      outcome,
		Timestamp:    time.Now(),
	})
}

func (b EngineBroadcaster) BroadcastPredictionRefunded(predictionID domain.RowId, reason domain.RefundReason) {
	b.Hub.BroadcastPredictionRefunded(PredictionRefundedMessage{
		Type:         MsgTypePredictionRefunded,
		PredictionID: predictionID,
		Reason:       reason,
		Timestamp:    time.Now(),
	})
}
