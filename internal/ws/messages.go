// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/evetabi/prediction/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeRatioUpdate       MsgType = "ratio_update"
	MsgTypeBetPlaced         MsgType = "bet_placed"
	MsgTypeTradingActivated  MsgType = "trading_activated"
	MsgTypeWaitingDecision   MsgType = "waiting_for_decision"
	MsgTypePredictionCreated MsgType = "prediction_created"
	MsgTypePredictionResolved MsgType = "prediction_resolved"
	MsgTypePredictionRefunded MsgType = "prediction_refunded"
	MsgTypeError             MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// RatioUpdateMessage — sent by Hub.BroadcastRatioUpdate; EngineBroadcaster
// does not send it (pool changes go out as BetPlacedMessage).
// ──────────────────────────────────────────────────────────────────────────────

// RatioUpdateMessage carries a prediction's current true/false pool split so
// clients can refresh displayed odds without polling.
type RatioUpdateMessage struct {
	Type         MsgType    `json:"type"`
	PredictionID domain.RowId `json:"prediction_id"`
	TrueAmount   domain.Sats  `json:"true_amount"`
	FalseAmount  domain.Sats  `json:"false_amount"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// BetPlacedMessage — broadcast after a bet settles so odds refresh for all.
// ──────────────────────────────────────────────────────────────────────────────

// BetPlacedMessage notifies all clients that a funded bet changed a
// prediction's pool ratios.
type BetPlacedMessage struct {
	Type         MsgType      `json:"type"`
	PredictionID domain.RowId `json:"prediction_id"`
	Side         bool         `json:"side"`
	Amount       domain.Sats  `json:"amount"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// TradingActivatedMessage — broadcast when WaitingForJudges -> Trading.
// ──────────────────────────────────────────────────────────────────────────────

// TradingActivatedMessage tells clients a prediction is now open for bets.
type TradingActivatedMessage struct {
	Type         MsgType      `json:"type"`
	PredictionID domain.RowId `json:"prediction_id"`
	TradingEnd   time.Time    `json:"trading_end"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// WaitingDecisionMessage — broadcast when Trading -> WaitingForDecision.
// ──────────────────────────────────────────────────────────────────────────────

// WaitingDecisionMessage tells clients betting has closed and a decision is
// now pending from the judges.
type WaitingDecisionMessage struct {
	Type         MsgType      `json:"type"`
	PredictionID domain.RowId `json:"prediction_id"`
	Deadline     time.Time    `json:"deadline"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// PredictionCreatedMessage — broadcast when a new prediction is proposed.
// ──────────────────────────────────────────────────────────────────────────────

// PredictionCreatedMessage carries the identity of a freshly created
// prediction, still waiting on its nominated judges.
type PredictionCreatedMessage struct {
	Type         MsgType      `json:"type"`
	PredictionID domain.RowId `json:"prediction_id"`
	Question     string       `json:"question"`
	TradingEnd   time.Time    `json:"trading_end"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// PredictionResolvedMessage — broadcast when a prediction settles.
// ──────────────────────────────────────────────────────────────────────────────

// PredictionResolvedMessage tells clients which side won.
type PredictionResolvedMessage struct {
	Type         MsgType      `json:"type"`
	PredictionID domain.RowId `json:"prediction_id"`
	Outcome      bool         `json:"outcome"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// PredictionRefundedMessage — broadcast when a prediction is refunded.
// ──────────────────────────────────────────────────────────────────────────────

// PredictionRefundedMessage tells clients a prediction was refunded and why.
type PredictionRefundedMessage struct {
	Type         MsgType             `json:"type"`
	PredictionID domain.RowId        `json:"prediction_id"`
	Reason       domain.RefundReason `json:"reason"`
	Timestamp    time.Time           `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage — sent to a single client on a non-fatal error.
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
