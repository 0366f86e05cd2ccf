package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransitionLog records every state-machine transition the engine performs,
// for audit and debugging. It maps to the transition_log table. Adapted from
// the market-maker position ledger this repository's teacher used to track
// liquidity injections: same append-only audit shape, now recording
// prediction/bet state transitions instead of MM fills.
type TransitionLog struct {
	ID           uuid.UUID `json:"id"            db:"id"`
	PredictionID RowId     `json:"prediction_id" db:"prediction_id"`
	Entity       string    `json:"entity"        db:"entity"` // "prediction" | "bet" | "judge"
	FromState    string    `json:"from_state"     db:"from_state"`
	ToState      string    `json:"to_state"       db:"to_state"`
	Reason       string    `json:"reason"         db:"reason"`
	CreatedAt    time.Time `json:"created_at"     db:"created_at"`
}
