package domain

import "time"

// BetKind is the discriminant of BetState (the bet sub-state-machine).
type BetKind string

const (
	BetFundInit   BetKind = "FundInit"
	BetFunded     BetKind = "Funded"
	BetRefundInit BetKind = "RefundInit"
	BetRefunded   BetKind = "Refunded"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bet
// ──────────────────────────────────────────────────────────────────────────────

// Bet is identified by its funding invoice (FundInvoice), not a surrogate id.
// Only Funded bets with Side == the decided outcome participate in payout.
type Bet struct {
	FundInvoice  string    `json:"fund_invoice"  db:"fund_invoice"`
	User         PubKey    `json:"user"           db:"user_pubkey"`
	PredictionID RowId     `json:"prediction_id"  db:"prediction_id"`
	Side         bool      `json:"side"           db:"side"`
	Amount       *Sats     `json:"amount"         db:"amount"` // nil until Funded
	State        BetKind   `json:"state"          db:"state"`
	RefundInvoice *string  `json:"refund_invoice" db:"refund_invoice"`
	CreatedAt    time.Time `json:"created_at"     db:"created_at"`
}

// IsActive reports whether the bet can still be reconciled by CheckBet /
// CancelBet (i.e. has not reached a terminal sub-state).
func (b *Bet) IsActive() bool {
	return b.State == BetFundInit || b.State == BetRefundInit
}
