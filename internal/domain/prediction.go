package domain

import "time"

// ──────────────────────────────────────────────────────────────────────────────
// RefundReason
// ──────────────────────────────────────────────────────────────────────────────

// RefundReason explains why a prediction landed in Refunded.
type RefundReason string

const (
	RefundTie                   RefundReason = "Tie"
	RefundTimeForDecisionRanOut RefundReason = "TimeForDecisionRanOut"
	RefundInsolvency            RefundReason = "Insolvency"
	RefundInsufficientJudges    RefundReason = "InsufficientJudges"
)

// ──────────────────────────────────────────────────────────────────────────────
// MarketState — tagged sum, case discrimination only (no subtyping)
// ──────────────────────────────────────────────────────────────────────────────

// MarketKind is the discriminant of MarketState.
type MarketKind string

const (
	KindWaitingForJudges   MarketKind = "WaitingForJudges"
	KindTrading            MarketKind = "Trading"
	KindWaitingForDecision MarketKind = "WaitingForDecision"
	KindResolved           MarketKind = "Resolved"
	KindRefunded           MarketKind = "Refunded"
)

// MarketState is the current lifecycle state of a Prediction. Resolved
// carries Outcome; Refunded carries Reason. The zero value is invalid; use
// the constructor functions below.
type MarketState struct {
	Kind   MarketKind
	Outcome *bool
	Reason  *RefundReason
}

func WaitingForJudges() MarketState   { return MarketState{Kind: KindWaitingForJudges} }
func Trading() MarketState            { return MarketState{Kind: KindTrading} }
func WaitingForDecision() MarketState { return MarketState{Kind: KindWaitingForDecision} }

func Resolved(outcome bool) MarketState {
	return MarketState{Kind: KindResolved, Outcome: &outcome}
}

func Refunded(reason RefundReason) MarketState {
	return MarketState{Kind: KindRefunded, Reason: &reason}
}

// IsTerminal reports whether the state is Resolved or Refunded (I4).
func (s MarketState) IsTerminal() bool {
	return s.Kind == KindResolved || s.Kind == KindRefunded
}

func (s MarketState) String() string {
	switch s.Kind {
	case KindResolved:
		return "Resolved(" + boolStr(*s.Outcome) + ")"
	case KindRefunded:
		return "Refunded(" + string(*s.Reason) + ")"
	default:
		return string(s.Kind)
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ──────────────────────────────────────────────────────────────────────────────
// Prediction
// ──────────────────────────────────────────────────────────────────────────────

// Prediction is a single judge-arbitrated binary market.
type Prediction struct {
	ID             RowId         `json:"id"              db:"id"`
	Question       string        `json:"question"        db:"question"`
	Judges         []PubKey      `json:"judges"          db:"-"` // nomination order; loaded separately
	JudgeCount     uint32        `json:"judge_count"     db:"judge_count"`
	JudgeSharePpm  Ppm           `json:"judge_share_ppm" db:"judge_share_ppm"`
	State          MarketState   `json:"state"           db:"-"`
	TradingEnd     time.Time     `json:"trading_end"     db:"trading_end"`
	DecisionPeriod time.Duration `json:"decision_period" db:"decision_period"`
	CreatedAt      time.Time     `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"      db:"updated_at"`
}

// DecisionDeadline is the absolute time after which an un-voted
// WaitingForDecision prediction must be refunded (TimeForDecisionRanOut).
func (p *Prediction) DecisionDeadline() time.Time {
	return p.TradingEnd.Add(p.DecisionPeriod)
}

// TradingHasEnded reports whether now is at or past trading_end. The
// boundary is inclusive per spec: trading_end == now counts as ended.
func (p *Prediction) TradingHasEnded(now time.Time) bool {
	return !now.Before(p.TradingEnd)
}

// DecisionPeriodHasElapsed reports whether now is at or past the decision
// deadline.
func (p *Prediction) DecisionPeriodHasElapsed(now time.Time) bool {
	return !now.Before(p.DecisionDeadline())
}

// ──────────────────────────────────────────────────────────────────────────────
// Overview / ratio read models — Query API aggregations
// ──────────────────────────────────────────────────────────────────────────────

// PredictionOverview is a derived read-only summary for listing endpoints.
type PredictionOverview struct {
	ID            RowId       `json:"id"`
	Question      string      `json:"question"`
	State         MarketState `json:"state"`
	TradingEnd    time.Time   `json:"trading_end"`
	TrueAmount    Sats        `json:"true_amount"`
	FalseAmount   Sats        `json:"false_amount"`
	JudgeCount    uint32      `json:"judge_count"`
	JudgeSharePpm Ppm         `json:"judge_share_ppm"`
}

// PredictionRatio is the pool split used to display odds before resolution.
type PredictionRatio struct {
	TrueAmount  Sats `json:"true_amount"`
	FalseAmount Sats `json:"false_amount"`
}
