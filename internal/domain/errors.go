package domain

import "errors"

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Policy errors — rejected by the state machine itself, returned verbatim.
var (
	// ErrNotEnoughJudges is returned by new_prediction when nominees < judge_count
	// or judge_count == 0.
	ErrNotEnoughJudges = errors.New("not enough nominated judges")

	// ErrJudgeShareOutOfRange is returned when judge_share_ppm > 1_000_000.
	ErrJudgeShareOutOfRange = errors.New("judge share ppm out of range")

	// ErrTradingEndTooEarly is returned when trading_end < now + 2 days.
	ErrTradingEndTooEarly = errors.New("trading end is too soon")

	// ErrDecisionPeriodTooShort is returned when decision_period < 1 day.
	ErrDecisionPeriodTooShort = errors.New("decision period is too short")

	// ErrWrongMarketState is returned when an operation is attempted while the
	// prediction is not in the state it requires.
	ErrWrongMarketState = errors.New("wrong market state for this operation")

	// ErrWrongJudgeState is returned when a judge votes without having accepted
	// their nomination.
	ErrWrongJudgeState = errors.New("judge did not accept the nomination")

	// ErrTradingEnded is returned by add_bet once the lazy transition has fired.
	ErrTradingEnded = errors.New("trading ended")

	// ErrTie is returned by make_decision on the deciding vote when vote counts
	// are equal, after the prediction has been moved to Refunded(Tie).
	ErrTie = errors.New("decision tie between an even number of judges")
)

// Access errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrForbidden        = errors.New("forbidden: insufficient permissions")
)

// Lookup errors.
var (
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrBetNotFound        = errors.New("bet not found")
	ErrJudgeNotFound      = errors.New("judge not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoCashOut          = errors.New("no cash out for this user")
)

// Payment errors.
var (
	ErrPaymentNotSettled      = errors.New("payment not settled")
	ErrPaymentAlreadyInFlight = errors.New("payment already initialised and still pending")
	ErrPaymentAlreadyPaid     = errors.New("payment already paid out")
	ErrOracleUnreachable      = errors.New("payment oracle unreachable")
)

// Integrity errors. Insolvency is never surfaced to a caller as-is — the
// engine forces the prediction into Refunded(Insolvency) and logs instead.
var (
	ErrInsolvency       = errors.New("cash out calculation would make the prediction insolvent")
	ErrSignatureInvalid = errors.New("signature is invalid")
	ErrZeroSettlement   = errors.New("settled amount must be greater than zero")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

var policyErrors = []error{
	ErrNotEnoughJudges,
	ErrJudgeShareOutOfRange,
	ErrTradingEndTooEarly,
	ErrDecisionPeriodTooShort,
	ErrWrongMarketState,
	ErrWrongJudgeState,
	ErrTradingEnded,
	ErrTie,
}

// IsPolicy returns true when err (or any error in its chain) is one of the
// state-machine policy errors. These are returned verbatim to the caller.
func IsPolicy(err error) bool {
	for _, target := range policyErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var accessErrors = []error{
	ErrNotAuthenticated,
	ErrSessionExpired,
	ErrForbidden,
	ErrSignatureInvalid,
}

// IsAccess returns true for authentication/authorisation errors.
func IsAccess(err error) bool {
	for _, target := range accessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var lookupErrors = []error{
	ErrPredictionNotFound,
	ErrBetNotFound,
	ErrJudgeNotFound,
	ErrUserNotFound,
	ErrNoCashOut,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range lookupErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var paymentErrors = []error{
	ErrPaymentNotSettled,
	ErrPaymentAlreadyInFlight,
	ErrPaymentAlreadyPaid,
	ErrOracleUnreachable,
}

// IsPayment returns true for errors raised while reconciling with the
// PaymentOracle.
func IsPayment(err error) bool {
	for _, target := range paymentErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var integrityErrors = []error{
	ErrInsolvency,
	ErrZeroSettlement,
}

// IsIntegrity returns true for invariant-violation errors. Insolvency in
// particular is always paired with a forced Refunded transition rather than
// surfaced to the caller as-is.
func IsIntegrity(err error) bool {
	for _, target := range integrityErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
