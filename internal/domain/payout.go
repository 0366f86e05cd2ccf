package domain

import "github.com/shopspring/decimal"

// ──────────────────────────────────────────────────────────────────────────────
// PayoutMath — pure functions, no I/O. Two independent truncations; never
// combine them into a single rounding step (see CalculateUserCashOut).
// ──────────────────────────────────────────────────────────────────────────────

// ppmToDecimal turns a parts-per-million fraction into an exact fixed-point
// decimal (ppm × 10^-6), matching rust_decimal::Decimal::new(ppm, 6) bit for
// bit: decimal.New(v, exp) represents v × 10^exp exactly, with no division
// rounding.
func ppmToDecimal(ppm Ppm) decimal.Decimal {
	return decimal.New(int64(ppm), -6)
}

// CalculateUserCashOut computes a single winning bettor's payout.
//
//	total   = outcomeAmount + nonOutcomeAmount
//	poolUsers = ⌊total · (1 − judgeShare)⌋               (first truncation)
//	userShare = betAmount / outcomeAmount                 (decimal Div, rounded to 16 places)
//	payout    = ⌊poolUsers · userShare⌋                   (second, independent truncation)
//
// Returns 0 if outcomeAmount is 0 (no winning bets to divide among).
func CalculateUserCashOut(betAmount, outcomeAmount, nonOutcomeAmount Sats, judgeSharePpm Ppm) Sats {
	if outcomeAmount == 0 {
		return 0
	}
	total := decimal.NewFromInt(int64(outcomeAmount) + int64(nonOutcomeAmount))
	bet := decimal.NewFromInt(int64(betAmount))
	outcome := decimal.NewFromInt(int64(outcomeAmount))
	judgeShare := ppmToDecimal(judgeSharePpm)

	userShare := bet.Div(outcome)

	poolUsers := total.Sub(total.Mul(judgeShare)).Truncate(0)
	payout := poolUsers.Mul(userShare).Truncate(0)

	return Sats(payout.IntPart())
}

// CalculateJudgeCashOut computes a single winning-side judge's share.
//
//	total       = outcomeAmount + nonOutcomeAmount
//	poolJudges  = ⌊total · judgeShare⌋                    (first truncation)
//	judgePayout = ⌊poolJudges / outcomeJudges⌋            (second, independent truncation)
//
// Returns 0 if outcomeJudges is 0 (no winning-side judges to divide among).
func CalculateJudgeCashOut(outcomeJudges uint32, outcomeAmount, nonOutcomeAmount Sats, judgeSharePpm Ppm) Sats {
	if outcomeJudges == 0 {
		return 0
	}
	total := decimal.NewFromInt(int64(outcomeAmount) + int64(nonOutcomeAmount))
	judges := decimal.NewFromInt(int64(outcomeJudges))
	judgeShare := ppmToDecimal(judgeSharePpm)

	poolJudges := total.Mul(judgeShare).Truncate(0)
	payout := poolJudges.Div(judges).Truncate(0)

	return Sats(payout.IntPart())
}
