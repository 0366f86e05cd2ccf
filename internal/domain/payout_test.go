package domain_test

import (
	"testing"

	"github.com/evetabi/prediction/internal/domain"
)

// TestCalculateUserCashOut_HappyPath reproduces the spec's reference
// scenario: 3 judges, 3 bettors, all on true, 100 sats each.
//
//	O (true pool)  = 300
//	N (false pool) = 0
//	judge_share_ppm = 100_000  (10%)
//
//	poolUsers = ⌊300 × (1 − 0.1)⌋ = ⌊270⌋ = 270
//	userShare = 100 / 300 = 0.3333333333333333   (Div rounds to 16 places)
//	payout    = ⌊270 × 0.3333333333333333⌋ = ⌊89.99999999999999⌋ = 89
//	                                       (not 90 — the ratio is rounded first)
func TestCalculateUserCashOut_HappyPath(t *testing.T) {
	got := domain.CalculateUserCashOut(100, 300, 0, 100_000)
	if got != 89 {
		t.Errorf("payout = %d, want 89", got)
	}
}

// TestCalculateJudgeCashOut_HappyPath continues the same scenario: 3
// judges, all Accepted and voting true (unanimous).
//
//	poolJudges  = ⌊300 × 0.1⌋ = 30
//	judgePayout = ⌊30 / 3⌋ = 10
func TestCalculateJudgeCashOut_HappyPath(t *testing.T) {
	got := domain.CalculateJudgeCashOut(3, 300, 0, 100_000)
	if got != 10 {
		t.Errorf("judge payout = %d, want 10", got)
	}
}

// TestCalculateUserCashOut_FullJudgeShare covers the boundary where
// judge_share_ppm == 1_000_000: the entire pool goes to judges and every
// user cash-out truncates to 0.
func TestCalculateUserCashOut_FullJudgeShare(t *testing.T) {
	got := domain.CalculateUserCashOut(100, 300, 0, domain.MaxPpm)
	if got != 0 {
		t.Errorf("payout = %d, want 0 when judge_share_ppm is maxed out", got)
	}
}

func TestCalculateJudgeCashOut_FullJudgeShare(t *testing.T) {
	got := domain.CalculateJudgeCashOut(3, 300, 0, domain.MaxPpm)
	if got != 100 {
		t.Errorf("judge payout = %d, want 100", got)
	}
}

// TestCalculateUserCashOut_NoWinningPool guards the division-by-zero case:
// nobody bet on the outcome side, so there is nothing to distribute.
func TestCalculateUserCashOut_NoWinningPool(t *testing.T) {
	got := domain.CalculateUserCashOut(0, 0, 500, 100_000)
	if got != 0 {
		t.Errorf("payout = %d, want 0", got)
	}
}

func TestCalculateJudgeCashOut_NoWinningJudges(t *testing.T) {
	got := domain.CalculateJudgeCashOut(0, 300, 0, 100_000)
	if got != 0 {
		t.Errorf("judge payout = %d, want 0", got)
	}
}

// TestSolvency_NeverExceedsPool checks the belt-and-braces invariant across
// a spread of pool shapes: summed user + judge payouts must never exceed the
// total pool, for any split of winning bettors.
func TestSolvency_NeverExceedsPool(t *testing.T) {
	const outcomeAmount, nonOutcomeAmount domain.Sats = 730, 271
	const judgeSharePpm domain.Ppm = 250_000
	bets := []domain.Sats{50, 125, 300, 255}

	var total domain.Sats
	for _, b := range bets {
		total += b
	}
	if total != outcomeAmount {
		t.Fatalf("test setup: bets must sum to outcomeAmount, got %d want %d", total, outcomeAmount)
	}

	var sumUserPayouts domain.Sats
	for _, b := range bets {
		sumUserPayouts += domain.CalculateUserCashOut(b, outcomeAmount, nonOutcomeAmount, judgeSharePpm)
	}
	judgePayout := domain.CalculateJudgeCashOut(3, outcomeAmount, nonOutcomeAmount, judgeSharePpm)
	sumJudgePayouts := 3 * judgePayout

	pool := outcomeAmount + nonOutcomeAmount
	if sumUserPayouts+sumJudgePayouts > pool {
		t.Errorf("sum(payouts) = %d exceeds pool = %d", sumUserPayouts+sumJudgePayouts, pool)
	}
}
