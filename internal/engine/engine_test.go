package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/evetabi/prediction/internal/oracle"
	"github.com/evetabi/prediction/internal/repository/memstore"
)

const (
	judgeA = domain.PubKey("judge-a")
	judgeB = domain.PubKey("judge-b")
	judgeC = domain.PubKey("judge-c")
	alice  = domain.PubKey("alice")
	bob    = domain.PubKey("bob")
)

func newTestEngine(t *testing.T, now time.Time) (*engine.Engine, *engine.FixedClock, *oracle.TestOracle) {
	t.Helper()
	clock := engine.NewFixedClock(now)
	testOracle := oracle.NewTestOracle()
	e := engine.New(memstore.New(), testOracle, engine.Secp256k1Verifier{}, engine.WithTestMode(true), engine.WithClock(clock))
	return e, clock, testOracle
}

func access(user domain.PubKey) domain.AccessRequest {
	return domain.AccessRequest{User: user}
}

func newActivePrediction(t *testing.T, ctx context.Context, e *engine.Engine, now time.Time, judgeSharePpm domain.Ppm) domain.RowId {
	t.Helper()
	id, err := e.NewPrediction(ctx, "will it rain tomorrow?", []domain.PubKey{judgeA, judgeB, judgeC}, 3, judgeSharePpm, now.Add(48*time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("new prediction: %v", err)
	}
	for _, j := range []domain.PubKey{judgeA, judgeB, judgeC} {
		if err := e.AcceptNomination(ctx, id, j, access(j)); err != nil {
			t.Fatalf("accept nomination %s: %v", j, err)
		}
	}
	state, err := e.GetPredictionOverview(ctx, id)
	if err != nil {
		t.Fatalf("get overview: %v", err)
	}
	if state.State.Kind != domain.KindTrading {
		t.Fatalf("expected Trading after all judges accepted, got %s", state.State)
	}
	return id
}

func placeBet(t *testing.T, ctx context.Context, e *engine.Engine, testOracle *oracle.TestOracle, id domain.RowId, user domain.PubKey, side bool, amount domain.Sats) string {
	t.Helper()
	invoice, err := e.AddBet(ctx, id, user, side, access(user))
	if err != nil {
		t.Fatalf("add bet: %v", err)
	}
	testOracle.Settle(invoice, amount)
	kind, err := e.CheckBet(ctx, invoice, access(user))
	if err != nil {
		t.Fatalf("check bet: %v", err)
	}
	if kind != domain.BetFunded {
		t.Fatalf("expected bet Funded, got %s", kind)
	}
	return invoice
}

// TestHappyPath_PayoutMatchesWorkedExample reproduces the same reference
// scenario as domain.TestCalculateUserCashOut_HappyPath end to end through
// the engine: 3 judges, 3 bettors of 100 sats each all on true, 10% judge
// share, unanimous true vote — each bettor should cash out 89 and each judge
// 10 (two independent truncations, not one combined rounding step).
func TestHappyPath_PayoutMatchesWorkedExample(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, clock, testOracle := newTestEngine(t, now)

	id := newActivePrediction(t, ctx, e, now, 100_000)
	placeBet(t, ctx, e, testOracle, id, alice, true, 100)
	placeBet(t, ctx, e, testOracle, id, bob, true, 100)
	placeBet(t, ctx, e, testOracle, id, "carol", true, 100)

	clock.Advance(48 * time.Hour)
	for _, j := range []domain.PubKey{judgeA, judgeB, judgeC} {
		if err := e.MakeDecision(ctx, id, j, true, access(j)); err != nil {
			t.Fatalf("judge %s decision: %v", j, err)
		}
	}

	overview, err := e.GetPredictionOverview(ctx, id)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.State.Kind != domain.KindResolved || !*overview.State.Outcome {
		t.Fatalf("expected Resolved(true), got %s", overview.State)
	}

	for _, user := range []domain.PubKey{alice, bob, "carol"} {
		cashOut, err := e.GetCashOut(ctx, id, user, access(user))
		if err != nil {
			t.Fatalf("get cash out %s: %v", user, err)
		}
		if cashOut.Amount != 89 {
			t.Fatalf("expected %s cash out 89, got %d", user, cashOut.Amount)
		}
	}

	for _, j := range []domain.PubKey{judgeA, judgeB, judgeC} {
		judgeCashOut, err := e.GetCashOut(ctx, id, j, access(j))
		if err != nil {
			t.Fatalf("get cash out %s: %v", j, err)
		}
		if judgeCashOut.Amount != 10 {
			t.Fatalf("expected judge %s cash out 10, got %d", j, judgeCashOut.Amount)
		}
	}
}

// TestTie_TwoJudgeSplit is the direct 1-1 tie case.
func TestTie_TwoJudgeSplit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, clock, testOracle := newTestEngine(t, now)

	id, err := e.NewPrediction(ctx, "tie case", []domain.PubKey{judgeA, judgeB}, 2, 0, now.Add(48*time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("new prediction: %v", err)
	}
	for _, j := range []domain.PubKey{judgeA, judgeB} {
		if err := e.AcceptNomination(ctx, id, j, access(j)); err != nil {
			t.Fatalf("accept: %v", err)
		}
	}
	placeBet(t, ctx, e, testOracle, id, alice, true, 100)
	placeBet(t, ctx, e, testOracle, id, bob, false, 100)

	clock.Advance(48 * time.Hour)
	if err := e.MakeDecision(ctx, id, judgeA, true, access(judgeA)); err != nil {
		t.Fatalf("judge a: %v", err)
	}
	if err := e.MakeDecision(ctx, id, judgeB, false, access(judgeB)); !errors.Is(err, domain.ErrTie) {
		t.Fatalf("expected ErrTie on the deciding vote, got %v", err)
	}

	overview, err := e.GetPredictionOverview(ctx, id)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.State.Kind != domain.KindRefunded || overview.State.Reason == nil || *overview.State.Reason != domain.RefundTie {
		t.Fatalf("expected Refunded(Tie), got %s", overview.State)
	}
}

// TestLatePayment_GoesToRefundInit covers a bet payment settling after
// trading has ended: the ordering note requires advanceLazyTransitions to
// run before the settlement is accepted, so the bettor gets refunded rather
// than entered into the pool.
func TestLatePayment_GoesToRefundInit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, clock, testOracle := newTestEngine(t, now)

	id := newActivePrediction(t, ctx, e, now, 0)
	invoice, err := e.AddBet(ctx, id, alice, true, access(alice))
	if err != nil {
		t.Fatalf("add bet: %v", err)
	}

	clock.Advance(48 * time.Hour) // trading ends before the payment settles
	testOracle.Settle(invoice, 100)

	kind, err := e.CheckBet(ctx, invoice, access(alice))
	if err != nil {
		t.Fatalf("check bet: %v", err)
	}
	if kind != domain.BetRefundInit {
		t.Fatalf("expected BetRefundInit for a late payment, got %s", kind)
	}
}

// TestDecisionDeadlineMissed covers a WaitingForDecision prediction whose
// decision period elapses with no majority reached: it lazily transitions to
// Refunded(TimeForDecisionRanOut) the next time any operation touches it.
func TestDecisionDeadlineMissed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, clock, testOracle := newTestEngine(t, now)

	id := newActivePrediction(t, ctx, e, now, 0)
	placeBet(t, ctx, e, testOracle, id, alice, true, 100)

	clock.Advance(48*time.Hour + 24*time.Hour + time.Second)

	err := e.MakeDecision(ctx, id, judgeA, true, access(judgeA))
	if !errors.Is(err, domain.ErrWrongMarketState) {
		t.Fatalf("expected ErrWrongMarketState once the decision deadline has elapsed, got %v", err)
	}

	overview, err := e.GetPredictionOverview(ctx, id)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.State.Kind != domain.KindRefunded || overview.State.Reason == nil || *overview.State.Reason != domain.RefundTimeForDecisionRanOut {
		t.Fatalf("expected Refunded(TimeForDecisionRanOut), got %s", overview.State)
	}
}

// TestCashOutInvoiceRebinding covers CashOutUser's Created/Failed rebinding
// behavior and its Settled/PayInit terminal guards.
func TestCashOutInvoiceRebinding(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, clock, testOracle := newTestEngine(t, now)

	id, err := e.NewPrediction(ctx, "cash out rebinding", []domain.PubKey{judgeA}, 1, 0, now.Add(48*time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("new prediction: %v", err)
	}
	if err := e.AcceptNomination(ctx, id, judgeA, access(judgeA)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	placeBet(t, ctx, e, testOracle, id, alice, true, 100)
	clock.Advance(48 * time.Hour)
	if err := e.MakeDecision(ctx, id, judgeA, true, access(judgeA)); err != nil {
		t.Fatalf("decide: %v", err)
	}

	amount, err := e.CashOutUser(ctx, id, alice, "invoice-1", access(alice))
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if amount != 100 {
		t.Fatalf("expected full pool of 100 with no judge share, got %d", amount)
	}

	if _, err := e.CashOutUser(ctx, id, alice, "invoice-1", access(alice)); !errors.Is(err, domain.ErrPaymentAlreadyInFlight) {
		t.Fatalf("expected ErrPaymentAlreadyInFlight while invoice-1 is still PayInit, got %v", err)
	}

	testOracle.Fail("invoice-1")
	if _, err := e.CashOutUser(ctx, id, alice, "invoice-2", access(alice)); err != nil {
		t.Fatalf("rebind after failure: %v", err)
	}

	testOracle.Settle("invoice-2", 100)
	if _, err := e.CashOutUser(ctx, id, alice, "invoice-3", access(alice)); !errors.Is(err, domain.ErrPaymentAlreadyPaid) {
		t.Fatalf("expected ErrPaymentAlreadyPaid once invoice-2 settled, got %v", err)
	}
}

// TestAccessControl_UserCannotActForOthers covers CheckAccessForUser's
// on-behalf-of restriction for non-admin callers.
func TestAccessControl_UserCannotActForOthers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := engine.NewFixedClock(now)
	testOracle := oracle.NewTestOracle()
	store := memstore.New()
	e := engine.New(store, testOracle, engine.Secp256k1Verifier{}, engine.WithClock(clock))

	if err := store.CreateSession(ctx, alice, "chal-alice"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.UpdateAccessToken(ctx, alice, "sig-alice", "chal-alice"); err != nil {
		t.Fatalf("update access token: %v", err)
	}

	aliceAccess := domain.AccessRequest{User: alice, Challenge: "chal-alice", Sig: "sig-alice"}
	if _, err := e.GetUser(ctx, bob, aliceAccess); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden when a User caller acts on another user's behalf, got %v", err)
	}
	if _, err := e.GetUser(ctx, alice, aliceAccess); err != nil {
		t.Fatalf("expected alice to act on her own behalf without error, got %v", err)
	}
}

// TestInsolvencyGuard_ForcesRefund exercises the solvency guard directly
// through PayoutMath rather than constructing an artificial insolvent state
// through the engine, since the engine's own tallying can never produce one
// under correct inputs — see domain.TestSolvency_NeverExceedsPool.
func TestInsolvencyGuard_ForcesRefund(t *testing.T) {
	t.Skip("solvency is verified at the PayoutMath unit level; see internal/domain/payout_test.go")
}
