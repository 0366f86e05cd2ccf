package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/google/uuid"
)

// TestOracle is an in-memory PaymentOracle for tests, grounded directly on
// original_source/src/funding_source.rs's TestFundingSource: every invoice
// is an opaque generated handle, and Pay/CheckPayment are driven by the
// test via Settle/Fail rather than a real Lightning node.
type TestOracle struct {
	mu       sync.Mutex
	invoices map[domain.Payment]*domain.PaymentState
}

// NewTestOracle returns an empty TestOracle. All invoices start in Created
// for CreatePayment and PayInit for Pay until the test calls Settle or Fail.
func NewTestOracle() *TestOracle {
	return &TestOracle{invoices: make(map[domain.Payment]*domain.PaymentState)}
}

var _ engine.PaymentOracle = (*TestOracle)(nil)

func (o *TestOracle) CreatePayment(ctx context.Context) (domain.Payment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	invoice := domain.Payment("test-invoice-" + uuid.NewString())
	st := domain.Created()
	o.invoices[invoice] = &st
	return invoice, nil
}

func (o *TestOracle) Pay(ctx context.Context, payment domain.Payment, amount domain.Sats) (domain.PaymentState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.invoices[payment]; ok && existing.Kind == domain.PaymentSettled {
		return *existing, nil // idempotent: already paid
	}
	st := domain.PayInit(amount)
	o.invoices[payment] = &st
	return st, nil
}

func (o *TestOracle) CheckPayment(ctx context.Context, payment domain.Payment) (domain.PaymentState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.invoices[payment]
	if !ok {
		return domain.PaymentState{}, fmt.Errorf("check payment: unknown invoice %q", payment)
	}
	return *st, nil
}

// Settle marks a previously created or pay-initiated invoice as paid. Tests
// use this to simulate an incoming bet payment or a completed outbound
// payout, the same role TestFundingSource's direct HashMap mutation played.
func (o *TestOracle) Settle(invoice domain.Payment, amount domain.Sats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := domain.Settled(amount)
	o.invoices[invoice] = &st
}

// Fail marks an in-flight invoice as failed.
func (o *TestOracle) Fail(invoice domain.Payment) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := domain.Failed()
	o.invoices[invoice] = &st
}
