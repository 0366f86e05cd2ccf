package engine

import (
	"context"

	"github.com/evetabi/prediction/internal/domain"
)

// PaymentOracle is the external Lightning-style funding source: it issues
// invoices, collects inbound payment, and performs outbound payout. It is
// opaque to the engine — the engine never deducts or credits an internal
// balance (see SPEC_FULL.md §9).
type PaymentOracle interface {
	// CreatePayment mints a new opaque invoice handle. Idempotent
	// re-creation is not required.
	CreatePayment(ctx context.Context) (domain.Payment, error)

	// Pay is idempotent per payment: calling it twice for the same invoice
	// and amount must not double-pay.
	Pay(ctx context.Context, payment domain.Payment, amount domain.Sats) (domain.PaymentState, error)

	// CheckPayment polls the current state of a previously created or paid
	// invoice.
	CheckPayment(ctx context.Context, payment domain.Payment) (domain.PaymentState, error)
}
