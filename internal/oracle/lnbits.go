// Package oracle implements engine.PaymentOracle. lnbitsOracle talks to an
// LNbits-compatible Lightning wallet over its REST API; TestOracle is an
// in-memory fake for tests. Both are grounded on
// original_source/src/lnbits/client.rs's create_invoice/pay_invoice/is_payed
// trio and original_source/src/funding_source.rs's FundingSource trait,
// generalized to the engine.PaymentOracle shape (CreatePayment/Pay/
// CheckPayment) and to variable-amount invoices, since a bet's stake is not
// known until the bettor pays.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/evetabi/prediction/internal/engine"
	"github.com/evetabi/prediction/internal/metrics"
	"lukechampine.com/blake3"
)

// lnbitsOracle is a concrete engine.PaymentOracle backed by one LNbits
// wallet's admin API key. Following the teacher's PriceService style
// (plain *http.Client plus a configured timeout), it does not pull in an
// HTTP framework for outbound calls.
type lnbitsOracle struct {
	client *http.Client
	cfg    Config

	mu      sync.Mutex
	records map[domain.Payment]*record
	seen    map[[32]byte]domain.PaymentState // outbound idempotency guard
}

type record struct {
	hash      string
	outbound  bool
	amount    domain.Sats
	settled   bool
	amountSet bool
}

// NewLnbits constructs a PaymentOracle against a live LNbits wallet.
func NewLnbits(cfg Config) engine.PaymentOracle {
	return &lnbitsOracle{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		records: make(map[domain.Payment]*record),
		seen:    make(map[[32]byte]domain.PaymentState),
	}
}

type createInvoiceRequest struct {
	Out    bool   `json:"out"`
	Memo   string `json:"memo"`
	Amount int64  `json:"amount"`
}

type createInvoiceResponse struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
}

type payInvoiceRequest struct {
	Out    bool   `json:"out"`
	Bolt11 string `json:"bolt11"`
}

type payInvoiceResponse struct {
	PaymentHash string `json:"payment_hash"`
}

type checkInvoiceResponse struct {
	Paid    bool `json:"paid"`
	Details struct {
		Amount int64 `json:"amount"` // msat
	} `json:"details"`
}

func (o *lnbitsOracle) CreatePayment(ctx context.Context) (domain.Payment, error) {
	start := time.Now()
	var resp createInvoiceResponse
	// amount: 0 requests a variable-amount (any-amount) invoice; the real
	// sat value is only known once CheckPayment observes it paid.
	if err := o.post(ctx, "/api/v1/payments", createInvoiceRequest{Out: false, Memo: "", Amount: 0}, &resp); err != nil {
		metrics.OracleRequestErrors.WithLabelValues("create_payment").Inc()
		return "", fmt.Errorf("create invoice: %w", err)
	}
	metrics.OracleRequestDuration.WithLabelValues("create_payment").Observe(time.Since(start).Seconds())
	o.mu.Lock()
	o.records[domain.Payment(resp.PaymentRequest)] = &record{hash: resp.PaymentHash}
	o.mu.Unlock()
	return domain.Payment(resp.PaymentRequest), nil
}

func (o *lnbitsOracle) Pay(ctx context.Context, payment domain.Payment, amount domain.Sats) (domain.PaymentState, error) {
	key := idempotencyKey(payment, amount)
	o.mu.Lock()
	if st, ok := o.seen[key]; ok {
		o.mu.Unlock()
		return st, nil
	}
	o.mu.Unlock()

	start := time.Now()
	var resp payInvoiceResponse
	if err := o.post(ctx, "/api/v1/payments", payInvoiceRequest{Out: true, Bolt11: string(payment)}, &resp); err != nil {
		metrics.OracleRequestErrors.WithLabelValues("pay").Inc()
		return domain.PaymentState{}, fmt.Errorf("pay invoice: %w", err)
	}
	metrics.OracleRequestDuration.WithLabelValues("pay").Observe(time.Since(start).Seconds())

	st := domain.PayInit(amount)
	o.mu.Lock()
	o.records[payment] = &record{hash: resp.PaymentHash, outbound: true, amount: amount, amountSet: true}
	o.seen[key] = st
	o.mu.Unlock()
	return st, nil
}

func (o *lnbitsOracle) CheckPayment(ctx context.Context, payment domain.Payment) (domain.PaymentState, error) {
	o.mu.Lock()
	rec, ok := o.records[payment]
	o.mu.Unlock()
	if !ok {
		return domain.PaymentState{}, fmt.Errorf("check payment: unknown invoice")
	}

	start := time.Now()
	var resp checkInvoiceResponse
	if err := o.get(ctx, "/api/v1/payments/"+rec.hash, &resp); err != nil {
		metrics.OracleRequestErrors.WithLabelValues("check_payment").Inc()
		return domain.PaymentState{}, fmt.Errorf("check invoice: %w", err)
	}
	metrics.OracleRequestDuration.WithLabelValues("check_payment").Observe(time.Since(start).Seconds())
	if !resp.Paid {
		if rec.outbound {
			return domain.PaymentState{}, fmt.Errorf("pay invoice: outbound payment did not settle")
		}
		return domain.Created(), nil
	}

	o.mu.Lock()
	rec.settled = true
	if !rec.amountSet {
		rec.amount = domain.Sats(resp.Details.Amount / 1000)
		rec.amountSet = true
	}
	amount := rec.amount
	o.mu.Unlock()
	return domain.Settled(amount), nil
}

func idempotencyKey(payment domain.Payment, amount domain.Sats) [32]byte {
	buf := make([]byte, 0, len(payment)+4)
	buf = append(buf, []byte(payment)...)
	buf = append(buf, byte(amount), byte(amount>>8), byte(amount>>16), byte(amount>>24))
	return blake3.Sum256(buf)
}

func (o *lnbitsOracle) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", o.cfg.APIKey)
	return o.do(req, out)
}

func (o *lnbitsOracle) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", o.cfg.APIKey)
	return o.do(req, out)
}

func (o *lnbitsOracle) do(req *http.Request, out any) error {
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("lnbits returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ engine.PaymentOracle = (*lnbitsOracle)(nil)
