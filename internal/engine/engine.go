package engine

import (
	"log/slog"
)

// Engine is the MarketEngine: the orchestrator for prediction creation,
// judge nomination, bet placement and reconciliation, resolution and
// payout, cash-out withdrawal, and access control. It holds no mutable
// per-request state beyond local variables — Store is the serialization
// point (§5).
type Engine struct {
	store       Store
	oracle      PaymentOracle
	verifier    SignatureVerifier
	clock       Clock
	log         *slog.Logger
	test        bool
	broadcaster Broadcaster
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithTestMode short-circuits CheckAccess to Root. It is an engine
// construction parameter, never a runtime escape hatch.
func WithTestMode(test bool) Option {
	return func(e *Engine) { e.test = test }
}

// WithClock overrides the default SystemClock, for deterministic tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger overrides the default discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New constructs an Engine over the given Store, PaymentOracle and
// SignatureVerifier.
func New(store Store, oracle PaymentOracle, verifier SignatureVerifier, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		oracle:   oracle,
		verifier: verifier,
		clock:    SystemClock{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
