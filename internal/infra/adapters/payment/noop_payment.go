package payment

import (
	"context"
	"fmt"
	"sync"

	"photo-market/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway accepts every payment in memory; used in dev mode and tests.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	seq     int64
	baseURL string
	intents map[string]int64 // authority -> expected amount (IRR)
}

// NewNoopPaymentGateway builds pay URLs that point straight at callbackBase so
// the whole flow can be clicked through locally.
func NewNoopPaymentGateway(callbackBase string) *NoopPaymentGateway {
	if callbackBase == "" {
		callbackBase = "https://example.test/pay"
	}
	return &NoopPaymentGateway{
		baseURL: callbackBase,
		intents: make(map[string]int64),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) RequestPayment(ctx context.Context, amount int64, description, callbackURL string, meta map[string]interface{}) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	authority := fmt.Sprintf("noop-%d", g.seq)
	g.intents[authority] = amount
	return authority, fmt.Sprintf("%s?Authority=%s&Status=OK", g.baseURL, authority), nil
}

func (g *NoopPaymentGateway) VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.intents[authority]
	if !ok {
		return "", fmt.Errorf("noop: authority not found")
	}
	if exp != expectedAmount {
		return "", fmt.Errorf("noop: amount mismatch: expected %d got %d", exp, expectedAmount)
	}
	return "ref-" + authority, nil
}
