package adapter

import (
	"context"
)

// PaymentGateway is the hex port for payment providers. Amounts are in Rials.
type PaymentGateway interface {
	Name() string

	// RequestPayment initiates a payment intent and returns provider authority and a redirect URL.
	RequestPayment(ctx context.Context, amount int64, description, callbackURL string, meta map[string]interface{}) (authority string, payURL string, err error)
	// VerifyPayment verifies a payment given the authority and expected amount; returns provider refID on success.
	VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (refID string, err error)
}
