// Package payment talks to the external payment provider. Booking requests
// store an opaque payment method token; this package captures (charges) or
// voids (releases) what the token references. Callers treat every call as
// best-effort relative to booking state: a failed capture or void is logged
// and reconciled with the provider out-of-band.
package payment

import (
	"context"

	"tourbooking_backend/platform/config"
	"tourbooking_backend/platform/logger"
)

// Gateway captures or voids a stored payment method by its token.
type Gateway interface {
	Capture(ctx context.Context, token string) error
	Void(ctx context.Context, token string) error
}

// NoopGateway drops every call. Used when the payment provider is disabled
// (e.g. local development).
type NoopGateway struct{}

func (NoopGateway) Capture(ctx context.Context, token string) error { return nil }
func (NoopGateway) Void(ctx context.Context, token string) error    { return nil }

// NewGateway builds the configured gateway. Disabled yields the NoopGateway;
// enabled but incomplete configuration is an error at startup.
func NewGateway(cfg config.PaymentConfig, log *logger.Logger) (Gateway, error) {
	if !cfg.GetPaymentEnabled() {
		log.Warn("payment provider disabled; captures and voids are no-ops")
		return NoopGateway{}, nil
	}
	return NewClient(cfg.GetPaymentAPIURL(), cfg.GetPaymentAPIKey(), log)
}
