package adapter

import (
	"context"
	"time"

	"captive-wifi-billing/internal/domain/model"
)

// ConfirmationBroker is the cross-process coordination point between a
// purchase request waiting for an outcome and the webhook handler that
// produces it, possibly on a different instance. The broker, not in-process
// memory, is the source of truth for whether a transaction is outstanding.
//
// At most one waiter per checkout request id is supported.
type ConfirmationBroker interface {
	// Await suspends until the transaction is resolved or timeout elapses.
	// On a failure resolution the returned error carries the user-facing
	// message; on timeout it is domain.ErrConfirmationTimedOut.
	Await(ctx context.Context, checkoutRequestID string, timeout time.Duration) (*model.PaymentResult, error)
	// ResolveSuccess publishes a terminal success outcome. Duplicate
	// publishes are harmless: once the waiter consumed the first, later
	// ones have no listener and are dropped.
	ResolveSuccess(ctx context.Context, checkoutRequestID string, result *model.PaymentResult) error
	// ResolveFailure maps the provider failure code to a user-facing
	// message and publishes a terminal failure outcome.
	ResolveFailure(ctx context.Context, checkoutRequestID, resultCode string) error
}
