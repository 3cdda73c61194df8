package repository

import (
	"context"

	"captive-wifi-billing/internal/domain/model"
)

// PendingPurchaseRepository is the shared registry of in-flight purchases,
// keyed by the provider checkout request id. Entries are ephemeral: written
// when a push is initiated, read and deleted exactly once by the webhook
// path, and expired by TTL when no callback ever arrives.
type PendingPurchaseRepository interface {
	Set(ctx context.Context, checkoutRequestID string, p *model.PendingPurchase) error
	// Find returns domain.ErrNotFound when the entry is absent (expired,
	// duplicate callback, or written by an instance that never committed).
	Find(ctx context.Context, checkoutRequestID string) (*model.PendingPurchase, error)
	Delete(ctx context.Context, checkoutRequestID string) error
}
