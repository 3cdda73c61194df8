package repository

import (
	"context"

	"captive-wifi-billing/internal/domain/model"
)

// PaymentRepository is the port for payment record persistence.
type PaymentRepository interface {
	Save(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*model.Payment, error)
	// UpdateStatusIfPending finalizes a record only when it is still
	// pending, keeping the status transition monotonic. transactionID is
	// ignored when empty. Returns false when the record already reached a
	// terminal status.
	UpdateStatusIfPending(ctx context.Context, id string, status model.PaymentStatus, transactionID string) (bool, error)
}
