package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // push sent; awaiting provider callback
	PaymentStatusSuccess PaymentStatus = "success" // callback confirmed the charge
	PaymentStatusFailed  PaymentStatus = "failed"  // declined, malformed callback or timed out
)

// Payment records one purchase attempt. Status is monotonic: once a record
// leaves pending it never transitions again (the repository enforces this
// with a compare-and-set on the pending status).
type Payment struct {
	ID                string // UUID
	UserID            string
	PlanSlug          string
	PlanName          string
	Amount            int64 // KES
	Phone             string
	Status            PaymentStatus
	TransactionID     string // provider receipt number, set only on success
	CheckoutRequestID string // provider correlation id; join key to the broker and registry
	CreatedAt         time.Time
}

// PendingPurchase is the ephemeral record kept between push initiation and
// the provider callback, keyed by CheckoutRequestID in the shared registry.
type PendingPurchase struct {
	UserID   string `json:"user_id"`
	PlanName string `json:"plan_name"`
	Duration string `json:"duration"` // human readable, e.g. "1 Day"
}

// PaymentResult carries the confirmation metadata the provider reports for a
// successful charge.
type PaymentResult struct {
	Amount        float64 `json:"amount"`
	ReceiptNumber string  `json:"receiptNumber"`
	PhoneNumber   string  `json:"phoneNumber"`
}

// PurchaseResult is what the purchase caller ultimately receives. After the
// payment record is persisted the orchestrator never surfaces raw errors;
// failures become Success=false plus a human-readable message.
type PurchaseResult struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Metadata *PaymentResult `json:"metadata,omitempty"`
}
