package adapter

import "context"

// PaymentRequest describes one push-payment initiation. Amount is the typed
// plan price; formatting for the provider wire format happens inside the
// gateway adapter.
type PaymentRequest struct {
	UserID      string
	Phone       string
	Amount      int64
	PlanName    string // used as the provider account reference
	Duration    string // human-readable subscription length, remembered for the callback
	Description string
}

// PaymentInitiation is the provider's acknowledgment of a push request.
// CheckoutRequestID correlates the later asynchronous callback.
type PaymentInitiation struct {
	CheckoutRequestID string
	MerchantRequestID string
}

// PaymentGateway is the hex port for the external payment provider.
//
// InitiatePayment submits a push request. On success the gateway records the
// pending purchase in the shared registry before returning, so a callback
// arriving on any instance can resolve it. On failure it returns a
// *domain.GatewayError classifying the provider's error code and no registry
// entry is created.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInitiation, error)
}
