package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrAlreadyExists        = errors.New("entity already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrOperationFailed      = errors.New("operation failed")
	ErrPlanNotFound         = errors.New("plan does not exist")
	ErrMalformedCallback    = errors.New("invalid callback payload")
	ErrUnknownTransaction   = errors.New("customer info is not available")
	ErrConfirmationTimedOut = errors.New("payment confirmation timed out")
	ErrGatewayUnreachable   = errors.New("network gateway unreachable")
	ErrPurchaseInProgress   = errors.New("another purchase is already in progress")
)

// PaymentDeclinedError is returned by the confirmation broker when the
// provider reported a terminal failure for the transaction. Message is the
// user-facing text mapped from the provider result code.
type PaymentDeclinedError struct {
	Message string
}

func (e *PaymentDeclinedError) Error() string { return e.Message }

// GatewayErrorKind classifies failures reported by the payment provider
// when a push request is submitted.
type GatewayErrorKind int

const (
	GatewayUpstreamUnavailable GatewayErrorKind = iota
	GatewayUserCancelled
	GatewayInvalidCredential
	GatewayInsufficientFunds
	GatewayRequestTimedOut
	GatewayInvalidRecipient
	GatewayRateLimited
)

// GatewayError is the typed error returned by the payment gateway adapter.
// The orchestrator matches on Kind instead of parsing provider strings.
type GatewayError struct {
	Kind    GatewayErrorKind
	Code    string // raw provider error code, if any
	Message string // human-readable message for the purchase caller
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment gateway: %s (code %s)", e.Message, e.Code)
	}
	return "payment gateway: " + e.Message
}

// NewGatewayError builds a classified gateway error.
func NewGatewayError(kind GatewayErrorKind, code, message string) *GatewayError {
	return &GatewayError{Kind: kind, Code: code, Message: message}
}
