package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

var _ adapter.ConfirmationBroker = (*ConfirmationBroker)(nil)

// pendingMarkerTTL bounds how long an unresolved transaction occupies Redis
// when no callback ever arrives.
const pendingMarkerTTL = 5 * time.Minute

const defaultFailureMessage = "Payment failed"

// mpesaErrorMessages maps provider result codes to user-facing messages.
var mpesaErrorMessages = map[string]string{
	"1037": "Could not reach your phone. Try again.",
	"1025": "System error. Please try again.",
	"9999": "Unknown error. Try again.",
	"1032": "You cancelled the request.",
	"1":    "Insufficient balance. Top up or use an overdraft facility.",
	"2001": "Invalid PIN. Try again.",
	"1019": "Transaction expired. Try again.",
	"1001": "Another transaction is in progress. Please wait.",
}

type paymentMessage struct {
	Status string               `json:"status"` // success | failed
	Result *model.PaymentResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// ConfirmationBroker bridges a purchase request waiting for an outcome and
// the webhook handler that produces it through Redis pub/sub, so the two may
// run on different instances.
type ConfirmationBroker struct {
	client RedisClient
	log    *zerolog.Logger
}

func NewConfirmationBroker(client RedisClient, logger *zerolog.Logger) *ConfirmationBroker {
	brokerLog := logger.With().Str("component", "ConfirmationBroker").Logger()
	return &ConfirmationBroker{client: client, log: &brokerLog}
}

func (b *ConfirmationBroker) channel(checkoutRequestID string) string {
	return "payment:" + checkoutRequestID
}

// Await marks the transaction pending, subscribes to its channel and blocks
// until a resolution arrives or timeout elapses. On timeout the pending
// marker is left to expire via its TTL.
func (b *ConfirmationBroker) Await(ctx context.Context, checkoutRequestID string, timeout time.Duration) (*model.PaymentResult, error) {
	if err := b.client.Set(ctx, checkoutRequestID, "PENDING", pendingMarkerTTL); err != nil {
		return nil, fmt.Errorf("mark pending: %w", err)
	}

	sub, err := b.client.Subscribe(ctx, b.channel(checkoutRequestID))
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload, ok := <-sub.Messages():
		if !ok {
			return nil, fmt.Errorf("confirmation channel closed")
		}
		_ = b.client.Del(ctx, checkoutRequestID)

		var msg paymentMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("decode confirmation: %w", err)
		}
		if msg.Status == "success" && msg.Result != nil {
			return msg.Result, nil
		}
		if msg.Error == "" {
			msg.Error = defaultFailureMessage
		}
		return nil, &domain.PaymentDeclinedError{Message: msg.Error}
	case <-timer.C:
		return nil, domain.ErrConfirmationTimedOut
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ResolveSuccess publishes a terminal success outcome for the transaction.
func (b *ConfirmationBroker) ResolveSuccess(ctx context.Context, checkoutRequestID string, result *model.PaymentResult) error {
	return b.publish(ctx, checkoutRequestID, &paymentMessage{Status: "success", Result: result})
}

// ResolveFailure maps the provider result code to a user-facing message and
// publishes a terminal failure outcome.
func (b *ConfirmationBroker) ResolveFailure(ctx context.Context, checkoutRequestID, resultCode string) error {
	message, ok := mpesaErrorMessages[resultCode]
	if !ok {
		message = defaultFailureMessage
	}
	b.log.Info().
		Str("checkout_request_id", checkoutRequestID).
		Str("result_code", resultCode).
		Msg("publishing payment failure")
	return b.publish(ctx, checkoutRequestID, &paymentMessage{Status: "failed", Error: message})
}

func (b *ConfirmationBroker) publish(ctx context.Context, checkoutRequestID string, msg *paymentMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	receivers, err := b.client.Publish(ctx, b.channel(checkoutRequestID), data)
	if err != nil {
		return err
	}
	if receivers == 0 {
		// No waiter left. If the pending marker is also gone the waiter's
		// TTL already evicted it and this resolution is lost for good.
		if _, err := b.client.Get(ctx, checkoutRequestID); errors.Is(err, redis.Nil) {
			b.log.Warn().
				Str("checkout_request_id", checkoutRequestID).
				Msg("resolution dropped: no subscriber and pending marker expired")
		}
	}
	return nil
}
