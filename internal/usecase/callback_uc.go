package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/adapter"
	"captive-wifi-billing/internal/domain/ports/repository"
	"captive-wifi-billing/internal/infra/metrics"
)

// Compile-time check
var _ CallbackUseCase = (*callbackUC)(nil)

type CallbackUseCase interface {
	// HandleCallback validates the provider callback, resolves the waiting
	// purchase through the broker, and on success grants network access
	// and schedules its revocation. Grant and scheduling are best-effort;
	// their failure never fails the callback.
	HandleCallback(ctx context.Context, cb *model.StkCallback) error
}

type callbackUC struct {
	pending repository.PendingPurchaseRepository
	users   repository.UserRepository
	broker  adapter.ConfirmationBroker
	network adapter.NetworkController
	revoker adapter.RevocationScheduler
	log     *zerolog.Logger
}

func NewCallbackUseCase(
	pending repository.PendingPurchaseRepository,
	users repository.UserRepository,
	broker adapter.ConfirmationBroker,
	network adapter.NetworkController,
	revoker adapter.RevocationScheduler,
	logger *zerolog.Logger,
) *callbackUC {
	ucLog := logger.With().Str("component", "CallbackUseCase").Logger()
	return &callbackUC{
		pending: pending,
		users:   users,
		broker:  broker,
		network: network,
		revoker: revoker,
		log:     &ucLog,
	}
}

func (uc *callbackUC) HandleCallback(ctx context.Context, cb *model.StkCallback) error {
	if cb == nil || cb.CheckoutRequestID == "" {
		metrics.IncWebhookCallback("malformed")
		return domain.ErrMalformedCallback
	}

	// A non-zero result code is terminal; metadata is not consulted.
	if cb.ResultCode != 0 {
		metrics.IncWebhookCallback("failed")
		return uc.broker.ResolveFailure(ctx, cb.CheckoutRequestID, strconv.Itoa(cb.ResultCode))
	}

	metadata := flattenMetadata(cb.CallbackMetadata)
	amount, amountOK := toFloat(metadata["Amount"])
	receipt, receiptOK := toString(metadata["MpesaReceiptNumber"])
	phone, phoneOK := toString(metadata["PhoneNumber"])
	if !amountOK || !receiptOK || !phoneOK || receipt == "" || phone == "" {
		metrics.IncWebhookCallback("malformed")
		return domain.ErrMalformedCallback
	}

	pp, err := uc.pending.Find(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncWebhookCallback("unknown")
			return domain.ErrUnknownTransaction
		}
		return err
	}

	result := &model.PaymentResult{Amount: amount, ReceiptNumber: receipt, PhoneNumber: phone}
	if err := uc.broker.ResolveSuccess(ctx, cb.CheckoutRequestID, result); err != nil {
		// Registry entry is kept so a provider retry can still resolve.
		return err
	}

	uc.grantAndScheduleExpiry(ctx, pp)

	// Cleanup must run even when grant or scheduling failed above.
	if err := uc.pending.Delete(ctx, cb.CheckoutRequestID); err != nil {
		uc.log.Warn().Err(err).Str("checkout_request_id", cb.CheckoutRequestID).Msg("pending purchase cleanup failed")
	}
	metrics.IncWebhookCallback("success")
	return nil
}

// grantAndScheduleExpiry gives the paying user network access and schedules
// its revocation at plan expiry. Failures are logged, not propagated: the
// payment stands, but a paid user may be left without access for an operator
// to reconcile.
func (uc *callbackUC) grantAndScheduleExpiry(ctx context.Context, pp *model.PendingPurchase) {
	user, err := uc.users.FindByID(ctx, pp.UserID)
	if err != nil {
		uc.log.Error().Err(err).Str("user_id", pp.UserID).Msg("paid user lookup failed; access not granted")
		return
	}
	if user.MAC == "" || user.IP == "" {
		uc.log.Error().Str("user_id", user.ID).Msg("paid user has no known mac/ip; access not granted")
		return
	}

	err = uc.network.Grant(ctx, user.MAC, user.IP)
	metrics.IncAccessChange("grant", err == nil)
	if err != nil {
		uc.log.Error().Err(err).Str("user_id", user.ID).Str("ip", user.IP).Msg("network grant failed for paid user")
		return
	}

	days := model.DurationDays(pp.Duration)
	if days <= 0 {
		uc.log.Error().Str("user_id", user.ID).Str("duration", pp.Duration).Msg("unparseable plan duration; revocation not scheduled")
		return
	}
	uc.revoker.Schedule(user.ID, user.MAC, user.IP, time.Duration(days)*24*time.Hour)
}

func flattenMetadata(md *model.CallbackMetadata) map[string]interface{} {
	out := make(map[string]interface{})
	if md == nil {
		return out
	}
	for _, item := range md.Item {
		out[item.Name] = item.Value
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toString accepts strings and numbers; the provider sends PhoneNumber as a
// number.
func toString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case json.Number:
		return s.String(), true
	default:
		return "", false
	}
}
