package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/adapter"
	"captive-wifi-billing/internal/domain/ports/repository"
	"captive-wifi-billing/internal/infra/metrics"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

type PurchaseUseCase interface {
	// Purchase drives one payment attempt end to end: initiate the push,
	// persist a pending record, wait for the asynchronous confirmation and
	// finalize. After the record is persisted it always returns a
	// structured result, never a raw post-initiation error.
	Purchase(ctx context.Context, userID, planSlug, phone string) (*model.PurchaseResult, error)
}

// PurchaseLocker guards one in-flight purchase per user across instances.
type PurchaseLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type purchaseUC struct {
	payments repository.PaymentRepository
	plans    repository.PlanRepository
	gateway  adapter.PaymentGateway
	broker   adapter.ConfirmationBroker
	locker   PurchaseLocker
	timeout  time.Duration
	log      *zerolog.Logger
}

func NewPurchaseUseCase(
	payments repository.PaymentRepository,
	plans repository.PlanRepository,
	gateway adapter.PaymentGateway,
	broker adapter.ConfirmationBroker,
	locker PurchaseLocker,
	confirmTimeout time.Duration,
	logger *zerolog.Logger,
) *purchaseUC {
	ucLog := logger.With().Str("component", "PurchaseUseCase").Logger()
	return &purchaseUC{
		payments: payments,
		plans:    plans,
		gateway:  gateway,
		broker:   broker,
		locker:   locker,
		timeout:  confirmTimeout,
		log:      &ucLog,
	}
}

func (uc *purchaseUC) Purchase(ctx context.Context, userID, planSlug, phone string) (*model.PurchaseResult, error) {
	plan, err := uc.plans.FindBySlug(ctx, planSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	// Concurrent purchases for one user would race on the confirmation
	// channel; only one may be in flight at a time.
	lockKey := "purchase_lock:" + userID
	token, err := uc.locker.TryLock(ctx, lockKey, uc.timeout+30*time.Second)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Request context may be done by now; unlock anyway.
		if err := uc.locker.Unlock(context.Background(), lockKey, token); err != nil {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("purchase lock release failed")
		}
	}()

	description := fmt.Sprintf("Payment for %s plan - %s subscription", plan.Name, plan.Duration)
	initiation, err := uc.gateway.InitiatePayment(ctx, adapter.PaymentRequest{
		UserID:      userID,
		Phone:       phone,
		Amount:      plan.Price,
		PlanName:    plan.Name,
		Duration:    plan.Duration,
		Description: description,
	})
	if err != nil {
		// Classified initiation failure: no record is created.
		return nil, err
	}

	record := &model.Payment{
		ID:                uuid.NewString(),
		UserID:            userID,
		PlanSlug:          plan.Slug,
		PlanName:          plan.Name,
		Amount:            plan.Price,
		Phone:             phone,
		Status:            model.PaymentStatusPending,
		CheckoutRequestID: initiation.CheckoutRequestID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := uc.payments.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("persist payment record: %w", err)
	}

	result, err := uc.broker.Await(ctx, initiation.CheckoutRequestID, uc.timeout)
	if err != nil {
		if _, uerr := uc.payments.UpdateStatusIfPending(ctx, record.ID, model.PaymentStatusFailed, ""); uerr != nil {
			uc.log.Error().Err(uerr).Str("payment_id", record.ID).Msg("failed to mark payment failed")
		}
		metrics.IncPayment(string(model.PaymentStatusFailed))
		uc.log.Info().
			Str("payment_id", record.ID).
			Str("checkout_request_id", initiation.CheckoutRequestID).
			Err(err).
			Msg("purchase failed")
		return &model.PurchaseResult{Success: false, Message: failureMessage(err)}, nil
	}

	if _, err := uc.payments.UpdateStatusIfPending(ctx, record.ID, model.PaymentStatusSuccess, result.ReceiptNumber); err != nil {
		// The customer was charged; surface success and leave the record
		// to reconciliation.
		uc.log.Error().Err(err).Str("payment_id", record.ID).Msg("failed to finalize successful payment")
	}
	metrics.IncPayment(string(model.PaymentStatusSuccess))
	metrics.AddPaymentRevenue("kes", plan.Price)
	uc.log.Info().
		Str("payment_id", record.ID).
		Str("receipt", result.ReceiptNumber).
		Msg("purchase succeeded")

	return &model.PurchaseResult{Success: true, Message: "Payment successful", Metadata: result}, nil
}

// failureMessage converts a post-initiation failure into the human-readable
// message the purchase caller sees.
func failureMessage(err error) string {
	if errors.Is(err, domain.ErrConfirmationTimedOut) {
		return "Payment confirmation timed out. Try again."
	}
	var declined *domain.PaymentDeclinedError
	if errors.As(err, &declined) {
		return declined.Message
	}
	return "Payment failed"
}
