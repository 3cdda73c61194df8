package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/usecase"
)

type purchaseRequest struct {
	Plan  string `json:"plan"`
	Phone string `json:"phone"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// purchaseHandler runs a purchase for the authenticated user. The response is
// always a structured success/failure body; only initiation errors carry
// non-200 statuses.
func purchaseHandler(purchaseUC usecase.PurchaseUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, ok := UserID(ctx)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req purchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Plan == "" || req.Phone == "" {
			http.Error(w, "plan and phone are required", http.StatusBadRequest)
			return
		}

		result, err := purchaseUC.Purchase(ctx, userID, req.Plan, req.Phone)
		if err != nil {
			writePurchaseError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func writePurchaseError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrPlanNotFound):
		writeJSON(w, http.StatusNotFound, failureResponse{Message: "Plan does not exist"})
		return
	case errors.Is(err, domain.ErrPurchaseInProgress):
		writeJSON(w, http.StatusConflict, failureResponse{Message: "Another purchase is already in progress"})
		return
	}

	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		writeJSON(w, gatewayErrorStatus(gwErr.Kind), failureResponse{Message: gwErr.Message})
		return
	}

	log.Error().Err(err).Msg("purchase failed before initiation completed")
	writeJSON(w, http.StatusInternalServerError, failureResponse{Message: "Payment failed"})
}

func gatewayErrorStatus(kind domain.GatewayErrorKind) int {
	switch kind {
	case domain.GatewayInvalidCredential:
		return http.StatusUnauthorized
	case domain.GatewayRequestTimedOut:
		return http.StatusRequestTimeout
	case domain.GatewayUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default: // cancelled, insufficient funds, invalid recipient, rate limited
		return http.StatusBadRequest
	}
}

// callbackHandler ingests the provider webhook. The provider only needs an
// HTTP-level acknowledgment, never a business payload.
func callbackHandler(callbackUC usecase.CallbackUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env model.CallbackEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil || env.Body.StkCallback == nil {
			http.Error(w, "Invalid callback payload", http.StatusBadRequest)
			return
		}

		err := callbackUC.HandleCallback(r.Context(), env.Body.StkCallback)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]interface{}{"ResultCode": 0, "ResultDesc": "Accepted"})
		case errors.Is(err, domain.ErrMalformedCallback):
			http.Error(w, "Callback metadata is missing required fields", http.StatusBadRequest)
		case errors.Is(err, domain.ErrUnknownTransaction):
			http.Error(w, "Customer info is not available", http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("callback handling failed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}
}

type planResponse struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Price       int64  `json:"price"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

func plansListHandler(planUC usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := planUC.ListAll(r.Context())
		if err != nil {
			http.Error(w, "Failed to list plans", http.StatusInternalServerError)
			return
		}
		out := make([]planResponse, 0, len(plans))
		for _, p := range plans {
			out = append(out, planResponse{
				Name:        p.Name,
				Slug:        p.Slug,
				Price:       p.Price,
				Duration:    p.Duration,
				Description: p.Description,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
