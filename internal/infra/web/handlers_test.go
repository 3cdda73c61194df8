//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
)

type stubPurchaseUC struct {
	res    *model.PurchaseResult
	err    error
	userID string
}

func (s *stubPurchaseUC) Purchase(_ context.Context, userID, _, _ string) (*model.PurchaseResult, error) {
	s.userID = userID
	return s.res, s.err
}

type stubCallbackUC struct {
	err error
	cb  *model.StkCallback
}

func (s *stubCallbackUC) HandleCallback(_ context.Context, cb *model.StkCallback) error {
	s.cb = cb
	return s.err
}

type stubPlanUC struct {
	plans []*model.Plan
	err   error
}

func (s *stubPlanUC) Create(_ context.Context, name, slug string, price int64, duration, description string) (*model.Plan, error) {
	return nil, nil
}
func (s *stubPlanUC) FindBySlug(_ context.Context, slug string) (*model.Plan, error) {
	return nil, domain.ErrNotFound
}
func (s *stubPlanUC) ListAll(_ context.Context) ([]*model.Plan, error) { return s.plans, s.err }

const testSecret = "test-secret"

func newTestServer(purchase *stubPurchaseUC, callback *stubCallbackUC, plans *stubPlanUC) http.Handler {
	log := zerolog.Nop()
	if purchase == nil {
		purchase = &stubPurchaseUC{}
	}
	if callback == nil {
		callback = &stubCallbackUC{}
	}
	if plans == nil {
		plans = &stubPlanUC{}
	}
	return NewServer(purchase, callback, plans, testSecret, &log).Routes()
}

func signToken(t *testing.T, subject, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestPurchaseEndpoint(t *testing.T) {
	purchaseBody := `{"plan":"basic","phone":"0712345678"}`

	t.Run("requires a token", func(t *testing.T) {
		srv := newTestServer(nil, nil, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/purchase", strings.NewReader(purchaseBody)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("rejects a token signed with the wrong secret", func(t *testing.T) {
		srv := newTestServer(nil, nil, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/payments/purchase", strings.NewReader(purchaseBody))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", "wrong-secret"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("passes the token subject as the user id", func(t *testing.T) {
		purchase := &stubPurchaseUC{res: &model.PurchaseResult{Success: true, Message: "Payment successful"}}
		srv := newTestServer(purchase, nil, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/payments/purchase", strings.NewReader(purchaseBody))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "u-42", testSecret))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if purchase.userID != "u-42" {
			t.Fatalf("user id = %q, want u-42", purchase.userID)
		}
		var res model.PurchaseResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !res.Success {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		srv := newTestServer(nil, nil, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/payments/purchase", strings.NewReader(`{"plan":"basic"}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", testSecret))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("maps initiation errors to statuses", func(t *testing.T) {
		cases := []struct {
			name       string
			err        error
			wantStatus int
			wantMsg    string
		}{
			{"plan not found", domain.ErrPlanNotFound, http.StatusNotFound, "Plan does not exist"},
			{"purchase in progress", domain.ErrPurchaseInProgress, http.StatusConflict, "Another purchase is already in progress"},
			{"upstream down", domain.NewGatewayError(domain.GatewayUpstreamUnavailable, "", "MPesa service is unavailable, try again later"), http.StatusServiceUnavailable, "MPesa service is unavailable, try again later"},
			{"bad pin", domain.NewGatewayError(domain.GatewayInvalidCredential, "1032", "Invalid MPesa PIN"), http.StatusUnauthorized, "Invalid MPesa PIN"},
			{"no funds", domain.NewGatewayError(domain.GatewayInsufficientFunds, "1", "Insufficient funds in MPesa account"), http.StatusBadRequest, "Insufficient funds in MPesa account"},
			{"push timeout", domain.NewGatewayError(domain.GatewayRequestTimedOut, "1037", "User did not respond to MPesa prompt"), http.StatusRequestTimeout, "User did not respond to MPesa prompt"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				srv := newTestServer(&stubPurchaseUC{err: tc.err}, nil, nil)
				req := httptest.NewRequest(http.MethodPost, "/api/payments/purchase", strings.NewReader(purchaseBody))
				req.Header.Set("Authorization", "Bearer "+signToken(t, "u-1", testSecret))
				rec := httptest.NewRecorder()
				srv.ServeHTTP(rec, req)

				if rec.Code != tc.wantStatus {
					t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
				}
				var body failureResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body.Success || body.Message != tc.wantMsg {
					t.Fatalf("body = %+v", body)
				}
			})
		}
	})
}

func TestCallbackEndpoint(t *testing.T) {
	validBody := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":0,"CallbackMetadata":{"Item":[{"Name":"Amount","Value":50},{"Name":"MpesaReceiptNumber","Value":"QGR7TEST"},{"Name":"PhoneNumber","Value":254712345678}]}}}}`

	t.Run("accepts a handled callback", func(t *testing.T) {
		callback := &stubCallbackUC{}
		srv := newTestServer(nil, callback, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/mpesa/callback", strings.NewReader(validBody)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var ack map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
			t.Fatalf("decode ack: %v", err)
		}
		if ack["ResultCode"] != float64(0) {
			t.Fatalf("ack = %v", ack)
		}
		if callback.cb == nil || callback.cb.CheckoutRequestID != "ws_CO_1" {
			t.Fatalf("callback not forwarded: %+v", callback.cb)
		}
	})

	t.Run("rejects a body without stkCallback", func(t *testing.T) {
		srv := newTestServer(nil, nil, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/mpesa/callback", strings.NewReader(`{"Body":{}}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects malformed metadata", func(t *testing.T) {
		srv := newTestServer(nil, &stubCallbackUC{err: domain.ErrMalformedCallback}, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/mpesa/callback", strings.NewReader(validBody)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects an unknown transaction", func(t *testing.T) {
		srv := newTestServer(nil, &stubCallbackUC{err: domain.ErrUnknownTransaction}, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/mpesa/callback", strings.NewReader(validBody)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestPlansEndpoint(t *testing.T) {
	plans := &stubPlanUC{plans: []*model.Plan{
		{ID: "p-1", Name: "Basic", Slug: "basic", Price: 50, Duration: "1 Day", Description: "1 day of access"},
		{ID: "p-2", Name: "Standard", Slug: "standard", Price: 500, Duration: "1 Week", Description: "1 week of access"},
	}}
	srv := newTestServer(nil, nil, plans)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []planResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out) != 2 || out[0].Slug != "basic" || out[1].Price != 500 {
		t.Fatalf("body = %+v", out)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
}
