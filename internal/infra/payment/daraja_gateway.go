package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"captive-wifi-billing/internal/config"
	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/adapter"
	"captive-wifi-billing/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ adapter.PaymentGateway = (*DarajaGateway)(nil)

// DarajaGateway implements the payment port against the Safaricom Daraja
// STK push API.
type DarajaGateway struct {
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string
	baseURL        string
	client         *http.Client
	pending        repository.PendingPurchaseRepository
	log            *zerolog.Logger
}

// NewDarajaGateway creates a Daraja gateway adapter. The pending repository
// is written on every successful push so the callback, possibly handled by a
// different instance, can find the purchase.
func NewDarajaGateway(cfg *config.MpesaConfig, pending repository.PendingPurchaseRepository, logger *zerolog.Logger) *DarajaGateway {
	baseURL := "https://api.safaricom.co.ke"
	if cfg.Sandbox {
		baseURL = "https://sandbox.safaricom.co.ke"
	}
	gwLog := logger.With().Str("component", "DarajaGateway").Logger()
	return &DarajaGateway{
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortcode:      cfg.Shortcode,
		passkey:        cfg.Passkey,
		callbackURL:    cfg.CallbackURL,
		baseURL:        baseURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		pending:        pending,
		log:            &gwLog,
	}
}

type darajaAuthResponse struct {
	AccessToken string `json:"access_token"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type darajaErrorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// NormalizePhone strips non-digit characters and rewrites a leading
// national-format 0 to the 254 international prefix. A number already
// carrying the prefix passes through; any other form is returned digits-only,
// unvalidated.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if strings.HasPrefix(normalized, "0") {
		return "254" + normalized[1:]
	}
	return normalized
}

// accessToken exchanges the configured credentials for a short-lived bearer
// token. No caching: each push re-authenticates.
func (g *DarajaGateway) accessToken(ctx context.Context) (string, error) {
	url := g.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.consumerKey, g.consumerSecret)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error().Err(err).Msg("access token request failed")
		return "", domain.NewGatewayError(domain.GatewayUpstreamUnavailable, "", "MPesa service is unavailable, try again later")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		g.log.Error().Int("status", resp.StatusCode).Bytes("body", body).Msg("access token rejected")
		return "", domain.NewGatewayError(domain.GatewayUpstreamUnavailable, "", "MPesa service is unavailable, try again later")
	}

	var auth darajaAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", domain.NewGatewayError(domain.GatewayUpstreamUnavailable, "", "MPesa service is unavailable, try again later")
	}
	return auth.AccessToken, nil
}

// InitiatePayment signs and submits an STK push. The pending purchase is
// stored before the initiation is returned; nothing is stored when the
// submission fails.
func (g *DarajaGateway) InitiatePayment(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInitiation, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrInvalidArgument)
	}

	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(g.shortcode + g.passkey + timestamp))
	phone := NormalizePhone(req.Phone)

	body := stkPushRequest{
		BusinessShortCode: g.shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            strconv.FormatInt(req.Amount, 10),
		PartyA:            phone,
		PartyB:            g.shortcode,
		PhoneNumber:       phone,
		CallBackURL:       g.callbackURL,
		AccountReference:  req.PlanName,
		TransactionDesc:   req.Description,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal stk push request: %w", err)
	}

	url := g.baseURL + "/mpesa/stkpush/v1/processrequest"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.log.Error().Err(err).Msg("stk push request failed")
		return nil, domain.NewGatewayError(domain.GatewayUpstreamUnavailable, "", "MPesa service is unavailable, try again later")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewGatewayError(domain.GatewayUpstreamUnavailable, "", "MPesa service is unavailable, try again later")
	}

	if resp.StatusCode != http.StatusOK {
		var errResp darajaErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		g.log.Warn().
			Int("status", resp.StatusCode).
			Str("error_code", errResp.ErrorCode).
			Str("error_message", errResp.ErrorMessage).
			Msg("stk push rejected")
		return nil, classifyPushError(errResp.ErrorCode, errResp.ErrorMessage)
	}

	var push stkPushResponse
	if err := json.Unmarshal(respBody, &push); err != nil {
		return nil, fmt.Errorf("unmarshal stk push response: %w, body: %s", err, string(respBody))
	}

	// Remember the purchase before handing the correlation id back, so the
	// callback can never race ahead of the registry write.
	pp := &model.PendingPurchase{
		UserID:   req.UserID,
		PlanName: req.PlanName,
		Duration: req.Duration,
	}
	if err := g.pending.Set(ctx, push.CheckoutRequestID, pp); err != nil {
		return nil, fmt.Errorf("store pending purchase: %w", err)
	}

	return &adapter.PaymentInitiation{
		CheckoutRequestID: push.CheckoutRequestID,
		MerchantRequestID: push.MerchantRequestID,
	}, nil
}

// classifyPushError turns a Daraja error code into the typed taxonomy the
// orchestrator matches on.
func classifyPushError(code, message string) *domain.GatewayError {
	switch code {
	case "1032": // user cancelled or wrong PIN
		if strings.Contains(strings.ToLower(message), "cancel") {
			return domain.NewGatewayError(domain.GatewayUserCancelled, code, "Transaction cancelled by user")
		}
		return domain.NewGatewayError(domain.GatewayInvalidCredential, code, "Invalid MPesa PIN")
	case "1":
		return domain.NewGatewayError(domain.GatewayInsufficientFunds, code, "Insufficient funds in MPesa account")
	case "1037":
		return domain.NewGatewayError(domain.GatewayRequestTimedOut, code, "User did not respond to MPesa prompt")
	case "400.002.02":
		if strings.Contains(message, "not on") {
			return domain.NewGatewayError(domain.GatewayInvalidRecipient, code, "Phone number not registered on MPesa")
		}
		return domain.NewGatewayError(domain.GatewayInvalidRecipient, code, message)
	case "2001":
		return domain.NewGatewayError(domain.GatewayRateLimited, code, "Transaction limit exceeded")
	default:
		return domain.NewGatewayError(domain.GatewayUpstreamUnavailable, code, "MPesa service is unavailable, try again later")
	}
}
