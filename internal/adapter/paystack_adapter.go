package adapter

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/UniNest-Housing/service-payment/internal/config"
	"github.com/UniNest-Housing/service-payment/internal/domain"
	"go.uber.org/zap"
)

// InitializeResult is the outcome of opening a remote transaction.
type InitializeResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// PaystackAdapter defines the Anti-Corruption Layer interface for the payment
// processor. It isolates the domain from the Paystack HTTP API; callers own
// retry policy for every operation.
type PaystackAdapter interface {
	// InitializeTransaction opens a remote transaction for the given amount in
	// minor units and returns the processor-assigned reference and the
	// authorization URL the customer completes payment on.
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, currency string, metadata map[string]string) (*InitializeResult, error)

	// VerifyTransaction asks the processor for the authoritative outcome of a
	// transaction. A returned error means the outcome is unknown, not failed.
	VerifyTransaction(ctx context.Context, reference string) (bool, error)

	// RefundTransaction refunds a charged transaction.
	RefundTransaction(ctx context.Context, reference string, amountMinor int64) (bool, error)

	// VerifyWebhookSignature checks the X-Signature header against the
	// HMAC-SHA512 digest of the raw, unparsed request body.
	VerifyWebhookSignature(rawBody []byte, signature string) bool
}

// paystackEnvelope is the common wrapper around every Paystack response.
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPPaystackAdapter talks to the live Paystack API.
type HTTPPaystackAdapter struct {
	baseURL     string
	secretKey   string
	callbackURL string
	client      *http.Client
	logger      *zap.Logger
}

// NewHTTPPaystackAdapter creates an adapter against the configured Paystack endpoint.
func NewHTTPPaystackAdapter(cfg config.PaystackConfig, logger *zap.Logger) *HTTPPaystackAdapter {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPPaystackAdapter{
		baseURL:     cfg.BaseURL,
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// InitializeTransaction opens a remote transaction via POST /transaction/initialize.
func (a *HTTPPaystackAdapter) InitializeTransaction(ctx context.Context, email string, amountMinor int64, currency string, metadata map[string]string) (*InitializeResult, error) {
	if amountMinor <= 0 {
		return nil, domain.NewUpstreamError("processor rejected non-positive amount", nil)
	}

	payload := map[string]any{
		"email":    email,
		"amount":   amountMinor,
		"currency": currency,
	}
	if a.callbackURL != "" {
		payload["callback_url"] = a.callbackURL
	}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := a.do(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}

	return &InitializeResult{
		Reference:        data.Reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

// VerifyTransaction fetches the authoritative transaction outcome via
// GET /transaction/verify/:reference.
func (a *HTTPPaystackAdapter) VerifyTransaction(ctx context.Context, reference string) (bool, error) {
	var data struct {
		Status string `json:"status"`
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := a.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return false, err
	}
	return data.Status == "success", nil
}

// RefundTransaction refunds a charged transaction via POST /refund.
func (a *HTTPPaystackAdapter) RefundTransaction(ctx context.Context, reference string, amountMinor int64) (bool, error) {
	payload := map[string]any{
		"transaction": reference,
		"amount":      amountMinor,
	}
	var data struct {
		Status string `json:"status"`
	}
	if err := a.do(ctx, http.MethodPost, "/refund", payload, &data); err != nil {
		return false, err
	}
	return true, nil
}

// VerifyWebhookSignature checks the X-Signature header against the HMAC-SHA512
// digest of the raw body, using a constant-time comparison.
func (a *HTTPPaystackAdapter) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return VerifySignature(a.secretKey, rawBody, signature)
}

// do issues one request and decodes the enveloped response into out.
// Any transport failure or processor-reported error surfaces as an upstream error.
func (a *HTTPPaystackAdapter) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.NewUpstreamError("paystack request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError("failed to read paystack response", err)
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return domain.NewUpstreamError(fmt.Sprintf("unexpected paystack response (http %d)", resp.StatusCode), err)
	}

	if resp.StatusCode >= 400 || !envelope.Status {
		a.logger.Warn("paystack rejected request",
			zap.String("path", path),
			zap.Int("http_status", resp.StatusCode),
			zap.String("message", envelope.Message),
		)
		return domain.NewUpstreamError(envelope.Message, nil)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return domain.NewUpstreamError("failed to decode paystack response data", err)
		}
	}
	return nil
}

// VerifySignature computes the HMAC-SHA512 hex digest of body with the shared
// secret and compares it byte-for-byte, in constant time, with the supplied
// signature.
func VerifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
