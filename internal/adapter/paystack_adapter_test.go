package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UniNest-Housing/service-payment/internal/config"
	"github.com/UniNest-Housing/service-payment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*HTTPPaystackAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	adapter := NewHTTPPaystackAdapter(config.PaystackConfig{
		SecretKey: "sk_test_secret",
		BaseURL:   server.URL,
	}, zap.NewNop())
	return adapter, server
}

func TestInitializeTransaction(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "student@example.com", payload["email"])
		assert.Equal(t, float64(450000), payload["amount"])
		assert.Equal(t, "NGN", payload["currency"])

		json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.example.com/abc123",
				"access_code":       "abc123",
				"reference":         "ps_ref_42",
			},
		})
	})

	result, err := adapter.InitializeTransaction(context.Background(), "student@example.com", 450000, "NGN", nil)
	require.NoError(t, err)
	assert.Equal(t, "ps_ref_42", result.Reference)
	assert.Equal(t, "https://checkout.example.com/abc123", result.AuthorizationURL)
	assert.Equal(t, "abc123", result.AccessCode)
}

func TestInitializeTransactionProcessorError(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "Invalid key",
		})
	})

	_, err := adapter.InitializeTransaction(context.Background(), "student@example.com", 450000, "NGN", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestVerifyTransaction(t *testing.T) {
	tests := []struct {
		name      string
		apiStatus string
		want      bool
	}{
		{"charge succeeded", "success", true},
		{"charge failed", "failed", false},
		{"still pending", "abandoned", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/ps_ref_42", r.URL.Path)
				json.NewEncoder(w).Encode(map[string]any{
					"status":  true,
					"message": "Verification successful",
					"data":    map[string]any{"status": tc.apiStatus},
				})
			})

			succeeded, err := adapter.VerifyTransaction(context.Background(), "ps_ref_42")
			require.NoError(t, err)
			assert.Equal(t, tc.want, succeeded)
		})
	}
}

func TestVerifyTransactionTransportError(t *testing.T) {
	adapter, server := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := adapter.VerifyTransaction(context.Background(), "ps_ref_42")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestRefundTransaction(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/refund", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ps_ref_42", payload["transaction"])
		assert.Equal(t, float64(450000), payload["amount"])

		json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Refund has been queued for processing",
			"data":    map[string]any{"status": "pending"},
		})
	})

	ok, err := adapter.RefundTransaction(context.Background(), "ps_ref_42", 450000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifySignature(t *testing.T) {
	secret := "sk_test_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"ps_ref_42"}}`)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifySignature(secret, body, valid))
	assert.False(t, VerifySignature(secret, body, "deadbeef"))
	assert.False(t, VerifySignature(secret, body, ""))
	assert.False(t, VerifySignature("wrong_secret", body, valid))
	assert.False(t, VerifySignature(secret, append(body, ' '), valid),
		"signature must cover the exact raw bytes")
}
