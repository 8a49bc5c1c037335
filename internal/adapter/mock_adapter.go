package adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockPaystackAdapter is a development/testing implementation of
// PaystackAdapter. It simulates the processor without requiring live
// credentials: every transaction initializes and verifies as successful.
type MockPaystackAdapter struct {
	secret string
	logger *zap.Logger
}

// NewMockPaystackAdapter creates a new mock processor adapter for development.
func NewMockPaystackAdapter(secret string, logger *zap.Logger) *MockPaystackAdapter {
	return &MockPaystackAdapter{secret: secret, logger: logger}
}

// InitializeTransaction simulates opening a transaction and returns mock identifiers.
func (m *MockPaystackAdapter) InitializeTransaction(ctx context.Context, email string, amountMinor int64, currency string, metadata map[string]string) (*InitializeResult, error) {
	reference := fmt.Sprintf("ps_mock_%s", uuid.New().String()[:8])

	m.logger.Info("[MOCK PAYSTACK] transaction initialized",
		zap.String("reference", reference),
		zap.Int64("amount_minor", amountMinor),
		zap.String("currency", currency),
		zap.String("email", email),
	)

	return &InitializeResult{
		Reference:        reference,
		AuthorizationURL: fmt.Sprintf("https://checkout.paystack.test/%s", reference),
		AccessCode:       fmt.Sprintf("%s_access", reference),
	}, nil
}

// VerifyTransaction simulates a successful charge.
func (m *MockPaystackAdapter) VerifyTransaction(ctx context.Context, reference string) (bool, error) {
	m.logger.Info("[MOCK PAYSTACK] transaction verified",
		zap.String("reference", reference),
	)
	return true, nil
}

// RefundTransaction simulates a successful refund.
func (m *MockPaystackAdapter) RefundTransaction(ctx context.Context, reference string, amountMinor int64) (bool, error) {
	m.logger.Info("[MOCK PAYSTACK] refund created",
		zap.String("reference", reference),
		zap.Int64("amount_minor", amountMinor),
	)
	return true, nil
}

// VerifyWebhookSignature checks signatures with the configured mock secret.
func (m *MockPaystackAdapter) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return VerifySignature(m.secret, rawBody, signature)
}
