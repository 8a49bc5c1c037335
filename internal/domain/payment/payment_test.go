package payment

import (
	"errors"
	"testing"

	"github.com/UniNest-Housing/service-payment/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	bookingID := uuid.New()
	p := NewPayment(uuid.New(), &bookingID, 450000, "NGN", "card", "student@example.com", "Hostel deposit", nil)
	require.NoError(t, p.AttachReference("ps_ref_test_1"))
	return p
}

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusRefunded, false},
		{StatusPending, StatusPending, false},
		{StatusCompleted, StatusRefunded, true},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusPending, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusRefunded, false},
		{StatusRefunded, StatusCompleted, false},
		{StatusRefunded, StatusPending, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusRefunded.Terminal())
}

func TestNewPaymentStartsPending(t *testing.T) {
	p := newTestPayment(t)

	assert.Equal(t, StatusPending, p.Status())
	assert.Equal(t, int64(450000), p.AmountMinor())
	assert.Equal(t, "NGN", p.Currency())
	assert.Equal(t, int64(1), p.Version())
	assert.Nil(t, p.CompletedAt())
	assert.Nil(t, p.RefundedAt())
	assert.NotNil(t, p.Metadata())
}

func TestAttachReferenceIsImmutable(t *testing.T) {
	p := newTestPayment(t)

	err := p.AttachReference("ps_ref_other")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, "ps_ref_test_1", p.Reference())
}

func TestAttachReferenceRejectsEmpty(t *testing.T) {
	p := NewPayment(uuid.New(), nil, 1000, "NGN", "card", "a@b.com", "", nil)

	err := p.AttachReference("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCompleteFromPending(t *testing.T) {
	p := newTestPayment(t)

	require.NoError(t, p.Complete())
	assert.Equal(t, StatusCompleted, p.Status())
	assert.NotNil(t, p.CompletedAt())
}

func TestCompleteTwiceFails(t *testing.T) {
	p := newTestPayment(t)
	require.NoError(t, p.Complete())

	err := p.Complete()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
}

func TestFailRecordsReason(t *testing.T) {
	p := newTestPayment(t)

	require.NoError(t, p.Fail("card declined"))
	assert.Equal(t, StatusFailed, p.Status())
	assert.Equal(t, "card declined", p.FailureReason())
}

func TestRefundOnlyFromCompleted(t *testing.T) {
	pending := newTestPayment(t)
	err := pending.Refund()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	failed := newTestPayment(t)
	require.NoError(t, failed.Fail("declined"))
	require.Error(t, failed.Refund())

	completed := newTestPayment(t)
	require.NoError(t, completed.Complete())
	require.NoError(t, completed.Refund())
	assert.Equal(t, StatusRefunded, completed.Status())
	assert.NotNil(t, completed.RefundedAt())

	require.Error(t, completed.Refund(), "refund is not repeatable")
}

func TestIncrementVersion(t *testing.T) {
	p := newTestPayment(t)
	p.IncrementVersion()
	p.IncrementVersion()
	assert.Equal(t, int64(3), p.Version())
}

func TestToMinorUnits(t *testing.T) {
	minor, err := ToMinorUnits(4500, "NGN")
	require.NoError(t, err)
	assert.Equal(t, int64(450000), minor)

	minor, err = ToMinorUnits(1, "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(100), minor)
}

func TestToMinorUnitsIsExactForLargeAmounts(t *testing.T) {
	// 10,000,000 major units is far above any realistic rent payment and
	// must still convert without drift.
	minor, err := ToMinorUnits(10_000_000, "NGN")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), minor)
}

func TestToMinorUnitsRejectsBadInput(t *testing.T) {
	_, err := ToMinorUnits(100, "XYZ")
	require.Error(t, err)

	_, err = ToMinorUnits(0, "NGN")
	require.Error(t, err)

	_, err = ToMinorUnits(-50, "NGN")
	require.Error(t, err)

	_, err = ToMinorUnits(1<<62, "NGN")
	require.Error(t, err, "overflowing amount must be rejected")
}

func TestSupportedCurrency(t *testing.T) {
	assert.True(t, SupportedCurrency("NGN"))
	assert.True(t, SupportedCurrency("ngn"))
	assert.False(t, SupportedCurrency("EUR"))
}

func TestTransactionMirrorsPayment(t *testing.T) {
	p := newTestPayment(t)
	tx := NewTransaction(p)

	assert.Equal(t, p.ID(), tx.PaymentID())
	assert.Equal(t, p.Reference(), tx.Reference())
	assert.Equal(t, p.AmountMinor(), tx.AmountMinor())
	assert.Equal(t, StatusPending, tx.Status())

	tx.Mirror(StatusCompleted)
	assert.Equal(t, StatusCompleted, tx.Status())
}
