package payment

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is the ledger entry mirroring a Payment's lifecycle, one-to-one
// via the payment ID. It is created alongside the Payment, updated on every
// reconciliation, and never deleted. After reconciliation completes its status
// always equals the Payment's.
type Transaction struct {
	id          uuid.UUID
	paymentID   uuid.UUID
	reference   string
	amountMinor int64
	currency    string
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

// NewTransaction creates the pending ledger entry for a freshly created Payment.
func NewTransaction(p *Payment) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		id:          uuid.New(),
		paymentID:   p.ID(),
		reference:   p.Reference(),
		amountMinor: p.AmountMinor(),
		currency:    p.Currency(),
		status:      StatusPending,
		createdAt:   now,
		updatedAt:   now,
	}
}

// --- Getters ---

func (t *Transaction) ID() uuid.UUID        { return t.id }
func (t *Transaction) PaymentID() uuid.UUID { return t.paymentID }
func (t *Transaction) Reference() string    { return t.reference }
func (t *Transaction) AmountMinor() int64   { return t.amountMinor }
func (t *Transaction) Currency() string     { return t.currency }
func (t *Transaction) Status() Status       { return t.status }
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time { return t.updatedAt }

// Mirror overwrites the ledger status with the Payment's authoritative status.
func (t *Transaction) Mirror(status Status) {
	t.status = status
	t.updatedAt = time.Now().UTC()
}

// ReconstituteTransaction rebuilds a Transaction from persisted data.
func ReconstituteTransaction(
	id, paymentID uuid.UUID,
	reference string,
	amountMinor int64,
	currency string,
	status Status,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:          id,
		paymentID:   paymentID,
		reference:   reference,
		amountMinor: amountMinor,
		currency:    currency,
		status:      status,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}
