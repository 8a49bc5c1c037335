package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows and paginates payment listings.
type ListFilter struct {
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *int64
	MaxAmount *int64
	Search    string // matched against reference and description
	Page      int
	Limit     int
}

// Normalize applies the default pagination window.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
}

// PaymentRepository defines the persistence contract for Payment aggregates.
type PaymentRepository interface {
	// FindByID retrieves a payment by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByReference retrieves a payment by its processor-assigned reference.
	FindByReference(ctx context.Context, reference string) (*Payment, error)

	// FindByBookingID retrieves the payment attached to a booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error)

	// List retrieves payments matching the filter. A non-nil userID restricts
	// results to that owner.
	List(ctx context.Context, userID *uuid.UUID, filter ListFilter) ([]*Payment, int64, error)

	// GetRevenueStats returns the sum of completed amounts and counts by status (admin).
	GetRevenueStats(ctx context.Context) (totalCompletedMinor int64, countByStatus map[string]int64, err error)

	// Save persists a new payment aggregate. The reference unique index
	// enforces one payment per reference.
	Save(ctx context.Context, payment *Payment) error

	// Update persists changes to an existing payment with optimistic locking.
	Update(ctx context.Context, payment *Payment) error
}

// TransactionRepository defines the persistence contract for ledger entries.
type TransactionRepository interface {
	// FindByPaymentID retrieves the ledger entry mirroring a payment.
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*Transaction, error)

	// Save persists a new ledger entry.
	Save(ctx context.Context, tx *Transaction) error

	// Update persists a mirrored status change.
	Update(ctx context.Context, tx *Transaction) error
}
