package booking

import (
	"context"
	"time"

	"github.com/UniNest-Housing/service-payment/internal/domain/payment"
	"github.com/google/uuid"
)

// PaymentStatus is the booking-side view of its payment's lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// MirrorOf maps a payment status onto the booking's payment-state field.
// paid iff the payment completed, refunded iff it was refunded, pending otherwise.
func MirrorOf(s payment.Status) PaymentStatus {
	switch s {
	case payment.StatusCompleted:
		return PaymentPaid
	case payment.StatusRefunded:
		return PaymentRefunded
	default:
		return PaymentPending
	}
}

// Booking is the externally owned entity a payment can be attached to. Only
// its payment-state field is mutated here, and only through the reconciler.
type Booking struct {
	id            uuid.UUID
	studentID     uuid.UUID
	listingID     uuid.UUID
	paymentStatus PaymentStatus
	createdAt     time.Time
	updatedAt     time.Time
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) StudentID() uuid.UUID         { return b.studentID }
func (b *Booking) ListingID() uuid.UUID         { return b.listingID }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(id, studentID, listingID uuid.UUID, paymentStatus PaymentStatus, createdAt, updatedAt time.Time) *Booking {
	return &Booking{
		id:            id,
		studentID:     studentID,
		listingID:     listingID,
		paymentStatus: paymentStatus,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// BookingRepository is the read/mirror contract against the booking table the
// marketplace service owns.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// UpdatePaymentStatus mirrors a payment transition onto the booking.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
}
