package payment

import (
	"time"

	"github.com/UniNest-Housing/service-payment/internal/domain"
	"github.com/google/uuid"
)

// Status represents the reconciliation state of a payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s == StatusFailed || s == StatusRefunded
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status graph permits moving from s to target.
// The graph is pending -> {completed, failed} -> refunded, refund only from completed.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusCompleted || target == StatusFailed
	case StatusCompleted:
		return target == StatusRefunded
	default:
		return false
	}
}

// Payment is the aggregate root for one payment attempt. The processor-assigned
// reference is globally unique and immutable once set; status only moves
// forward along the transition graph.
type Payment struct {
	id            uuid.UUID
	reference     string
	userID        uuid.UUID
	bookingID     *uuid.UUID
	amountMinor   int64
	currency      string
	paymentMethod string
	email         string
	description   string
	status        Status
	metadata      map[string]string
	completedAt   *time.Time
	refundedAt    *time.Time
	failureReason string
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPayment creates a pending Payment for the given user. The reference is
// attached separately once the processor has assigned one.
func NewPayment(userID uuid.UUID, bookingID *uuid.UUID, amountMinor int64, currency, paymentMethod, email, description string, metadata map[string]string) *Payment {
	now := time.Now().UTC()
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &Payment{
		id:            uuid.New(),
		userID:        userID,
		bookingID:     bookingID,
		amountMinor:   amountMinor,
		currency:      currency,
		paymentMethod: paymentMethod,
		email:         email,
		description:   description,
		status:        StatusPending,
		metadata:      metadata,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
}

// --- Getters ---

func (p *Payment) ID() uuid.UUID           { return p.id }
func (p *Payment) Reference() string       { return p.reference }
func (p *Payment) UserID() uuid.UUID       { return p.userID }
func (p *Payment) BookingID() *uuid.UUID   { return p.bookingID }
func (p *Payment) AmountMinor() int64      { return p.amountMinor }
func (p *Payment) Currency() string        { return p.currency }
func (p *Payment) PaymentMethod() string   { return p.paymentMethod }
func (p *Payment) Email() string           { return p.email }
func (p *Payment) Description() string     { return p.description }
func (p *Payment) Status() Status          { return p.status }
func (p *Payment) Metadata() map[string]string { return p.metadata }
func (p *Payment) CompletedAt() *time.Time { return p.completedAt }
func (p *Payment) RefundedAt() *time.Time  { return p.refundedAt }
func (p *Payment) FailureReason() string   { return p.failureReason }
func (p *Payment) Version() int64          { return p.version }
func (p *Payment) CreatedAt() time.Time    { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time    { return p.updatedAt }

// --- Behavior / State Transitions ---

// AttachReference records the processor-assigned reference. The reference is
// immutable once set.
func (p *Payment) AttachReference(reference string) error {
	if p.reference != "" {
		return domain.NewConflictError("payment reference is already set")
	}
	if reference == "" {
		return domain.NewBadRequestError("payment reference is required")
	}
	p.reference = reference
	p.updatedAt = time.Now().UTC()
	return nil
}

// Complete transitions from pending to completed.
func (p *Payment) Complete() error {
	if !p.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(p.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	p.status = StatusCompleted
	p.completedAt = &now
	p.updatedAt = now
	return nil
}

// Fail transitions from pending to failed.
func (p *Payment) Fail(reason string) error {
	if !p.status.CanTransitionTo(StatusFailed) {
		return domain.NewInvalidStateError(string(p.status), string(StatusFailed))
	}
	now := time.Now().UTC()
	p.status = StatusFailed
	p.failureReason = reason
	p.updatedAt = now
	return nil
}

// Refund transitions from completed to refunded.
func (p *Payment) Refund() error {
	if !p.status.CanTransitionTo(StatusRefunded) {
		return domain.NewInvalidStateErrorf("only completed payments can be refunded (current status: %s)", p.status)
	}
	now := time.Now().UTC()
	p.status = StatusRefunded
	p.refundedAt = &now
	p.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}

// --- Reconstitution (used by repository to rebuild from persistence) ---

// Reconstitute rebuilds a Payment from persisted data.
func Reconstitute(
	id uuid.UUID,
	reference string,
	userID uuid.UUID,
	bookingID *uuid.UUID,
	amountMinor int64,
	currency, paymentMethod, email, description string,
	status Status,
	metadata map[string]string,
	completedAt, refundedAt *time.Time,
	failureReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Payment {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &Payment{
		id:            id,
		reference:     reference,
		userID:        userID,
		bookingID:     bookingID,
		amountMinor:   amountMinor,
		currency:      currency,
		paymentMethod: paymentMethod,
		email:         email,
		description:   description,
		status:        status,
		metadata:      metadata,
		completedAt:   completedAt,
		refundedAt:    refundedAt,
		failureReason: failureReason,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}
