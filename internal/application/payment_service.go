package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UniNest-Housing/service-payment/internal/adapter"
	"github.com/UniNest-Housing/service-payment/internal/auth"
	"github.com/UniNest-Housing/service-payment/internal/cache"
	"github.com/UniNest-Housing/service-payment/internal/domain"
	bookingDomain "github.com/UniNest-Housing/service-payment/internal/domain/booking"
	"github.com/UniNest-Housing/service-payment/internal/domain/payment"
	"github.com/UniNest-Housing/service-payment/internal/monitoring"
	"github.com/UniNest-Housing/service-payment/internal/reconcile"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Webhook event names delivered by the processor.
const (
	WebhookChargeSuccess = "charge.success"
	WebhookChargeFailed  = "charge.failed"
)

// Actor identifies the authenticated caller for ownership checks.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// isAdmin reports whether the actor may act on payments it does not own.
func (a Actor) isAdmin() bool {
	return a.Role == auth.RoleAdmin
}

// CreatePaymentRequest is the DTO for initiating a payment. Amount is in
// major units of the display currency; conversion to the processor's minor
// unit happens exactly once, by integer arithmetic.
type CreatePaymentRequest struct {
	Amount        int64             `json:"amount" binding:"required,gt=0"`
	Currency      string            `json:"currency" binding:"required"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Email         string            `json:"email" binding:"required,email"`
	Description   string            `json:"description"`
	BookingID     *uuid.UUID        `json:"booking_id"`
	Metadata      map[string]string `json:"metadata"`
}

// PaymentDTO is the API response DTO for payment data.
type PaymentDTO struct {
	ID            uuid.UUID         `json:"id"`
	Reference     string            `json:"reference"`
	UserID        uuid.UUID         `json:"user_id"`
	BookingID     *uuid.UUID        `json:"booking_id,omitempty"`
	AmountMinor   int64             `json:"amount_minor"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	Description   string            `json:"description,omitempty"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	RefundedAt    *time.Time        `json:"refunded_at,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CreatePaymentResponse pairs the persisted payment with the processor's
// authorization URL the customer completes payment on.
type CreatePaymentResponse struct {
	Payment          PaymentDTO `json:"payment"`
	AuthorizationURL string     `json:"authorization_url"`
}

// WebhookEvent is the parsed processor webhook body.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// BookingCancelledEvent is consumed from the marketplace's booking topic.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentService orchestrates the payment use cases. Every status mutation is
// delegated to the Reconciler so booking and notification side effects are
// applied uniformly.
type PaymentService struct {
	payments     payment.PaymentRepository
	transactions payment.TransactionRepository
	bookings     bookingDomain.BookingRepository
	processor    adapter.PaystackAdapter
	reconciler   *reconcile.Reconciler
	ownerCache   cache.Cache
	ownerTTL     time.Duration
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	payments payment.PaymentRepository,
	transactions payment.TransactionRepository,
	bookings bookingDomain.BookingRepository,
	processor adapter.PaystackAdapter,
	reconciler *reconcile.Reconciler,
	ownerCache cache.Cache,
	ownerTTL time.Duration,
	logger *zap.Logger,
) *PaymentService {
	if ownerTTL <= 0 {
		ownerTTL = 5 * time.Minute
	}
	return &PaymentService{
		payments:     payments,
		transactions: transactions,
		bookings:     bookings,
		processor:    processor,
		reconciler:   reconciler,
		ownerCache:   ownerCache,
		ownerTTL:     ownerTTL,
		logger:       logger,
	}
}

// CreatePayment initiates a payment: opens the remote transaction, then
// persists the Payment and its ledger Transaction in pending state. If the
// processor call fails nothing is persisted. If persistence fails after the
// remote transaction was opened, the reference is logged for manual
// reconciliation; there is no way to cancel the remote side.
func (s *PaymentService) CreatePayment(ctx context.Context, userID uuid.UUID, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	s.logger.Info("initiating payment",
		zap.String("user_id", userID.String()),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency),
	)

	if !payment.SupportedCurrency(req.Currency) {
		return nil, domain.NewBadRequestError("unsupported currency: " + req.Currency)
	}
	amountMinor, err := payment.ToMinorUnits(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	if req.BookingID != nil {
		if err := s.checkBookingOwner(ctx, *req.BookingID, userID); err != nil {
			return nil, err
		}
	}

	init, err := s.processor.InitializeTransaction(ctx, req.Email, amountMinor, req.Currency, req.Metadata)
	if err != nil {
		s.logger.Error("processor initialize failed", zap.Error(err))
		return nil, err
	}

	p := payment.NewPayment(userID, req.BookingID, amountMinor, req.Currency, req.PaymentMethod, req.Email, req.Description, req.Metadata)
	if err := p.AttachReference(init.Reference); err != nil {
		return nil, err
	}
	tx := payment.NewTransaction(p)

	saga := reconcile.NewSaga("create_payment", s.logger)
	saga.AddStep(reconcile.SagaStep{
		Name: "save_payment",
		Execute: func(ctx context.Context) error {
			return s.payments.Save(ctx, p)
		},
		Compensate: func(ctx context.Context) error {
			// The remote transaction stays open; mark the local record failed
			// rather than deleting it so the reference remains discoverable.
			// Going through the reconciler keeps the booking mirror and the
			// failure notification; the ledger mirror miss is log-tolerated.
			return s.reconciler.ApplyStatus(ctx, p, payment.StatusFailed, reconcile.SourceCreate)
		},
	})
	saga.AddStep(reconcile.SagaStep{
		Name: "save_transaction",
		Execute: func(ctx context.Context) error {
			return s.transactions.Save(ctx, tx)
		},
		Compensate: nil,
	})

	if err := saga.Execute(ctx); err != nil {
		s.logger.Error("payment persistence failed after processor initialize; reference requires manual reconciliation",
			zap.String("reference", init.Reference),
			zap.String("user_id", userID.String()),
			zap.Int64("amount_minor", amountMinor),
			zap.Error(err),
		)
		return nil, err
	}

	s.reconciler.Emit(ctx, reconcile.CreatedNotification(p))

	dto := toPaymentDTO(p)
	return &CreatePaymentResponse{Payment: dto, AuthorizationURL: init.AuthorizationURL}, nil
}

// GetPayment retrieves a payment. Non-admin callers only see their own.
func (s *PaymentService) GetPayment(ctx context.Context, actor Actor, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.loadOwned(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	dto := toPaymentDTO(p)
	return &dto, nil
}

// ProcessPayment asks the processor for the authoritative outcome of a
// pending payment and applies it. An upstream failure leaves the payment
// untouched: a verify timeout is not evidence the charge failed.
func (s *PaymentService) ProcessPayment(ctx context.Context, actor Actor, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.loadOwned(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status() != payment.StatusPending {
		// Already reconciled by an earlier verify or webhook.
		dto := toPaymentDTO(p)
		return &dto, nil
	}

	succeeded, err := s.processor.VerifyTransaction(ctx, p.Reference())
	if err != nil {
		s.logger.Error("processor verify failed",
			zap.String("payment_id", p.ID().String()),
			zap.String("reference", p.Reference()),
			zap.Error(err),
		)
		return nil, err
	}

	target := payment.StatusFailed
	if succeeded {
		target = payment.StatusCompleted
	}

	if err := s.reconciler.ApplyStatus(ctx, p, target, reconcile.SourceVerify); err != nil {
		// A racing webhook can win between our read and write. The stored
		// status is authoritative; re-read and report it.
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrConflict) {
			s.logger.Warn("verify lost race with concurrent reconciliation",
				zap.String("payment_id", p.ID().String()),
				zap.Error(err),
			)
			return s.GetPayment(ctx, actor, paymentID)
		}
		return nil, err
	}

	dto := toPaymentDTO(p)
	return &dto, nil
}

// RefundPayment refunds a completed payment. The precondition is checked
// before any remote call: refunding a non-completed payment performs none.
func (s *PaymentService) RefundPayment(ctx context.Context, actor Actor, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.loadOwned(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status() != payment.StatusCompleted {
		return nil, domain.NewInvalidStateErrorf("only completed payments can be refunded (current status: %s)", p.Status())
	}

	s.logger.Info("refunding payment",
		zap.String("payment_id", p.ID().String()),
		zap.String("reference", p.Reference()),
	)

	if _, err := s.processor.RefundTransaction(ctx, p.Reference(), p.AmountMinor()); err != nil {
		s.logger.Error("processor refund failed", zap.Error(err))
		return nil, err
	}

	if err := s.reconciler.ApplyStatus(ctx, p, payment.StatusRefunded, reconcile.SourceRefund); err != nil {
		return nil, err
	}

	dto := toPaymentDTO(p)
	return &dto, nil
}

// ListPayments returns a filtered, paginated listing. Non-admin callers are
// restricted to their own payments.
func (s *PaymentService) ListPayments(ctx context.Context, actor Actor, filter payment.ListFilter) ([]PaymentDTO, int64, error) {
	owner := &actor.ID
	if actor.isAdmin() {
		owner = nil
	}
	payments, total, err := s.payments.List(ctx, owner, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos, total, nil
}

// HandleWebhookEvent applies an authoritative status delivered by the
// processor. The caller has already verified the signature against the raw
// body. If the stored payment is no longer pending the event is a no-op:
// that single rule is what makes webhook retries and races with a
// caller-initiated verify harmless.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, event WebhookEvent) error {
	var target payment.Status
	switch event.Event {
	case WebhookChargeSuccess:
		target = payment.StatusCompleted
	case WebhookChargeFailed:
		target = payment.StatusFailed
	default:
		s.logger.Debug("ignoring unhandled webhook event", zap.String("event", event.Event))
		return nil
	}

	p, err := s.payments.FindByReference(ctx, event.Data.Reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Signature already proved origin; nothing local to reconcile.
			s.logger.Warn("webhook for unknown reference",
				zap.String("reference", event.Data.Reference),
				zap.String("event", event.Event),
			)
			return nil
		}
		return err
	}

	if p.Status() != payment.StatusPending {
		monitoring.RecordWebhookReplay()
		s.logger.Info("webhook replay, payment already reconciled",
			zap.String("reference", p.Reference()),
			zap.String("status", string(p.Status())),
			zap.String("event", event.Event),
		)
		return nil
	}

	return s.reconciler.ApplyStatus(ctx, p, target, reconcile.SourceWebhook)
}

// HandleBookingCancelled refunds the completed payment attached to a
// cancelled booking. Pending payments are left to fail or complete on their
// own; payments already failed or refunded need nothing.
func (s *PaymentService) HandleBookingCancelled(ctx context.Context, event BookingCancelledEvent) error {
	s.logger.Info("handling booking cancelled event",
		zap.String("booking_id", event.BookingID.String()),
		zap.String("reason", event.Reason),
	)

	p, err := s.payments.FindByBookingID(ctx, event.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("no payment found for booking, skipping refund",
				zap.String("booking_id", event.BookingID.String()),
			)
			return nil
		}
		return err
	}

	if p.Status() != payment.StatusCompleted {
		s.logger.Info("payment not completed, skipping refund",
			zap.String("payment_id", p.ID().String()),
			zap.String("status", string(p.Status())),
		)
		return nil
	}

	if _, err := s.processor.RefundTransaction(ctx, p.Reference(), p.AmountMinor()); err != nil {
		return err
	}
	return s.reconciler.ApplyStatus(ctx, p, payment.StatusRefunded, reconcile.SourceBookingEvent)
}

// --- Admin methods ---

// PaymentStatsDTO holds payment statistics for the admin dashboard.
type PaymentStatsDTO struct {
	TotalCompletedMinor int64            `json:"total_completed_minor"`
	TotalPayments       int64            `json:"total_payments"`
	ByStatus            map[string]int64 `json:"by_status"`
}

// GetPaymentStats returns aggregate payment statistics (admin).
func (s *PaymentService) GetPaymentStats(ctx context.Context) (*PaymentStatsDTO, error) {
	completed, counts, err := s.payments.GetRevenueStats(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return &PaymentStatsDTO{
		TotalCompletedMinor: completed,
		TotalPayments:       total,
		ByStatus:            counts,
	}, nil
}

// --- Internals ---

// loadOwned loads a payment and enforces the ownership check.
func (s *PaymentService) loadOwned(ctx context.Context, actor Actor, paymentID uuid.UUID) (*payment.Payment, error) {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && p.UserID() != actor.ID {
		return nil, domain.NewForbiddenError("payment belongs to another user")
	}
	return p, nil
}

// checkBookingOwner verifies the booking exists and is owned by userID. The
// owner lookup is memoized: the verify poll hits it repeatedly.
func (s *PaymentService) checkBookingOwner(ctx context.Context, bookingID, userID uuid.UUID) error {
	key := "booking-owner:" + bookingID.String()
	ownerRaw, err := s.ownerCache.GetOrCompute(ctx, key, s.ownerTTL, func(ctx context.Context) (string, error) {
		b, err := s.bookings.FindByID(ctx, bookingID)
		if err != nil {
			return "", err
		}
		return b.StudentID().String(), nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewBadRequestError(fmt.Sprintf("booking %s does not exist", bookingID))
		}
		return err
	}
	if ownerRaw != userID.String() {
		return domain.NewForbiddenError("booking belongs to another user")
	}
	return nil
}

// toPaymentDTO maps a domain Payment to a PaymentDTO.
func toPaymentDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID(),
		Reference:     p.Reference(),
		UserID:        p.UserID(),
		BookingID:     p.BookingID(),
		AmountMinor:   p.AmountMinor(),
		Currency:      p.Currency(),
		PaymentMethod: p.PaymentMethod(),
		Description:   p.Description(),
		Status:        string(p.Status()),
		Metadata:      p.Metadata(),
		CompletedAt:   p.CompletedAt(),
		RefundedAt:    p.RefundedAt(),
		FailureReason: p.FailureReason(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}
