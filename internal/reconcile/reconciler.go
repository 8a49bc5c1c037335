package reconcile

import (
	"context"
	"fmt"

	"github.com/UniNest-Housing/service-payment/internal/domain"
	bookingDomain "github.com/UniNest-Housing/service-payment/internal/domain/booking"
	paymentDomain "github.com/UniNest-Housing/service-payment/internal/domain/payment"
	"github.com/UniNest-Housing/service-payment/internal/monitoring"
	"github.com/UniNest-Housing/service-payment/internal/notify"
	"go.uber.org/zap"
)

// Source identifies which entry point requested a status change.
type Source string

const (
	SourceCreate       Source = "create"
	SourceVerify       Source = "verify"
	SourceWebhook      Source = "webhook"
	SourceRefund       Source = "refund"
	SourceBookingEvent Source = "booking_event"
)

// Reconciler is the single funnel every status change goes through. All four
// entry points (create, verify, webhook, refund) apply transitions here, so
// the transaction mirror, the booking coupling, and the notification emit can
// never be skipped by one path.
type Reconciler struct {
	payments     paymentDomain.PaymentRepository
	transactions paymentDomain.TransactionRepository
	bookings     bookingDomain.BookingRepository
	emitter      notify.Emitter
	logger       *zap.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	payments paymentDomain.PaymentRepository,
	transactions paymentDomain.TransactionRepository,
	bookings bookingDomain.BookingRepository,
	emitter notify.Emitter,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		payments:     payments,
		transactions: transactions,
		bookings:     bookings,
		emitter:      emitter,
		logger:       logger,
	}
}

// ApplyStatus applies newStatus to the payment and runs every coupled side
// effect. Applying the status the payment already has is a no-op with no side
// effects, which is what makes webhook replays and webhook/verify races
// harmless. Transitions the status graph forbids fail with InvalidState.
func (r *Reconciler) ApplyStatus(ctx context.Context, p *paymentDomain.Payment, newStatus paymentDomain.Status, source Source) error {
	from := p.Status()
	if from == newStatus {
		r.logger.Info("status already applied, skipping",
			zap.String("payment_id", p.ID().String()),
			zap.String("status", string(newStatus)),
			zap.String("source", string(source)),
		)
		return nil
	}

	var err error
	switch newStatus {
	case paymentDomain.StatusCompleted:
		err = p.Complete()
	case paymentDomain.StatusFailed:
		err = p.Fail(fmt.Sprintf("reported by %s", source))
	case paymentDomain.StatusRefunded:
		err = p.Refund()
	default:
		err = domain.NewBadRequestError("unknown target status: " + string(newStatus))
	}
	if err != nil {
		return err
	}

	p.IncrementVersion()
	if err := r.payments.Update(ctx, p); err != nil {
		return err
	}

	r.mirrorTransaction(ctx, p, newStatus)
	r.mirrorBooking(ctx, p, newStatus)

	monitoring.RecordTransition(string(from), string(newStatus), string(source))
	r.logger.Info("payment status applied",
		zap.String("payment_id", p.ID().String()),
		zap.String("reference", p.Reference()),
		zap.String("from", string(from)),
		zap.String("to", string(newStatus)),
		zap.String("source", string(source)),
	)

	r.Emit(ctx, notificationFor(p, newStatus))
	return nil
}

// mirrorTransaction overwrites the ledger entry with the payment's new status.
// A failed mirror is logged with the reference so out-of-band reconciliation
// can repair it; the applied payment status is authoritative either way.
func (r *Reconciler) mirrorTransaction(ctx context.Context, p *paymentDomain.Payment, newStatus paymentDomain.Status) {
	tx, err := r.transactions.FindByPaymentID(ctx, p.ID())
	if err == nil {
		tx.Mirror(newStatus)
		err = r.transactions.Update(ctx, tx)
	}
	if err != nil {
		r.logger.Error("transaction mirror failed, ledger divergent until repaired",
			zap.String("payment_id", p.ID().String()),
			zap.String("reference", p.Reference()),
			zap.String("status", string(newStatus)),
			zap.Error(err),
		)
	}
}

// mirrorBooking maps the payment status onto the booking's payment-state
// field. Nothing else in the service may write that field.
func (r *Reconciler) mirrorBooking(ctx context.Context, p *paymentDomain.Payment, newStatus paymentDomain.Status) {
	bookingID := p.BookingID()
	if bookingID == nil {
		return
	}
	if err := r.bookings.UpdatePaymentStatus(ctx, *bookingID, bookingDomain.MirrorOf(newStatus)); err != nil {
		r.logger.Error("booking payment-status mirror failed",
			zap.String("payment_id", p.ID().String()),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(newStatus)),
			zap.Error(err),
		)
	}
}

// Emit publishes a notification fire-and-forget: a delivery failure is logged
// and never rolls back or fails the transition it describes.
func (r *Reconciler) Emit(ctx context.Context, n notify.Notification) {
	if err := r.emitter.Publish(ctx, n); err != nil {
		r.logger.Warn("notification emit failed",
			zap.String("user_id", n.UserID.String()),
			zap.String("type", n.Type),
			zap.Error(err),
		)
	}
}

// CreatedNotification describes a freshly initiated payment.
func CreatedNotification(p *paymentDomain.Payment) notify.Notification {
	return notify.Notification{
		UserID:    p.UserID(),
		Type:      notify.TypePaymentCreated,
		Title:     "Payment initiated",
		Message:   fmt.Sprintf("Your payment %s is awaiting authorization.", p.Reference()),
		RelatedID: p.ID().String(),
		Metadata:  notificationMetadata(p),
	}
}

// notificationFor builds the user-visible notification for a transition.
func notificationFor(p *paymentDomain.Payment, newStatus paymentDomain.Status) notify.Notification {
	n := notify.Notification{
		UserID:    p.UserID(),
		RelatedID: p.ID().String(),
		Metadata:  notificationMetadata(p),
	}
	switch newStatus {
	case paymentDomain.StatusCompleted:
		n.Type = notify.TypePaymentCompleted
		n.Title = "Payment successful"
		n.Message = fmt.Sprintf("Your payment %s was successful.", p.Reference())
	case paymentDomain.StatusFailed:
		n.Type = notify.TypePaymentFailed
		n.Title = "Payment failed"
		n.Message = fmt.Sprintf("Your payment %s could not be completed.", p.Reference())
	case paymentDomain.StatusRefunded:
		n.Type = notify.TypePaymentRefunded
		n.Title = "Payment refunded"
		n.Message = fmt.Sprintf("Your payment %s has been refunded.", p.Reference())
	}
	return n
}

func notificationMetadata(p *paymentDomain.Payment) map[string]string {
	md := map[string]string{
		"reference":    p.Reference(),
		"amount_minor": fmt.Sprintf("%d", p.AmountMinor()),
		"currency":     p.Currency(),
	}
	if bookingID := p.BookingID(); bookingID != nil {
		md["booking_id"] = bookingID.String()
	}
	return md
}
