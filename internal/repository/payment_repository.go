package repository

import (
	"context"
	"errors"
	"time"

	"github.com/UniNest-Housing/service-payment/internal/domain"
	paymentDomain "github.com/UniNest-Housing/service-payment/internal/domain/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentModel is the GORM persistence model for the payments table.
type PaymentModel struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Reference     string            `gorm:"type:varchar(100);uniqueIndex;not null"`
	UserID        uuid.UUID         `gorm:"type:uuid;index;not null"`
	BookingID     *uuid.UUID        `gorm:"type:uuid;index"`
	AmountMinor   int64             `gorm:"not null"`
	Currency      string            `gorm:"type:varchar(3);not null;default:'NGN'"`
	PaymentMethod string            `gorm:"type:varchar(50);not null"`
	Email         string            `gorm:"type:varchar(255);not null"`
	Description   string            `gorm:"type:text"`
	Status        string            `gorm:"type:varchar(20);not null;default:'pending';index"`
	Metadata      map[string]string `gorm:"serializer:json;type:jsonb"`
	CompletedAt   *time.Time        `gorm:"type:timestamptz"`
	RefundedAt    *time.Time        `gorm:"type:timestamptz"`
	FailureReason string            `gorm:"type:text"`
	Version       int64             `gorm:"not null;default:1"`
	CreatedAt     time.Time         `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time         `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentRepositoryImpl is the GORM-based implementation of PaymentRepository.
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new GORM-based payment repository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepositoryImpl {
	return &PaymentRepositoryImpl{db: db}
}

// FindByID retrieves a payment by its unique ID.
func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", id.String())
		}
		return nil, err
	}
	return toPaymentDomain(&model), nil
}

// FindByReference retrieves a payment by its processor-assigned reference.
func (r *PaymentRepositoryImpl) FindByReference(ctx context.Context, reference string) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", reference)
		}
		return nil, err
	}
	return toPaymentDomain(&model), nil
}

// FindByBookingID retrieves the payment attached to a booking.
func (r *PaymentRepositoryImpl) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", bookingID.String())
		}
		return nil, err
	}
	return toPaymentDomain(&model), nil
}

// List retrieves payments matching the filter, newest first.
func (r *PaymentRepositoryImpl) List(ctx context.Context, userID *uuid.UUID, filter paymentDomain.ListFilter) ([]*paymentDomain.Payment, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&PaymentModel{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount_minor >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount_minor <= ?", *filter.MaxAmount)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("reference ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []PaymentModel
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i := range models {
		payments[i] = toPaymentDomain(&models[i])
	}
	return payments, total, nil
}

// GetRevenueStats returns the sum of completed amounts and counts by status (admin).
func (r *PaymentRepositoryImpl) GetRevenueStats(ctx context.Context) (int64, map[string]int64, error) {
	var totalCompleted int64
	r.db.WithContext(ctx).Model(&PaymentModel{}).
		Where("status = ?", string(paymentDomain.StatusCompleted)).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&totalCompleted)

	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&PaymentModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return 0, nil, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return totalCompleted, counts, nil
}

// Save persists a new payment aggregate. The unique index on reference
// enforces one payment per reference.
func (r *PaymentRepositoryImpl) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("a payment with this reference already exists")
		}
		return err
	}
	return nil
}

// Update persists changes to an existing payment with optimistic locking.
func (r *PaymentRepositoryImpl) Update(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	previousVersion := p.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment was modified by another transaction")
	}

	return nil
}

// toPaymentDomain maps a PaymentModel to the domain Payment aggregate.
func toPaymentDomain(model *PaymentModel) *paymentDomain.Payment {
	return paymentDomain.Reconstitute(
		model.ID,
		model.Reference,
		model.UserID,
		model.BookingID,
		model.AmountMinor,
		model.Currency,
		model.PaymentMethod,
		model.Email,
		model.Description,
		paymentDomain.Status(model.Status),
		model.Metadata,
		model.CompletedAt,
		model.RefundedAt,
		model.FailureReason,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// toPaymentModel maps a domain Payment aggregate to a PaymentModel for persistence.
func toPaymentModel(p *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:            p.ID(),
		Reference:     p.Reference(),
		UserID:        p.UserID(),
		BookingID:     p.BookingID(),
		AmountMinor:   p.AmountMinor(),
		Currency:      p.Currency(),
		PaymentMethod: p.PaymentMethod(),
		Email:         p.Email(),
		Description:   p.Description(),
		Status:        string(p.Status()),
		Metadata:      p.Metadata(),
		CompletedAt:   p.CompletedAt(),
		RefundedAt:    p.RefundedAt(),
		FailureReason: p.FailureReason(),
		Version:       p.Version(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}
