package repository

import (
	"context"
	"errors"
	"time"

	"github.com/UniNest-Housing/service-payment/internal/domain"
	bookingDomain "github.com/UniNest-Housing/service-payment/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM persistence model for the bookings table. The
// marketplace service owns this table; this service only reads bookings and
// mirrors payment transitions onto payment_status.
type BookingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	StudentID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ListingID     uuid.UUID `gorm:"type:uuid;index;not null"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt     time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string {
	return "bookings"
}

// BookingRepositoryImpl is the GORM-based implementation of BookingRepository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// FindByID retrieves a booking by its unique ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return bookingDomain.Reconstitute(
		model.ID,
		model.StudentID,
		model.ListingID,
		bookingDomain.PaymentStatus(model.PaymentStatus),
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

// UpdatePaymentStatus mirrors a payment transition onto the booking.
func (r *BookingRepositoryImpl) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status bookingDomain.PaymentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": string(status),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}
