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

// TransactionModel is the GORM persistence model for the transactions table.
type TransactionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	PaymentID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Reference   string    `gorm:"type:varchar(100);index;not null"`
	AmountMinor int64     `gorm:"not null"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (TransactionModel) TableName() string {
	return "transactions"
}

// TransactionRepositoryImpl is the GORM-based implementation of TransactionRepository.
type TransactionRepositoryImpl struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new GORM-based transaction repository.
func NewTransactionRepository(db *gorm.DB) *TransactionRepositoryImpl {
	return &TransactionRepositoryImpl{db: db}
}

// FindByPaymentID retrieves the ledger entry mirroring a payment.
func (r *TransactionRepositoryImpl) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*paymentDomain.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Transaction", paymentID.String())
		}
		return nil, err
	}
	return toTransactionDomain(&model), nil
}

// Save persists a new ledger entry.
func (r *TransactionRepositoryImpl) Save(ctx context.Context, tx *paymentDomain.Transaction) error {
	model := toTransactionModel(tx)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("a transaction for this payment already exists")
		}
		return err
	}
	return nil
}

// Update persists a mirrored status change.
func (r *TransactionRepositoryImpl) Update(ctx context.Context, tx *paymentDomain.Transaction) error {
	model := toTransactionModel(tx)
	result := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":     model.Status,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Transaction", model.ID.String())
	}
	return nil
}

// toTransactionDomain maps a TransactionModel to the domain Transaction.
func toTransactionDomain(model *TransactionModel) *paymentDomain.Transaction {
	return paymentDomain.ReconstituteTransaction(
		model.ID,
		model.PaymentID,
		model.Reference,
		model.AmountMinor,
		model.Currency,
		paymentDomain.Status(model.Status),
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// toTransactionModel maps a domain Transaction to its persistence model.
func toTransactionModel(tx *paymentDomain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:          tx.ID(),
		PaymentID:   tx.PaymentID(),
		Reference:   tx.Reference(),
		AmountMinor: tx.AmountMinor(),
		Currency:    tx.Currency(),
		Status:      string(tx.Status()),
		CreatedAt:   tx.CreatedAt(),
		UpdatedAt:   tx.UpdatedAt(),
	}
}
