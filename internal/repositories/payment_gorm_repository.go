package repositories

import (
	"context"
	"errors"
	"fmt"

	"kasir/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db: db,
	}
}

// Create inserts the payment, ignoring a conflicting transaction ID.
func (r *GORMPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_id"}}, DoNothing: true}).
		Create(payment)
	if res.Error != nil {
		return fmt.Errorf("failed to create payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", payment.TransactionID, ErrDuplicatePayment)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *GORMPaymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment with ID %d: %w", id, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("failed to get payment by ID %d: %w", id, err)
	}
	return &payment, nil
}

// GetByOrders retrieves the payments recorded for a set of orders.
func (r *GORMPaymentRepository) GetByOrders(ctx context.Context, orderIDs []string) ([]models.Payment, error) {
	payments := []models.Payment{}
	if len(orderIDs) == 0 {
		return payments, nil
	}
	if err := r.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Order("id").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments for %d orders: %w", len(orderIDs), err)
	}
	return payments, nil
}

// GetByOrder retrieves the payments recorded for one order.
func (r *GORMPaymentRepository) GetByOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments for order %s: %w", orderID, err)
	}
	return payments, nil
}
