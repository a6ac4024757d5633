package repositories

import (
	"context"

	"kasir/internal/models"
)

// PaymentRepository defines the interface for payment record access.
type PaymentRepository interface {
	// Create stores a payment. ErrDuplicatePayment is returned if the
	// transaction ID was already recorded.
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	// GetByOrders returns the payments recorded for any of orderIDs.
	GetByOrders(ctx context.Context, orderIDs []string) ([]models.Payment, error)
	GetByOrder(ctx context.Context, orderID string) ([]models.Payment, error)
}
