package repositories

import (
	"context"

	"kasir/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Create persists the order together with its items in one transaction.
	Create(ctx context.Context, order *models.Order) error
	SetGatewayOrderID(ctx context.Context, id string, gatewayOrderID int64) error
	// TransitionStatus moves the order from one status to another only if it is
	// still in from. It reports whether a row was changed. ErrOrderNotFound is
	// returned when no order with the given ID exists.
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
	// Delete(id string) error // Orders are never deleted during checkout.
}
