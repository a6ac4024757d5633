package repositories

import (
	"context"

	"kasir/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetPrices returns the current price of every id that exists. Unknown ids
	// are omitted from the result rather than reported as an error.
	GetPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
}
