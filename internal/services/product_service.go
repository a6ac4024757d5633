package services

import (
	"context"
	"errors"

	"kasir/internal/models"
	"kasir/internal/repositories"
)

// ProductService exposes catalog reads.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}
