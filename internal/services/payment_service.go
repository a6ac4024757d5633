package services

import (
	"context"
	"errors"

	"kasir/internal/models"
	"kasir/internal/repositories"
)

// PaymentService reads the transactions recorded from provider callbacks.
// Buyers only see payments of orders they own.
type PaymentService struct {
	repo      repositories.PaymentRepository
	orderRepo repositories.OrderRepository
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(repo repositories.PaymentRepository, orderRepo repositories.OrderRepository) *PaymentService {
	return &PaymentService{
		repo:      repo,
		orderRepo: orderRepo,
	}
}

// GetPayments lists the payments of every order userID owns, or only those of
// orderID when it is set. ErrOrderNotFound is returned when orderID does not
// exist or belongs to another user.
func (s *PaymentService) GetPayments(ctx context.Context, userID, orderID string) ([]models.Payment, error) {
	if orderID != "" {
		if _, err := s.ownedOrder(ctx, userID, orderID); err != nil {
			return nil, err
		}
		return s.repo.GetByOrder(ctx, orderID)
	}

	orders, err := s.orderRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return s.repo.GetByOrders(ctx, ids)
}

// GetPaymentByID retrieves one payment. A payment of another user's order is
// reported as ErrPaymentNotFound.
func (s *PaymentService) GetPaymentByID(ctx context.Context, userID string, id uint) (*models.Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrPaymentNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedOrder(ctx, userID, payment.OrderID); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) ownedOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
