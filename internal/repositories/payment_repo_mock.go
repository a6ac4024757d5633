package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kasir/internal/models"
)

// MockPaymentRepository is an in-memory implementation of PaymentRepository.
type MockPaymentRepository struct {
	payments []models.Payment
	mu       sync.RWMutex
}

// NewMockPaymentRepository creates a new instance of MockPaymentRepository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

// Create appends a payment unless its transaction ID is already stored.
func (r *MockPaymentRepository) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.TransactionID == payment.TransactionID {
			return fmt.Errorf("transaction %d: %w", payment.TransactionID, ErrDuplicatePayment)
		}
	}
	payment.ID = uint(len(r.payments) + 1)
	payment.CreatedAt = time.Now()
	r.payments = append(r.payments, *payment)
	return nil
}

// GetByID returns a payment by its ID.
func (r *MockPaymentRepository) GetByID(_ context.Context, id uint) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.payments {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("payment with ID %d: %w", id, ErrPaymentNotFound)
}

// GetByOrders returns the payments recorded for any of orderIDs.
func (r *MockPaymentRepository) GetByOrders(_ context.Context, orderIDs []string) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	out := []models.Payment{}
	for _, p := range r.payments {
		if wanted[p.OrderID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByOrder returns the payments recorded for orderID.
func (r *MockPaymentRepository) GetByOrder(_ context.Context, orderID string) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}
