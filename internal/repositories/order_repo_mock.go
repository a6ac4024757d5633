package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kasir/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll(_ context.Context) ([]models.Order, error) {
	return r.filter(func(models.Order) bool { return true }), nil
}

// GetByUser returns the orders placed by userID.
func (r *MockOrderRepository) GetByUser(_ context.Context, userID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r *MockOrderRepository) filter(keep func(models.Order) bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if keep(order) {
			orderList = append(orderList, cloneOrder(order))
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.Before(orderList[j].CreatedAt)
	})
	return orderList
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrOrderNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order with ID %s already exists", order.ID)
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// SetGatewayOrderID records the provider order reference.
func (r *MockOrderRepository) SetGatewayOrderID(_ context.Context, id string, gatewayOrderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrOrderNotFound)
	}
	ref := gatewayOrderID
	order.GatewayOrderID = &ref
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// TransitionStatus updates the status only if the order is still in from.
func (r *MockOrderRepository) TransitionStatus(_ context.Context, id string, from, to models.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %s: %w", id, ErrOrderNotFound)
	}
	if order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	if o.GatewayOrderID != nil {
		ref := *o.GatewayOrderID
		o.GatewayOrderID = &ref
	}
	return o
}
