package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"kasir/internal/events"
	"kasir/internal/models"
	"kasir/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRequest is one requested line of an order.
type ItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=36"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// OrderService prices, persists and reads orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   events.Publisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

// GetOrdersByUser retrieves the orders placed by userID.
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(ctx, userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// CreateOrder prices items at current catalog prices and stores a PENDING
// order. If any product is unknown nothing is stored.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []ItemRequest, paymentMethod string) (*models.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidOrder)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for product %s must be at least 1", ErrInvalidOrder, item.ProductID)
		}
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	prices, err := s.productRepo.GetPrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product prices: %w", err)
	}

	orderItems, total, err := PriceItems(items, prices)
	if err != nil {
		return nil, err
	}

	newOrder := &models.Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		Items:         orderItems,
		TotalAmount:   total,
		Status:        models.OrderStatusPending,
		PaymentMethod: paymentMethod,
	}

	if err := s.orderRepo.Create(ctx, newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publish(ctx, events.OrderCreated, newOrder)
	return newOrder, nil
}

// PriceItems snapshots prices onto order items and sums them. Every unknown
// product is reported in a single ErrProductNotFound.
func PriceItems(items []ItemRequest, prices map[string]decimal.Decimal) ([]models.OrderItem, decimal.Decimal, error) {
	var missing []string
	orderItems := make([]models.OrderItem, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			missing = append(missing, item.ProductID)
			continue
		}
		orderItem := models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		}
		orderItems = append(orderItems, orderItem)
		total = total.Add(orderItem.Subtotal())
	}

	if len(missing) > 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrProductNotFound, strings.Join(missing, ", "))
	}
	return orderItems, total, nil
}

// markFailed moves a PENDING order to FAILED. It does nothing if the order
// has already reached another status.
func (s *OrderService) markFailed(ctx context.Context, order *models.Order) error {
	changed, err := s.orderRepo.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusFailed)
	if err != nil {
		return err
	}
	if !changed {
		log.Printf("Order %s left PENDING before it could be marked FAILED", order.ID)
		return nil
	}
	order.Status = models.OrderStatusFailed
	s.publish(ctx, events.OrderFailed, order)
	return nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	publishEvent(ctx, s.publisher, eventType, order)
}

func publishEvent(ctx context.Context, publisher events.Publisher, eventType string, order *models.Order) {
	if err := publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, order.ID, err)
	}
}
