package services

import (
	"context"
	"fmt"
	"log"

	"kasir/internal/events"
	"kasir/internal/gateway"
	"kasir/internal/models"
	"kasir/internal/repositories"
)

// PaymentGateway is the provider handshake the checkout drives.
type PaymentGateway interface {
	Authenticate(ctx context.Context) (string, error)
	CreateRemoteOrder(ctx context.Context, token, merchantOrderID string, amountCents int64) (int64, error)
	GeneratePaymentKey(ctx context.Context, token string, remoteOrderID, amountCents int64, billing models.BillingData, method gateway.PaymentMethod) (string, error)
	BuildPayable(paymentKey string, method gateway.PaymentMethod) (gateway.Payable, error)
}

// CheckoutRequest is everything needed to open a payment for a new order.
type CheckoutRequest struct {
	UserID        string
	Items         []ItemRequest
	Billing       models.BillingData
	PaymentMethod string
}

// CheckoutResult bundles the order with the payment session opened for it.
type CheckoutResult struct {
	Order         *models.Order   `json:"order"`
	RemoteOrderID int64           `json:"remote_order_id"`
	PaymentKey    string          `json:"payment_key"`
	Payable       gateway.Payable `json:"payable"`
}

// CheckoutError reports a gateway failure after the order was stored. The
// order has been marked FAILED by the time it is returned.
type CheckoutError struct {
	OrderID string
	Err     error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout of order %s failed: %v", e.OrderID, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }

// CheckoutService creates an order and opens a payment for it.
type CheckoutService struct {
	orders    *OrderService
	orderRepo repositories.OrderRepository
	gateway   PaymentGateway
	publisher events.Publisher
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(orders *OrderService, orderRepo repositories.OrderRepository, gw PaymentGateway, publisher events.Publisher) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{
		orders:    orders,
		orderRepo: orderRepo,
		gateway:   gw,
		publisher: publisher,
	}
}

// Checkout stores a PENDING order, then authenticates with the provider,
// registers the order, requests a payment key and builds the payable. If any
// provider step fails the order is marked FAILED and a *CheckoutError wrapping
// the provider error is returned.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	method, err := gateway.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	var (
		order       *models.Order
		amountCents int64
		token       string
		result      = &CheckoutResult{}
	)

	steps := []sagaStep{
		{
			name: "create order",
			run: func(ctx context.Context) error {
				o, err := s.orders.CreateOrder(ctx, req.UserID, req.Items, string(method))
				if err != nil {
					return err
				}
				order = o
				amountCents = gateway.ToMinorUnits(o.TotalAmount)
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.orders.markFailed(ctx, order)
			},
		},
		{
			name: string(gateway.StepAuthenticate),
			run: func(ctx context.Context) error {
				t, err := s.gateway.Authenticate(ctx)
				token = t
				return err
			},
		},
		{
			name: string(gateway.StepCreateOrder),
			run: func(ctx context.Context) error {
				remoteID, err := s.gateway.CreateRemoteOrder(ctx, token, order.ID, amountCents)
				if err != nil {
					return err
				}
				result.RemoteOrderID = remoteID
				if err := s.orderRepo.SetGatewayOrderID(ctx, order.ID, remoteID); err != nil {
					return fmt.Errorf("failed to store gateway order id: %w", err)
				}
				order.GatewayOrderID = &remoteID
				return nil
			},
		},
		{
			name: string(gateway.StepPaymentKey),
			run: func(ctx context.Context) error {
				key, err := s.gateway.GeneratePaymentKey(ctx, token, result.RemoteOrderID, amountCents, req.Billing, method)
				result.PaymentKey = key
				return err
			},
		},
		{
			name: string(gateway.StepPayable),
			run: func(context.Context) error {
				payable, err := s.gateway.BuildPayable(result.PaymentKey, method)
				result.Payable = payable
				return err
			},
		},
	}

	if err := runSaga(ctx, steps); err != nil {
		if order == nil {
			return nil, err
		}
		return nil, &CheckoutError{OrderID: order.ID, Err: err}
	}

	result.Order = order
	log.Printf("Checkout opened for order %s (gateway order %d, method %s)", order.ID, result.RemoteOrderID, method)
	publishEvent(ctx, s.publisher, events.OrderCheckoutStarted, order)
	return result, nil
}
