package handlers

import (
	"errors"
	"log"

	"kasir/internal/gateway"
	"kasir/internal/middleware"
	"kasir/internal/models"
	"kasir/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orders   *services.OrderService
	checkout *services.CheckoutService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService, checkout *services.CheckoutService) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		checkout: checkout,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCheckout)
}

// CheckoutRequest is the body of POST /orders.
type CheckoutRequest struct {
	Items         []services.ItemRequest `json:"items" validate:"required,min=1,dive"`
	Billing       models.BillingData     `json:"billing" validate:"required"`
	PaymentMethod string                 `json:"payment_method" validate:"omitempty,oneof=card vodafone_cash orange_cash etisalat_cash"`
}

// HandleGetOrders lists the orders of the authenticated user.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.GetOrdersByUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns one order owned by the authenticated user.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.orders.GetOrderByID(c.UserContext(), orderID)
	if err == nil && order.UserID != middleware.UserID(c) {
		err = services.ErrOrderNotFound
	}
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order with ID " + orderID + " not found",
			})
		}
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
		})
	}
	return c.JSON(order)
}

// HandleCheckout creates an order and opens a payment for it.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	result, err := h.checkout.Checkout(c.UserContext(), services.CheckoutRequest{
		UserID:        middleware.UserID(c),
		Items:         req.Items,
		Billing:       req.Billing,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return checkoutFailed(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":           result.Order,
		"remote_order_id": result.RemoteOrderID,
		"payment_key":     result.PaymentKey,
		"payment_url":     result.Payable.URL,
		"reference":       result.Payable.Reference,
		"payment_method":  result.Payable.Method,
	})
}

// checkoutFailed separates cart problems from provider problems.
func checkoutFailed(c *fiber.Ctx, err error) error {
	log.Printf("Checkout failed: %v", err)

	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Your cart is invalid",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrInvalidOrder):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Your cart is invalid",
			"error":   err.Error(),
		})
	}

	var checkoutErr *services.CheckoutError
	if !errors.As(err, &checkoutErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
		})
	}

	status := fiber.StatusBadGateway
	kind := "gateway_error"
	switch {
	case errors.Is(err, gateway.ErrTimeout):
		status, kind = fiber.StatusGatewayTimeout, "gateway_timeout"
	case errors.Is(err, gateway.ErrAuth):
		kind = "gateway_auth_error"
	case errors.Is(err, gateway.ErrOrder):
		kind = "gateway_order_error"
	case errors.Is(err, gateway.ErrKey):
		kind = "gateway_key_error"
	}
	return c.Status(status).JSON(fiber.Map{
		"message":  "Payment provider is unavailable",
		"error":    kind,
		"order_id": checkoutErr.OrderID,
		"status":   models.OrderStatusFailed,
	})
}
