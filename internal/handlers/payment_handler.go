package handlers

import (
	"errors"
	"log"

	"kasir/internal/middleware"
	"kasir/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler serves the recorded provider transactions.
type PaymentHandler struct {
	service *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Get("/", h.HandleGetPayments)
	paymentRoutes.Get("/:id", h.HandleGetPaymentByID)
}

// HandleGetPayments lists the caller's payments, optionally filtered by ?order_id=.
func (h *PaymentHandler) HandleGetPayments(c *fiber.Ctx) error {
	orderID := c.Query("order_id")
	payments, err := h.service.GetPayments(c.UserContext(), middleware.UserID(c), orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order with ID " + orderID + " not found",
			})
		}
		log.Printf("Error getting payments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve payments",
		})
	}
	return c.JSON(payments)
}

// HandleGetPaymentByID returns one payment of an order the caller owns.
func (h *PaymentHandler) HandleGetPaymentByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Payment ID must be a positive integer",
		})
	}
	payment, err := h.service.GetPaymentByID(c.UserContext(), middleware.UserID(c), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Payment not found",
			})
		}
		log.Printf("Error getting payment %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve payment",
		})
	}
	return c.JSON(payment)
}
