package handlers

import (
	"errors"
	"log"

	"kasir/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SignatureHeader carries the hex HMAC-SHA256 of the callback body.
const SignatureHeader = "X-Paymob-Signature"

// WebhookHandler receives payment provider callbacks.
type WebhookHandler struct {
	service *services.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// RegisterRoutes registers the callback route. It must not sit behind
// AuthRequired; callbacks authenticate by signature.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/paymob/callback", h.HandleCallback)
}

// HandleCallback applies a transaction outcome. Responses carry no internal
// detail; a non-2xx status makes the provider redeliver.
func (h *WebhookHandler) HandleCallback(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)

	result, err := h.service.HandleCallback(c.UserContext(), body, c.Get(SignatureHeader))
	if err != nil {
		log.Printf("Paymob callback rejected: %v", err)
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid signature"})
		case errors.Is(err, services.ErrMalformedCallback):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Callback processing failed"})
		case errors.Is(err, services.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Callback processing failed"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Callback processing failed"})
		}
	}

	log.Printf("Paymob callback for order %s: %s (status %s)", result.OrderID, result.Outcome, result.Status)
	return c.JSON(fiber.Map{"message": "Callback processed successfully"})
}
