package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"kasir/internal/events"
	"kasir/internal/models"
	"kasir/internal/repositories"
)

// Callback outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

// CallbackResult describes what a verified callback did to its order.
type CallbackResult struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
	Outcome string             `json:"outcome"`
}

type callbackEnvelope struct {
	Type string               `json:"type"`
	Obj  *callbackTransaction `json:"obj"`
}

type callbackTransaction struct {
	ID          int64  `json:"id"`
	Success     *bool  `json:"success"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Order       struct {
		ID              int64           `json:"id"`
		MerchantOrderID json.RawMessage `json:"merchant_order_id"`
	} `json:"order"`
}

// WebhookService authenticates provider callbacks and applies their verdict.
type WebhookService struct {
	secret    []byte
	tx        repositories.Transactor
	publisher events.Publisher
}

// NewWebhookService creates a new WebhookService. The payment record and the
// status transition of one callback are written through tx together.
func NewWebhookService(hmacSecret string, tx repositories.Transactor, publisher events.Publisher) *WebhookService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &WebhookService{
		secret:    []byte(hmacSecret),
		tx:        tx,
		publisher: publisher,
	}
}

// Sign returns the hex HMAC-SHA256 of the compacted JSON body.
func (s *WebhookService) Sign(body []byte) (string, error) {
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifySignature checks signature against the body in constant time.
func (s *WebhookService) VerifySignature(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}
	given, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ErrInvalidSignature)
	}
	canonical, err := canonicalJSON(body)
	if err != nil {
		return fmt.Errorf("%w: body is not JSON", ErrInvalidSignature)
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	if !hmac.Equal(mac.Sum(nil), given) {
		return ErrInvalidSignature
	}
	return nil
}

// HandleCallback verifies the callback, then moves the referenced order from
// PENDING to PAID or FAILED. Redelivered callbacks leave the order untouched
// and succeed; an order in the other terminal state is never overwritten.
// When an error is returned neither the order nor the payment records changed.
func (s *WebhookService) HandleCallback(ctx context.Context, body []byte, signature string) (*CallbackResult, error) {
	if err := s.VerifySignature(body, signature); err != nil {
		return nil, err
	}

	txn, orderID, err := parseCallback(body)
	if err != nil {
		return nil, err
	}

	target := models.OrderStatusFailed
	if *txn.Success {
		target = models.OrderStatusPaid
	}

	var (
		order   *models.Order
		changed bool
	)
	err = s.tx.WithinTx(ctx, func(orders repositories.OrderRepository, payments repositories.PaymentRepository) error {
		if _, err := orders.GetByID(ctx, orderID); err != nil {
			return err
		}
		if err := recordPayment(ctx, payments, orderID, txn, body); err != nil {
			return err
		}
		var err error
		if changed, err = orders.TransitionStatus(ctx, orderID, models.OrderStatusPending, target); err != nil {
			return err
		}
		order, err = orders.GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	result := &CallbackResult{OrderID: orderID, Status: order.Status}
	switch {
	case changed:
		result.Outcome = OutcomeApplied
		eventType := events.OrderFailed
		if target == models.OrderStatusPaid {
			eventType = events.OrderPaid
		}
		publishEvent(ctx, s.publisher, eventType, order)
	case order.Status == target:
		result.Outcome = OutcomeDuplicate
	default:
		result.Outcome = OutcomeIgnored
		log.Printf("Warning: callback for order %s reports %s but order is already %s", orderID, target, order.Status)
	}
	return result, nil
}

// recordPayment stores the transaction once; a redelivered transaction is not an error.
func recordPayment(ctx context.Context, payments repositories.PaymentRepository, orderID string, txn *callbackTransaction, body []byte) error {
	if txn.ID == 0 {
		return nil
	}
	payment := &models.Payment{
		OrderID:       orderID,
		TransactionID: txn.ID,
		AmountCents:   txn.AmountCents,
		Currency:      txn.Currency,
		Success:       *txn.Success,
		Payload:       string(body),
	}
	err := payments.Create(ctx, payment)
	if errors.Is(err, repositories.ErrDuplicatePayment) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record payment for order %s: %w", orderID, err)
	}
	return nil
}

// parseCallback accepts both the provider envelope {"obj": {...}} and a bare
// transaction object.
func parseCallback(body []byte) (*callbackTransaction, string, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	txn := env.Obj
	if txn == nil {
		txn = &callbackTransaction{}
		if err := json.Unmarshal(body, txn); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrMalformedCallback, err)
		}
	}
	if txn.Success == nil {
		return nil, "", fmt.Errorf("%w: missing success flag", ErrMalformedCallback)
	}
	orderID := merchantOrderID(txn.Order.MerchantOrderID)
	if orderID == "" {
		return nil, "", fmt.Errorf("%w: missing merchant_order_id", ErrMalformedCallback)
	}
	return txn, orderID, nil
}

// merchantOrderID accepts the id as a JSON string or number.
func merchantOrderID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func canonicalJSON(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
