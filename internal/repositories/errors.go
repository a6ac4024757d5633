package repositories

import "errors"

var (
	// ErrProductNotFound is returned when a product lookup matches nothing.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound is returned when an order lookup matches nothing.
	ErrOrderNotFound = errors.New("order not found")
	// ErrPaymentNotFound is returned when a payment lookup matches nothing.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrDuplicatePayment is returned when a transaction was already recorded.
	ErrDuplicatePayment = errors.New("payment already recorded")
)
