package services

import "errors"

var (
	// ErrInvalidOrder is returned for an empty item list, a quantity below one,
	// or an unknown payment method.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrProductNotFound is returned when a requested product is not in the catalog.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound is returned when a callback or lookup names no known order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidSignature is returned when a callback fails HMAC verification.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalformedCallback is returned for a verified callback missing required fields.
	ErrMalformedCallback = errors.New("malformed callback")
	// ErrPaymentNotFound is returned when a payment lookup matches nothing.
	ErrPaymentNotFound = errors.New("payment not found")
)
