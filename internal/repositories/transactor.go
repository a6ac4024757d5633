package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs fn with order and payment repositories that share one
// unit of work. If fn returns an error nothing it wrote is kept.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(orders OrderRepository, payments PaymentRepository) error) error
}

// GORMTransactor binds both repositories to a single database transaction.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new instance of GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (t *GORMTransactor) WithinTx(ctx context.Context, fn func(orders OrderRepository, payments PaymentRepository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMOrderRepository(tx), NewGORMPaymentRepository(tx))
	})
}

// MockTransactor hands fn the repositories it was built with. It cannot roll
// back, so callers must perform their writes in an order where a failure
// leaves nothing behind.
type MockTransactor struct {
	orders   OrderRepository
	payments PaymentRepository
}

// NewMockTransactor creates a new instance of MockTransactor.
func NewMockTransactor(orders OrderRepository, payments PaymentRepository) *MockTransactor {
	return &MockTransactor{orders: orders, payments: payments}
}

// WithinTx calls fn directly.
func (t *MockTransactor) WithinTx(_ context.Context, fn func(orders OrderRepository, payments PaymentRepository) error) error {
	return fn(t.orders, t.payments)
}
