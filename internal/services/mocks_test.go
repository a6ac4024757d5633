package services_test

import (
	"context"
	"sync"

	"kasir/internal/events"
	"kasir/internal/gateway"
	"kasir/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// MockGateway is a mock implementation of services.PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Authenticate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateRemoteOrder(ctx context.Context, token, merchantOrderID string, amountCents int64) (int64, error) {
	args := m.Called(ctx, token, merchantOrderID, amountCents)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGateway) GeneratePaymentKey(ctx context.Context, token string, remoteOrderID, amountCents int64, billing models.BillingData, method gateway.PaymentMethod) (string, error) {
	args := m.Called(ctx, token, remoteOrderID, amountCents, billing, method)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) BuildPayable(paymentKey string, method gateway.PaymentMethod) (gateway.Payable, error) {
	args := m.Called(paymentKey, method)
	return args.Get(0).(gateway.Payable), args.Error(1)
}

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
