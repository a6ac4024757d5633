package services_test

import (
	"context"
	"errors"
	"testing"

	"kasir/internal/events"
	"kasir/internal/models"
	"kasir/internal/repositories"
	"kasir/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateOrder(t *testing.T) {
	productRepo := new(MockProductRepository)
	orderRepo := repositories.NewMockOrderRepository()
	publisher := &recordingPublisher{}
	service := services.NewOrderService(orderRepo, productRepo, publisher)
	ctx := context.Background()

	productRepo.On("GetPrices", mock.Anything, []string{"1", "2"}).
		Return(map[string]decimal.Decimal{"1": price("10.00"), "2": price("5.00")}, nil).Once()

	order, err := service.CreateOrder(ctx, "user-1", []services.ItemRequest{
		{ProductID: "1", Quantity: 2},
		{ProductID: "2", Quantity: 1},
	}, "card")
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(price("25.00")), "total was %s", order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "user-1", order.UserID)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].UnitPrice.Equal(price("10.00")))
	assert.Equal(t, 2, order.Items[0].Quantity)

	stored, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(stored.ItemsTotal()))
	assert.Equal(t, []string{events.OrderCreated}, publisher.types())
	productRepo.AssertExpectations(t)
}

func TestOrderService_CreateOrderSnapshotsPrices(t *testing.T) {
	productRepo := repositories.NewMockProductRepository()
	orderRepo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(orderRepo, productRepo, nil)
	ctx := context.Background()

	product := &models.Product{ID: "1", Name: "Widget", Price: price("10.00")}
	require.NoError(t, productRepo.Create(ctx, product))

	order, err := service.CreateOrder(ctx, "user-1", []services.ItemRequest{{ProductID: "1", Quantity: 3}}, "card")
	require.NoError(t, err)

	product.Price = price("99.99")
	require.NoError(t, productRepo.Update(ctx, product))

	stored, err := service.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(price("30.00")))
	assert.True(t, stored.Items[0].UnitPrice.Equal(price("10.00")))
}

func TestOrderService_CreateOrderUnknownProduct(t *testing.T) {
	productRepo := new(MockProductRepository)
	orderRepo := repositories.NewMockOrderRepository()
	publisher := &recordingPublisher{}
	service := services.NewOrderService(orderRepo, productRepo, publisher)
	ctx := context.Background()

	productRepo.On("GetPrices", mock.Anything, []string{"1", "404"}).
		Return(map[string]decimal.Decimal{"1": price("10.00")}, nil).Once()

	order, err := service.CreateOrder(ctx, "user-1", []services.ItemRequest{
		{ProductID: "1", Quantity: 1},
		{ProductID: "404", Quantity: 1},
	}, "card")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.Contains(t, err.Error(), "404")

	all, err := orderRepo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, publisher.types())
}

func TestOrderService_CreateOrderRejectsInvalidInput(t *testing.T) {
	productRepo := new(MockProductRepository)
	service := services.NewOrderService(repositories.NewMockOrderRepository(), productRepo, nil)
	ctx := context.Background()

	_, err := service.CreateOrder(ctx, "user-1", nil, "card")
	assert.ErrorIs(t, err, services.ErrInvalidOrder)

	_, err = service.CreateOrder(ctx, "user-1", []services.ItemRequest{{ProductID: "1", Quantity: 0}}, "card")
	assert.ErrorIs(t, err, services.ErrInvalidOrder)

	_, err = service.CreateOrder(ctx, "", []services.ItemRequest{{ProductID: "1", Quantity: 1}}, "card")
	assert.ErrorIs(t, err, services.ErrInvalidOrder)

	productRepo.AssertNotCalled(t, "GetPrices", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrderCatalogFailure(t *testing.T) {
	productRepo := new(MockProductRepository)
	productRepo.On("GetPrices", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	service := services.NewOrderService(repositories.NewMockOrderRepository(), productRepo, nil)

	_, err := service.CreateOrder(context.Background(), "user-1", []services.ItemRequest{{ProductID: "1", Quantity: 1}}, "card")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrProductNotFound)
}

func TestPriceItems(t *testing.T) {
	prices := map[string]decimal.Decimal{"a": price("1.10"), "b": price("2.25")}

	items, total, err := services.PriceItems([]services.ItemRequest{
		{ProductID: "a", Quantity: 3},
		{ProductID: "b", Quantity: 2},
		{ProductID: "a", Quantity: 1},
	}, prices)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.True(t, total.Equal(price("8.90")), "total was %s", total)

	_, _, err = services.PriceItems([]services.ItemRequest{{ProductID: "x", Quantity: 1}, {ProductID: "y", Quantity: 1}}, prices)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.Contains(t, err.Error(), "x, y")
}

func TestOrderService_GetOrderByIDNotFound(t *testing.T) {
	service := services.NewOrderService(repositories.NewMockOrderRepository(), new(MockProductRepository), nil)

	_, err := service.GetOrderByID(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}
