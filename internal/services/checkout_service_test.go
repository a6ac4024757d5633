package services_test

import (
	"context"
	"errors"
	"testing"

	"kasir/internal/events"
	"kasir/internal/gateway"
	"kasir/internal/models"
	"kasir/internal/repositories"
	"kasir/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	orderRepo *repositories.MockOrderRepository
	gateway   *MockGateway
	publisher *recordingPublisher
	service   *services.CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	ctx := context.Background()

	productRepo := repositories.NewMockProductRepository()
	require.NoError(t, productRepo.Create(ctx, &models.Product{ID: "1", Name: "Mug", Price: price("10.00")}))
	require.NoError(t, productRepo.Create(ctx, &models.Product{ID: "2", Name: "Spoon", Price: price("5.00")}))

	f := &checkoutFixture{
		orderRepo: repositories.NewMockOrderRepository(),
		gateway:   new(MockGateway),
		publisher: &recordingPublisher{},
	}
	orders := services.NewOrderService(f.orderRepo, productRepo, f.publisher)
	f.service = services.NewCheckoutService(orders, f.orderRepo, f.gateway, f.publisher)
	return f
}

func (f *checkoutFixture) onlyOrder(t *testing.T) models.Order {
	t.Helper()
	all, err := f.orderRepo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	return all[0]
}

var testBilling = models.BillingData{
	FirstName:   "Omar",
	LastName:    "Hesham",
	Email:       "omar@example.com",
	PhoneNumber: "01000000000",
}

func testCheckoutRequest(method string) services.CheckoutRequest {
	return services.CheckoutRequest{
		UserID: "user-1",
		Items: []services.ItemRequest{
			{ProductID: "1", Quantity: 2},
			{ProductID: "2", Quantity: 1},
		},
		Billing:       testBilling,
		PaymentMethod: method,
	}
}

func TestCheckoutService_Success(t *testing.T) {
	f := newCheckoutFixture(t)
	payable := gateway.Payable{Method: gateway.MethodCard, URL: "https://pay.example/iframe?payment_token=pk"}

	f.gateway.On("Authenticate", mock.Anything).Return("tok", nil).Once()
	f.gateway.On("CreateRemoteOrder", mock.Anything, "tok", mock.AnythingOfType("string"), int64(2500)).Return(int64(777), nil).Once()
	f.gateway.On("GeneratePaymentKey", mock.Anything, "tok", int64(777), int64(2500), testBilling, gateway.MethodCard).Return("pk", nil).Once()
	f.gateway.On("BuildPayable", "pk", gateway.MethodCard).Return(payable, nil).Once()

	result, err := f.service.Checkout(context.Background(), testCheckoutRequest(""))
	require.NoError(t, err)

	assert.Equal(t, int64(777), result.RemoteOrderID)
	assert.Equal(t, "pk", result.PaymentKey)
	assert.Equal(t, payable, result.Payable)
	assert.Equal(t, models.OrderStatusPending, result.Order.Status)
	assert.True(t, result.Order.TotalAmount.Equal(price("25.00")))

	stored := f.onlyOrder(t)
	assert.Equal(t, result.Order.ID, stored.ID)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	require.NotNil(t, stored.GatewayOrderID)
	assert.Equal(t, int64(777), *stored.GatewayOrderID)
	assert.Equal(t, "card", stored.PaymentMethod)

	// The merchant order id sent to the provider is the local order id.
	f.gateway.AssertCalled(t, "CreateRemoteOrder", mock.Anything, "tok", stored.ID, int64(2500))
	assert.Equal(t, []string{events.OrderCreated, events.OrderCheckoutStarted}, f.publisher.types())
	f.gateway.AssertExpectations(t)
}

func TestCheckoutService_GatewayFailureMarksOrderFailed(t *testing.T) {
	cases := []struct {
		name   string
		failAt gateway.Step
		kind   error
	}{
		{name: "authenticate", failAt: gateway.StepAuthenticate, kind: gateway.ErrAuth},
		{name: "create order", failAt: gateway.StepCreateOrder, kind: gateway.ErrOrder},
		{name: "payment key", failAt: gateway.StepPaymentKey, kind: gateway.ErrKey},
		{name: "payment key timeout", failAt: gateway.StepPaymentKey, kind: gateway.ErrTimeout},
		{name: "build payable", failAt: gateway.StepPayable, kind: gateway.ErrUnsupportedMethod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			gwErr := &gateway.Error{Step: tc.failAt, Kind: tc.kind, Err: errors.New("provider said no")}

			errFor := func(step gateway.Step) error {
				if step == tc.failAt {
					return gwErr
				}
				return nil
			}
			f.gateway.On("Authenticate", mock.Anything).Return("tok", errFor(gateway.StepAuthenticate)).Maybe()
			f.gateway.On("CreateRemoteOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(777), errFor(gateway.StepCreateOrder)).Maybe()
			f.gateway.On("GeneratePaymentKey", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("pk", errFor(gateway.StepPaymentKey)).Maybe()
			f.gateway.On("BuildPayable", mock.Anything, mock.Anything).Return(gateway.Payable{}, errFor(gateway.StepPayable)).Maybe()

			result, err := f.service.Checkout(context.Background(), testCheckoutRequest("card"))
			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)

			var checkoutErr *services.CheckoutError
			require.ErrorAs(t, err, &checkoutErr)

			stored := f.onlyOrder(t)
			assert.Equal(t, stored.ID, checkoutErr.OrderID)
			assert.Equal(t, models.OrderStatusFailed, stored.Status)
			assert.Equal(t, []string{events.OrderCreated, events.OrderFailed}, f.publisher.types())
		})
	}
}

func TestCheckoutService_StopsAtFirstFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.On("Authenticate", mock.Anything).Return("", &gateway.Error{Step: gateway.StepAuthenticate, Kind: gateway.ErrAuth}).Once()

	_, err := f.service.Checkout(context.Background(), testCheckoutRequest(""))
	assert.ErrorIs(t, err, gateway.ErrAuth)

	f.gateway.AssertNotCalled(t, "CreateRemoteOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "BuildPayable", mock.Anything, mock.Anything)
}

func TestCheckoutService_InvalidCartCreatesNoOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	req := testCheckoutRequest("")
	req.Items = append(req.Items, services.ItemRequest{ProductID: "missing", Quantity: 1})

	_, err := f.service.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, services.ErrProductNotFound)

	var checkoutErr *services.CheckoutError
	assert.False(t, errors.As(err, &checkoutErr))

	all, err := f.orderRepo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	f.gateway.AssertNotCalled(t, "Authenticate", mock.Anything)
}

func TestCheckoutService_UnknownMethodCreatesNoOrder(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.Checkout(context.Background(), testCheckoutRequest("cheque"))
	assert.ErrorIs(t, err, services.ErrInvalidOrder)

	all, err := f.orderRepo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCheckoutService_WalletMethodIsForwarded(t *testing.T) {
	f := newCheckoutFixture(t)
	payable := gateway.Payable{Method: gateway.MethodVodafoneCash, URL: "https://pay.example/wallet", Reference: "W1-abcdef"}

	f.gateway.On("Authenticate", mock.Anything).Return("tok", nil)
	f.gateway.On("CreateRemoteOrder", mock.Anything, "tok", mock.Anything, int64(2500)).Return(int64(5), nil)
	f.gateway.On("GeneratePaymentKey", mock.Anything, "tok", int64(5), int64(2500), testBilling, gateway.MethodVodafoneCash).Return("pk", nil)
	f.gateway.On("BuildPayable", "pk", gateway.MethodVodafoneCash).Return(payable, nil)

	result, err := f.service.Checkout(context.Background(), testCheckoutRequest("vodafone_cash"))
	require.NoError(t, err)
	assert.Equal(t, "W1-abcdef", result.Payable.Reference)
	assert.Equal(t, "vodafone_cash", f.onlyOrder(t).PaymentMethod)
}

func TestCheckoutService_CompensationKeepsLaterTerminalStatus(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.On("Authenticate", mock.Anything).Return("tok", nil)
	// A callback lands while the handshake is still running.
	f.gateway.On("CreateRemoteOrder", mock.Anything, "tok", mock.Anything, int64(2500)).
		Run(func(args mock.Arguments) {
			_, err := f.orderRepo.TransitionStatus(context.Background(), args.String(2), models.OrderStatusPending, models.OrderStatusPaid)
			require.NoError(t, err)
		}).
		Return(int64(5), nil)
	f.gateway.On("GeneratePaymentKey", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", &gateway.Error{Step: gateway.StepPaymentKey, Kind: gateway.ErrKey})

	_, err := f.service.Checkout(context.Background(), testCheckoutRequest(""))
	assert.ErrorIs(t, err, gateway.ErrKey)
	assert.Equal(t, models.OrderStatusPaid, f.onlyOrder(t).Status)
	assert.NotContains(t, f.publisher.types(), events.OrderFailed)
}

func TestCheckoutService_CompensatesAfterCancellation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.gateway.On("Authenticate", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return("", &gateway.Error{Step: gateway.StepAuthenticate, Kind: gateway.ErrAuth, Err: context.Canceled})

	_, err := f.service.Checkout(ctx, testCheckoutRequest(""))
	assert.ErrorIs(t, err, gateway.ErrAuth)
	assert.Equal(t, models.OrderStatusFailed, f.onlyOrder(t).Status)
}
