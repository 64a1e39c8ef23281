package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder/pkg/order/domain/model"
	"foodorder/pkg/order/domain/service"
	"foodorder/pkg/order/infrastructure/stub"
	"foodorder/pkg/order/infrastructure/transport"
)

var home = model.Address{Street: "12 Galle Rd", City: "Colombo", ContactNumber: "0771234567"}

type clients struct {
	orders     *transport.OrderClient
	deliveries *transport.DeliveryClient
	menu       *transport.MenuClient
	store      *stub.Store
}

func setup(t *testing.T) clients {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store, err := stub.NewStore(stub.DefaultFixtures())
	require.NoError(t, err)

	server := httptest.NewServer(stub.Router(store, logger))
	t.Cleanup(server.Close)

	client := transport.NewClient(server.URL+"/api", "token", 5*time.Second, logger)
	return clients{
		orders:     transport.NewOrderClient(client),
		deliveries: transport.NewDeliveryClient(client),
		menu:       transport.NewMenuClient(client),
		store:      store,
	}
}

func draft() model.DraftPayload {
	items := []model.MenuItemRef{
		{ItemID: "margherita", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.99"), Quantity: 1},
		{ItemID: "cola", Name: "Cola", UnitPrice: decimal.RequireFromString("4.99"), Quantity: 1},
	}
	return model.DraftPayload{
		CustomerID:       "customer-1",
		RestaurantID:     "rest-pizza",
		Items:            items,
		TotalAmount:      model.SumItems(items),
		CustomerInfo:     home,
		CustomerLocation: model.GeoCoordinate{Longitude: 79.87, Latitude: 6.93},
		Status:           model.Draft,
	}
}

func TestOrderRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	created, err := c.orders.Create(ctx, draft())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.Draft, created.Status)
	assert.Equal(t, "Pizza Place", created.RestaurantName)
	assert.True(t, decimal.RequireFromString("17.98").Equal(created.TotalAmount))
	assert.Equal(t, model.GeoCoordinate{Longitude: 79.87, Latitude: 6.93}, created.CustomerLocation)

	items := append([]model.MenuItemRef(nil), created.Items...)
	items[1].Quantity = 3
	total := model.SumItems(items)
	updated, err := c.orders.Update(ctx, created.ID, model.OrderUpdate{Items: items, TotalAmount: &total})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("27.96").Equal(updated.TotalAmount))

	confirmed, err := c.orders.Confirm(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Confirmed, confirmed.Status)

	waiting, err := c.orders.ListConfirmedForRestaurant(ctx, "rest-pizza")
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, created.ID, waiting[0].ID)
	waiting, err = c.orders.ListConfirmedForRestaurant(ctx, "rest-sushi")
	require.NoError(t, err)
	assert.Empty(t, waiting)

	for _, status := range []model.Status{model.Placed, model.Preparing, model.ReadyForDelivery} {
		order, err := c.orders.SetStatus(ctx, created.ID, status, "")
		require.NoError(t, err)
		assert.Equal(t, status, order.Status)
	}

	ready, err := c.orders.ListReadyForDelivery(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, created.ID, ready[0].ID)

	fetched, err := c.orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReadyForDelivery, fetched.Status)
	assert.Equal(t, home, fetched.CustomerInfo)
}

func TestOrderErrors(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	t.Run("Unknown order", func(t *testing.T) {
		_, err := c.orders.Get(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Modify after confirm is a server conflict", func(t *testing.T) {
		created, err := c.orders.Create(ctx, draft())
		require.NoError(t, err)
		_, err = c.orders.Confirm(ctx, created.ID)
		require.NoError(t, err)

		_, err = c.orders.Update(ctx, created.ID, model.OrderUpdate{CustomerInfo: &home})

		var conflict *model.StateConflictError
		require.True(t, errors.As(err, &conflict))
		assert.True(t, conflict.Server)
		assert.Contains(t, conflict.Message, "DRAFT")
	})

	t.Run("Cancel without reason is rejected by the service", func(t *testing.T) {
		created, err := c.orders.Create(ctx, draft())
		require.NoError(t, err)

		_, err = c.orders.SetStatus(ctx, created.ID, model.Cancelled, "")

		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, http.StatusBadRequest, transportErr.StatusCode)
		assert.NotEmpty(t, transportErr.UserMessage())
	})

	t.Run("Delete only drafts", func(t *testing.T) {
		created, err := c.orders.Create(ctx, draft())
		require.NoError(t, err)
		require.NoError(t, c.orders.Delete(ctx, created.ID))

		_, err = c.orders.Get(ctx, created.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Invalid draft", func(t *testing.T) {
		payload := draft()
		payload.Items = nil

		_, err := c.orders.Create(ctx, payload)

		var transportErr *model.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, http.StatusBadRequest, transportErr.StatusCode)
	})
}

func TestDeliveryFlow(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	created, err := c.orders.Create(ctx, draft())
	require.NoError(t, err)

	_, err = c.deliveries.GetDeliveryForOrder(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrDeliveryNotFound)

	request := model.AssignmentRequest{OrderID: created.ID, RestaurantID: created.RestaurantID, CustomerLocation: created.CustomerLocation}
	_, err = c.deliveries.Assign(ctx, request)
	assert.ErrorIs(t, err, model.ErrStateConflict)

	for _, status := range []model.Status{model.Confirmed, model.Placed, model.Preparing, model.ReadyForDelivery} {
		_, err = c.orders.SetStatus(ctx, created.ID, status, "")
		require.NoError(t, err)
	}

	delivery, err := c.deliveries.Assign(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, "driver-1", delivery.DriverID)
	assert.Equal(t, model.DeliveryAssigned, delivery.Status)

	fetched, err := c.deliveries.GetDeliveryForOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.ID, fetched.ID)

	location, err := c.deliveries.GetDriverLocation(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, model.GeoCoordinate{Longitude: 79.8612, Latitude: 6.9271}, location)

	list, err := c.deliveries.ListForDriver(ctx, "driver-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = c.deliveries.UpdateStatus(ctx, delivery.ID, model.DeliveryCompleted)
	require.NoError(t, err)
	order, err := c.orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Delivered, order.Status)
}

func TestMenu(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	restaurant, err := c.menu.Restaurant(ctx, "rest-sushi")
	require.NoError(t, err)
	assert.Equal(t, "Sushi Bar", restaurant.DisplayName)

	items, err := c.menu.MenuItems(ctx, "rest-sushi")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, decimal.RequireFromString("9.75").Equal(items[0].UnitPrice))

	_, err = c.menu.Restaurant(ctx, "rest-unknown")
	assert.ErrorIs(t, err, model.ErrRestaurantNotFound)
}

type recorded struct {
	method  string
	path    string
	auth    string
	request string
}

func TestRequestShape(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []recorded
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), request: r.Header.Get(transport.RequestIDHeader)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"o-1","status":"PREPARING","items":[],"customerLocation":{"type":"Point","coordinates":[0,0]}}}`))
	}))
	defer server.Close()
	logger, _ := test.NewNullLogger()
	orders := transport.NewOrderClient(transport.NewClient(server.URL+"/api/", "secret", time.Second, logger))

	_, err := orders.SetStatus(context.Background(), "o-1", model.Preparing, "")
	require.NoError(t, err)
	_, err = orders.SetStatus(context.Background(), "o-1", model.Placed, "")
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPatch, calls[0].method)
	assert.Equal(t, "/api/orders/o-1/placed", calls[0].path)
	assert.Equal(t, "/api/orders/o-1/status", calls[1].path)
	assert.Equal(t, "Bearer secret", calls[0].auth)
	assert.NotEmpty(t, calls[0].request)
	assert.NotEqual(t, calls[0].request, calls[1].request)
}

func TestServiceFailureWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	logger, _ := test.NewNullLogger()
	orders := transport.NewOrderClient(transport.NewClient(server.URL, "", time.Second, logger))

	_, err := orders.Get(context.Background(), "o-1")

	var transportErr *model.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.Equal(t, "the service could not complete the request", transportErr.UserMessage())
}

func TestUnreachableService(t *testing.T) {
	logger, _ := test.NewNullLogger()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	orders := transport.NewOrderClient(transport.NewClient(url, "", time.Second, logger))

	_, err := orders.Get(context.Background(), "o-1")

	var transportErr *model.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Zero(t, transportErr.StatusCode)
	assert.Error(t, transportErr.Unwrap())
}

func TestControllerOverHTTP(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	builder := service.NewDraftBuilder(c.orders, nil, logger)
	cart := service.NewCart()
	menu, err := c.menu.MenuItems(ctx, "rest-pizza")
	require.NoError(t, err)
	restaurant, err := c.menu.Restaurant(ctx, "rest-pizza")
	require.NoError(t, err)
	for _, item := range menu {
		_, err := cart.AddItem(item, *restaurant)
		require.NoError(t, err)
	}

	order, err := builder.Submit(ctx, service.DraftInputFromCart(cart, home, service.LocationFix{}, false))
	require.NoError(t, err)
	assert.Equal(t, model.GeoCoordinate{}, order.CustomerLocation)

	controller := service.NewLifecycleController(c.orders, nil, logger)
	controller.Adopt(*order)

	updated, err := controller.ChangeQuantity(ctx, "cola", -1)
	require.NoError(t, err)
	assert.Len(t, updated.Items, 2)
	assert.True(t, decimal.RequireFromString("27.49").Equal(updated.TotalAmount))

	_, err = controller.Confirm(ctx)
	require.NoError(t, err)

	// The restaurant accepts from another client; our local view is stale.
	_, err = c.store.SetStatus(order.ID, model.Placed, "")
	require.NoError(t, err)

	current, err := controller.Cancel(ctx, "changed my mind")
	var conflict *model.StateConflictError
	require.True(t, errors.As(err, &conflict))
	assert.True(t, conflict.Server)
	assert.Equal(t, model.Placed, current.Status)
	assert.Equal(t, model.Placed, conflict.Status)
}
