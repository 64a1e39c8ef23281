package tests

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"foodorder/pkg/common/domain"
	"foodorder/pkg/order/domain/model"
)

func newTestLogger() (*log.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	return logger, hook
}

var _ model.OrderAPI = &mockOrderAPI{}

type setStatusCall struct {
	OrderID string
	Status  model.Status
	Reason  string
}

type mockOrderAPI struct {
	mu sync.Mutex

	store  map[string]*model.Order
	nextID int

	creates        []model.DraftPayload
	updates        []model.OrderUpdate
	confirms       []string
	setStatusCalls []setStatusCall
	deletes        []string
	gets           int

	// failMutation is returned by the next mutating call instead of doing it.
	failMutation error
	failGet      error
	// gate, when set, blocks mutating calls until it is closed.
	gate chan struct{}
}

func newMockOrderAPI() *mockOrderAPI {
	return &mockOrderAPI{store: make(map[string]*model.Order)}
}

func (m *mockOrderAPI) seed(order model.Order) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == "" {
		m.nextID++
		order.ID = fmt.Sprintf("order-%d", m.nextID)
	}
	order.RecalculateTotal()
	stored := order.Clone()
	m.store[order.ID] = &stored
	return order.Clone()
}

func (m *mockOrderAPI) mutationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creates) + len(m.updates) + len(m.confirms) + len(m.setStatusCalls) + len(m.deletes)
}

func (m *mockOrderAPI) stored(id string) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id].Clone()
}

func (m *mockOrderAPI) beforeMutation() error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failMutation; err != nil {
		m.failMutation = nil
		return err
	}
	return nil
}

func (m *mockOrderAPI) Create(_ context.Context, draft model.DraftPayload) (*model.Order, error) {
	if err := m.beforeMutation(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, draft)
	m.nextID++
	now := time.Now().UTC()
	order := &model.Order{
		ID:               fmt.Sprintf("order-%d", m.nextID),
		RestaurantID:     draft.RestaurantID,
		CustomerID:       draft.CustomerID,
		Items:            append([]model.MenuItemRef(nil), draft.Items...),
		CustomerInfo:     draft.CustomerInfo,
		CustomerLocation: draft.CustomerLocation,
		Status:           model.Draft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	order.RecalculateTotal()
	m.store[order.ID] = order
	clone := order.Clone()
	return &clone, nil
}

func (m *mockOrderAPI) Get(_ context.Context, orderID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet != nil {
		return nil, m.failGet
	}
	order, ok := m.store[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	clone := order.Clone()
	return &clone, nil
}

func (m *mockOrderAPI) Update(_ context.Context, orderID string, update model.OrderUpdate) (*model.Order, error) {
	if err := m.beforeMutation(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, update)
	order, ok := m.store[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	if order.Status != model.Draft {
		return nil, &model.StateConflictError{OrderID: orderID, Status: order.Status, Server: true, Message: "order can only be modified in DRAFT status"}
	}
	if update.Items != nil {
		order.Items = append([]model.MenuItemRef(nil), update.Items...)
		order.RecalculateTotal()
	}
	if update.CustomerInfo != nil {
		order.CustomerInfo = *update.CustomerInfo
	}
	order.UpdatedAt = time.Now().UTC()
	clone := order.Clone()
	return &clone, nil
}

func (m *mockOrderAPI) Confirm(ctx context.Context, orderID string) (*model.Order, error) {
	if err := m.beforeMutation(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirms = append(m.confirms, orderID)
	return m.transitionLocked(orderID, model.Confirmed, "")
}

func (m *mockOrderAPI) SetStatus(_ context.Context, orderID string, status model.Status, reason string) (*model.Order, error) {
	if err := m.beforeMutation(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusCalls = append(m.setStatusCalls, setStatusCall{OrderID: orderID, Status: status, Reason: reason})
	return m.transitionLocked(orderID, status, reason)
}

func (m *mockOrderAPI) transitionLocked(orderID string, status model.Status, reason string) (*model.Order, error) {
	order, ok := m.store[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	if !model.CanTransition(order.Status, status) {
		return nil, &model.StateConflictError{OrderID: orderID, Status: order.Status, Server: true, Message: "invalid status transition"}
	}
	order.Status = status
	if status == model.Cancelled {
		order.CancellationReason = reason
	}
	order.UpdatedAt = time.Now().UTC()
	clone := order.Clone()
	return &clone, nil
}

func (m *mockOrderAPI) ListForCurrentUser(context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]model.Order, 0, len(m.store))
	for _, o := range m.store {
		orders = append(orders, o.Clone())
	}
	return orders, nil
}

func (m *mockOrderAPI) ListConfirmedForRestaurant(_ context.Context, restaurantID string) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []model.Order
	for _, o := range m.store {
		if o.Status == model.Confirmed && o.RestaurantID == restaurantID {
			orders = append(orders, o.Clone())
		}
	}
	return orders, nil
}

func (m *mockOrderAPI) ListReadyForDelivery(context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []model.Order
	for _, o := range m.store {
		if o.Status == model.ReadyForDelivery {
			orders = append(orders, o.Clone())
		}
	}
	return orders, nil
}

func (m *mockOrderAPI) Delete(_ context.Context, orderID string) error {
	if err := m.beforeMutation(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, orderID)
	if _, ok := m.store[orderID]; !ok {
		return model.ErrOrderNotFound
	}
	delete(m.store, orderID)
	return nil
}

var _ model.DeliveryAPI = &mockDeliveryAPI{}

type mockDeliveryAPI struct {
	deliveries  map[string]*model.Delivery
	locations   map[string]model.GeoCoordinate
	deliveryErr error
	locationErr error
	assigned    []model.AssignmentRequest
	calls       int
}

func newMockDeliveryAPI() *mockDeliveryAPI {
	return &mockDeliveryAPI{
		deliveries: make(map[string]*model.Delivery),
		locations:  make(map[string]model.GeoCoordinate),
	}
}

func (m *mockDeliveryAPI) GetDeliveryForOrder(_ context.Context, orderID string) (*model.Delivery, error) {
	m.calls++
	if m.deliveryErr != nil {
		return nil, m.deliveryErr
	}
	d, ok := m.deliveries[orderID]
	if !ok {
		return nil, model.ErrDeliveryNotFound
	}
	clone := *d
	return &clone, nil
}

func (m *mockDeliveryAPI) GetDriverLocation(_ context.Context, driverID string) (model.GeoCoordinate, error) {
	m.calls++
	if m.locationErr != nil {
		return model.GeoCoordinate{}, m.locationErr
	}
	return m.locations[driverID], nil
}

func (m *mockDeliveryAPI) Assign(_ context.Context, req model.AssignmentRequest) (*model.Delivery, error) {
	m.calls++
	m.assigned = append(m.assigned, req)
	d := &model.Delivery{ID: "delivery-" + req.OrderID, OrderID: req.OrderID, DriverID: "driver-1", Status: model.DeliveryAssigned}
	m.deliveries[req.OrderID] = d
	clone := *d
	return &clone, nil
}

func (m *mockDeliveryAPI) ListForDriver(_ context.Context, driverID string) ([]model.Delivery, error) {
	m.calls++
	var result []model.Delivery
	for _, d := range m.deliveries {
		if d.DriverID == driverID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDeliveryAPI) UpdateStatus(_ context.Context, deliveryID string, status model.DeliveryStatus) (*model.Delivery, error) {
	m.calls++
	for _, d := range m.deliveries {
		if d.ID == deliveryID {
			d.Status = status
			clone := *d
			return &clone, nil
		}
	}
	return nil, model.ErrDeliveryNotFound
}

var _ domain.EventDispatcher = &mockEventDispatcher{}

type mockEventDispatcher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventDispatcher) Dispatch(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *mockEventDispatcher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type())
	}
	return types
}

type locationFunc func(ctx context.Context) (model.GeoCoordinate, error)

func (f locationFunc) CurrentPosition(ctx context.Context) (model.GeoCoordinate, error) {
	return f(ctx)
}
