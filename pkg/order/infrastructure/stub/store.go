package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"foodorder/pkg/order/domain/model"
	"foodorder/pkg/order/domain/service"
)

var (
	ErrDriverNotFound    = errors.New("driver not found")
	ErrNoDriverAvailable = errors.New("no driver available")
	ErrAlreadyAssigned   = errors.New("order already has a delivery")
)

type restaurant struct {
	ref  model.RestaurantRef
	menu []model.MenuItemRef
}

// Store keeps the state of the stand-in order, delivery and restaurant
// services. It enforces the same status rules as the real order service.
type Store struct {
	mu          sync.Mutex
	orders      map[string]*model.Order
	deliveries  map[string]*model.Delivery
	drivers     map[string]model.GeoCoordinate
	restaurants map[string]restaurant
	now         func() time.Time
}

func NewStore(fixtures Fixtures) (*Store, error) {
	s := &Store{
		orders:      make(map[string]*model.Order),
		deliveries:  make(map[string]*model.Delivery),
		drivers:     make(map[string]model.GeoCoordinate),
		restaurants: make(map[string]restaurant),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, r := range fixtures.Restaurants {
		entry := restaurant{ref: model.RestaurantRef{RestaurantID: r.ID, DisplayName: r.Name}}
		for _, item := range r.Menu {
			price, err := decimal.NewFromString(item.Price)
			if err != nil {
				return nil, errors.Wrapf(err, "price of %s", item.ID)
			}
			entry.menu = append(entry.menu, model.MenuItemRef{ItemID: item.ID, Name: item.Name, UnitPrice: price})
		}
		s.restaurants[r.ID] = entry
	}
	for _, d := range fixtures.Drivers {
		s.drivers[d.ID] = model.GeoCoordinate{Longitude: d.Location[0], Latitude: d.Location[1]}
	}
	return s, nil
}

func (s *Store) CreateOrder(draft model.DraftPayload) (model.Order, error) {
	if err := service.ValidatePayload(draft, false); err != nil {
		return model.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	order := &model.Order{
		ID:               uuid.NewString(),
		RestaurantID:     draft.RestaurantID,
		CustomerID:       draft.CustomerID,
		Items:            append([]model.MenuItemRef(nil), draft.Items...),
		CustomerInfo:     draft.CustomerInfo,
		CustomerLocation: draft.CustomerLocation,
		Status:           model.Draft,
		PaymentStatus:    "PENDING",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if r, ok := s.restaurants[draft.RestaurantID]; ok {
		order.RestaurantName = r.ref.DisplayName
	}
	order.RecalculateTotal()
	s.orders[order.ID] = order
	return order.Clone(), nil
}

func (s *Store) Order(orderID string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// Orders returns every order, oldest first.
func (s *Store) Orders() []model.Order {
	return s.filter(func(*model.Order) bool { return true })
}

func (s *Store) ReadyOrders() []model.Order {
	return s.filter(func(o *model.Order) bool { return o.Status == model.ReadyForDelivery })
}

// ConfirmedOrders lists the orders of one restaurant waiting to be accepted.
func (s *Store) ConfirmedOrders(restaurantID string) []model.Order {
	return s.filter(func(o *model.Order) bool {
		return o.Status == model.Confirmed && o.RestaurantID == restaurantID
	})
}

func (s *Store) filter(keep func(*model.Order) bool) []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			orders = append(orders, o.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders
}

// UpdateOrder applies a modification. Only DRAFT orders can be modified.
func (s *Store) UpdateOrder(orderID string, update model.OrderUpdate) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := s.orderLocked(orderID)
	if err != nil {
		return model.Order{}, err
	}
	if !order.Status.Editable() {
		return model.Order{}, conflict(order, model.ActionModify, "order can only be modified in DRAFT status")
	}
	if update.Items != nil {
		if len(update.Items) == 0 {
			return model.Order{}, model.NewValidationError(model.ErrEmptyItems)
		}
		order.Items = append([]model.MenuItemRef(nil), update.Items...)
		order.RecalculateTotal()
	}
	if update.CustomerInfo != nil {
		if !update.CustomerInfo.Complete() {
			return model.Order{}, model.NewValidationError(model.ErrIncompleteAddress)
		}
		order.CustomerInfo = *update.CustomerInfo
	}
	order.UpdatedAt = s.now()
	return order.Clone(), nil
}

func (s *Store) ConfirmOrder(orderID string) (model.Order, error) {
	return s.SetStatus(orderID, model.Confirmed, "")
}

// SetStatus moves an order along the transition table.
func (s *Store) SetStatus(orderID string, status model.Status, reason string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := s.orderLocked(orderID)
	if err != nil {
		return model.Order{}, err
	}
	if !model.CanTransition(order.Status, status) {
		return model.Order{}, conflict(order, actionFor(status), "invalid status transition from "+order.Status.String()+" to "+status.String())
	}
	if status == model.Cancelled {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return model.Order{}, model.NewValidationError(model.ErrMissingCancellationReason)
		}
		order.CancellationReason = reason
	}
	order.Status = status
	order.UpdatedAt = s.now()
	return order.Clone(), nil
}

// SetPlacedStatus serves the restaurant route: PREPARING and
// READY_FOR_DELIVERY only.
func (s *Store) SetPlacedStatus(orderID string, status model.Status) (model.Order, error) {
	if status != model.Preparing && status != model.ReadyForDelivery {
		return model.Order{}, model.NewValidationError(errors.Errorf("status %s cannot be set on this route", status))
	}
	return s.SetStatus(orderID, status, "")
}

func (s *Store) DeleteOrder(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := s.orderLocked(orderID)
	if err != nil {
		return err
	}
	if !order.Status.Editable() {
		return conflict(order, model.ActionDiscard, "only DRAFT orders can be deleted")
	}
	delete(s.orders, orderID)
	return nil
}

func (s *Store) DeliveryForOrder(orderID string) (model.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[orderID]
	if !ok {
		return model.Delivery{}, model.ErrDeliveryNotFound
	}
	return s.withLocationLocked(*d), nil
}

func (s *Store) DriverLocation(driverID string) (model.GeoCoordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	location, ok := s.drivers[driverID]
	if !ok {
		return model.GeoCoordinate{}, ErrDriverNotFound
	}
	return location, nil
}

// MoveDriver records a new driver position, registering unknown drivers.
func (s *Store) MoveDriver(driverID string, location model.GeoCoordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[driverID] = location
}

// Assign matches the order with the driver nearest to the customer.
func (s *Store) Assign(req model.AssignmentRequest) (model.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, err := s.orderLocked(req.OrderID)
	if err != nil {
		return model.Delivery{}, err
	}
	if !order.Status.DeliveryEligible() {
		return model.Delivery{}, conflict(order, model.ActionMarkReady, "order is not ready for delivery")
	}
	if _, ok := s.deliveries[req.OrderID]; ok {
		return model.Delivery{}, ErrAlreadyAssigned
	}

	driverID, ok := s.nearestDriverLocked(req.CustomerLocation)
	if !ok {
		return model.Delivery{}, ErrNoDriverAvailable
	}
	d := &model.Delivery{
		ID:       uuid.NewString(),
		OrderID:  req.OrderID,
		DriverID: driverID,
		Status:   model.DeliveryAssigned,
	}
	s.deliveries[req.OrderID] = d
	return s.withLocationLocked(*d), nil
}

func (s *Store) DriverDeliveries(driverID string) []model.Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Delivery
	for _, d := range s.deliveries {
		if d.DriverID == driverID {
			result = append(result, s.withLocationLocked(*d))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OrderID < result[j].OrderID })
	return result
}

// UpdateDeliveryStatus records driver progress. Completing a delivery
// closes the order as DELIVERED.
func (s *Store) UpdateDeliveryStatus(deliveryID string, status model.DeliveryStatus) (model.Delivery, error) {
	switch status {
	case model.DeliveryAssigned, model.DeliveryPickedUp, model.DeliveryCompleted:
	default:
		return model.Delivery{}, model.NewValidationError(errors.Errorf("unknown delivery status %q", status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.deliveries {
		if d.ID != deliveryID {
			continue
		}
		d.Status = status
		if order, ok := s.orders[d.OrderID]; ok && status == model.DeliveryCompleted && model.CanTransition(order.Status, model.Delivered) {
			order.Status = model.Delivered
			order.UpdatedAt = s.now()
		}
		return s.withLocationLocked(*d), nil
	}
	return model.Delivery{}, model.ErrDeliveryNotFound
}

func (s *Store) Restaurant(restaurantID string) (model.RestaurantRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[restaurantID]
	if !ok {
		return model.RestaurantRef{}, model.ErrRestaurantNotFound
	}
	return r.ref, nil
}

func (s *Store) Menu(restaurantID string) ([]model.MenuItemRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[restaurantID]
	if !ok {
		return nil, model.ErrRestaurantNotFound
	}
	return append([]model.MenuItemRef(nil), r.menu...), nil
}

func (s *Store) orderLocked(orderID string) (*model.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *Store) withLocationLocked(d model.Delivery) model.Delivery {
	if location, ok := s.drivers[d.DriverID]; ok {
		d.DriverLocation = &location
	}
	return d
}

func (s *Store) nearestDriverLocked(to model.GeoCoordinate) (string, bool) {
	best := ""
	bestDistance := 0.0
	for id, at := range s.drivers {
		dLon := at.Longitude - to.Longitude
		dLat := at.Latitude - to.Latitude
		distance := dLon*dLon + dLat*dLat
		if best == "" || distance < bestDistance || (distance == bestDistance && id < best) {
			best, bestDistance = id, distance
		}
	}
	return best, best != ""
}

func conflict(order *model.Order, action model.Action, message string) *model.StateConflictError {
	return &model.StateConflictError{
		OrderID: order.ID,
		Status:  order.Status,
		Action:  action,
		Server:  true,
		Message: message,
	}
}

func actionFor(status model.Status) model.Action {
	switch status {
	case model.Confirmed:
		return model.ActionConfirm
	case model.Placed:
		return model.ActionAccept
	case model.Preparing:
		return model.ActionStartPreparing
	case model.ReadyForDelivery:
		return model.ActionMarkReady
	case model.Cancelled:
		return model.ActionCancel
	}
	return model.ActionModify
}
