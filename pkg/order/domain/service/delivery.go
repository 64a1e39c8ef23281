package service

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"foodorder/pkg/common/domain"
	"foodorder/pkg/order/domain/model"
)

var ErrNotDeliveryEligible = errors.New("order is not ready for delivery")

// LatLng is a map position, latitude first.
type LatLng struct {
	Lat float64
	Lng float64
}

// ToMapPoint is the one place where service coordinates ([lon, lat]) are
// turned into map coordinates ([lat, lon]).
func ToMapPoint(c model.GeoCoordinate) LatLng {
	return LatLng{Lat: c.Latitude, Lng: c.Longitude}
}

type Marker int

const (
	CustomerMarker Marker = iota
	DriverMarker
)

// MapRenderer draws markers. It only ever receives latitude-first points.
type MapRenderer interface {
	SetMarker(marker Marker, at LatLng)
	ClearMarker(marker Marker)
}

type TrackingState int

const (
	TrackingInactive TrackingState = iota
	AwaitingAssignment
	AwaitingDriverLocation
	TrackingDriver
)

func (s TrackingState) String() string {
	switch s {
	case AwaitingAssignment:
		return "awaiting assignment"
	case AwaitingDriverLocation:
		return "waiting for driver location"
	case TrackingDriver:
		return "tracking driver"
	}
	return "inactive"
}

// TrackingView is what the order page shows about delivery. LocationErr is
// informational: a failed location fetch never fails the view.
type TrackingView struct {
	State       TrackingState
	Delivery    *model.Delivery
	Customer    *LatLng
	Driver      *LatLng
	LocationErr error
}

// DeliveryCoordinator reads delivery progress for orders that reached
// READY_FOR_DELIVERY. It defines single fetches only; polling is up to the
// caller.
type DeliveryCoordinator interface {
	// FetchDeliveryRecord returns (nil, nil) when no driver has been assigned.
	FetchDeliveryRecord(ctx context.Context, orderID string) (*model.Delivery, error)
	FetchDriverLocation(ctx context.Context, driverID string) (LatLng, error)
	// Refresh performs one tracking round for order. Only a failure to read
	// the delivery record is returned as an error.
	Refresh(ctx context.Context, order model.Order) (TrackingView, error)
	// RequestAssignment asks the delivery service to match a driver.
	RequestAssignment(ctx context.Context, order model.Order) (*model.Delivery, error)
}

func NewDeliveryCoordinator(api model.DeliveryAPI, renderer MapRenderer, dispatcher domain.EventDispatcher, logger log.FieldLogger) DeliveryCoordinator {
	return &deliveryCoordinator{api: api, renderer: renderer, dispatcher: dispatcher, logger: logger}
}

type deliveryCoordinator struct {
	api        model.DeliveryAPI
	renderer   MapRenderer
	dispatcher domain.EventDispatcher
	logger     log.FieldLogger
}

func (d *deliveryCoordinator) FetchDeliveryRecord(ctx context.Context, orderID string) (*model.Delivery, error) {
	delivery, err := d.api.GetDeliveryForOrder(ctx, orderID)
	if errors.Is(err, model.ErrDeliveryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

func (d *deliveryCoordinator) FetchDriverLocation(ctx context.Context, driverID string) (LatLng, error) {
	coordinate, err := d.api.GetDriverLocation(ctx, driverID)
	if err != nil {
		return LatLng{}, err
	}
	if coordinate.IsSentinel() {
		return LatLng{}, errors.Errorf("driver %s has not reported a location", driverID)
	}
	return ToMapPoint(coordinate), nil
}

func (d *deliveryCoordinator) Refresh(ctx context.Context, order model.Order) (TrackingView, error) {
	if !order.Status.DeliveryEligible() {
		return TrackingView{State: TrackingInactive}, nil
	}

	view := TrackingView{State: AwaitingAssignment}
	if !order.CustomerLocation.IsSentinel() {
		customer := ToMapPoint(order.CustomerLocation)
		view.Customer = &customer
		d.plot(CustomerMarker, &customer)
	}

	delivery, err := d.FetchDeliveryRecord(ctx, order.ID)
	if err != nil {
		d.logger.WithError(err).WithField("order_id", order.ID).Error("failed to fetch delivery record")
		return view, err
	}
	if delivery == nil || !delivery.HasDriver() {
		view.Delivery = delivery
		d.plot(DriverMarker, nil)
		return view, nil
	}
	view.Delivery = delivery

	driver, err := d.FetchDriverLocation(ctx, delivery.DriverID)
	if err != nil {
		d.logger.WithError(err).WithField("driver_id", delivery.DriverID).Warn("driver location unavailable")
		view.State = AwaitingDriverLocation
		view.LocationErr = err
		return view, nil
	}
	view.State = TrackingDriver
	view.Driver = &driver
	d.plot(DriverMarker, &driver)
	return view, nil
}

func (d *deliveryCoordinator) RequestAssignment(ctx context.Context, order model.Order) (*model.Delivery, error) {
	if !order.Status.DeliveryEligible() {
		return nil, errors.Wrapf(ErrNotDeliveryEligible, "order %s is %s", order.ID, order.Status)
	}
	delivery, err := d.api.Assign(ctx, model.AssignmentRequest{
		OrderID:          order.ID,
		RestaurantID:     order.RestaurantID,
		CustomerLocation: order.CustomerLocation,
	})
	if err != nil {
		d.logger.WithError(err).WithField("order_id", order.ID).Error("driver assignment failed")
		return nil, err
	}
	d.logger.WithFields(log.Fields{"order_id": order.ID, "driver_id": delivery.DriverID}).Info("driver assignment requested")
	dispatch(d.dispatcher, d.logger, model.DriverAssignmentRequested{OrderID: order.ID, RestaurantID: order.RestaurantID})
	return delivery, nil
}

func (d *deliveryCoordinator) plot(marker Marker, at *LatLng) {
	if d.renderer == nil {
		return
	}
	if at == nil {
		d.renderer.ClearMarker(marker)
		return
	}
	d.renderer.SetMarker(marker, *at)
}
