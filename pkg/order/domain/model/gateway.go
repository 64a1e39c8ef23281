package model

import "context"

// OrderAPI is the order service. It is the single writer of record; every
// call returns its view of the order.
type OrderAPI interface {
	Create(ctx context.Context, draft DraftPayload) (*Order, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	Update(ctx context.Context, orderID string, update OrderUpdate) (*Order, error)
	Confirm(ctx context.Context, orderID string) (*Order, error)
	SetStatus(ctx context.Context, orderID string, status Status, cancellationReason string) (*Order, error)
	ListForCurrentUser(ctx context.Context) ([]Order, error)
	ListReadyForDelivery(ctx context.Context) ([]Order, error)
	// ListConfirmedForRestaurant returns the orders a restaurant has yet to accept.
	ListConfirmedForRestaurant(ctx context.Context, restaurantID string) ([]Order, error)
	Delete(ctx context.Context, orderID string) error
}

// DeliveryAPI returns ErrDeliveryNotFound from GetDeliveryForOrder when no
// driver has been assigned yet.
type DeliveryAPI interface {
	GetDeliveryForOrder(ctx context.Context, orderID string) (*Delivery, error)
	GetDriverLocation(ctx context.Context, driverID string) (GeoCoordinate, error)
	Assign(ctx context.Context, req AssignmentRequest) (*Delivery, error)
	ListForDriver(ctx context.Context, driverID string) ([]Delivery, error)
	UpdateStatus(ctx context.Context, deliveryID string, status DeliveryStatus) (*Delivery, error)
}

type MenuAPI interface {
	Restaurant(ctx context.Context, restaurantID string) (*RestaurantRef, error)
	MenuItems(ctx context.Context, restaurantID string) ([]MenuItemRef, error)
}

// LocationProvider answers a single "get current position" request.
// Failures should be *LocationError so the reason survives.
type LocationProvider interface {
	CurrentPosition(ctx context.Context) (GeoCoordinate, error)
}

type LocationFailure int

const (
	PermissionDenied LocationFailure = iota + 1
	PositionUnavailable
	LocationTimeout
	LocationUnsupported
)

func (f LocationFailure) String() string {
	switch f {
	case PermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case LocationTimeout:
		return "timed out"
	case LocationUnsupported:
		return "geolocation unsupported"
	}
	return "unknown"
}

type LocationError struct {
	Reason LocationFailure
}

func (e *LocationError) Error() string {
	return "location: " + e.Reason.String()
}
