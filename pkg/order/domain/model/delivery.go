package model

type DeliveryStatus string

const (
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryCompleted DeliveryStatus = "COMPLETED"
)

// Delivery is owned by the delivery service; this module only reads it.
type Delivery struct {
	ID             string
	OrderID        string
	DriverID       string
	Status         DeliveryStatus
	DriverLocation *GeoCoordinate
}

func (d Delivery) HasDriver() bool {
	return d.DriverID != ""
}

type AssignmentRequest struct {
	OrderID          string
	RestaurantID     string
	CustomerLocation GeoCoordinate
}
