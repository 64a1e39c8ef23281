package transport

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"foodorder/pkg/order/domain/model"
)

// Envelope is the body shape of every service response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ItemDTO struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type AddressDTO struct {
	Street        string `json:"street"`
	City          string `json:"city"`
	ContactNumber string `json:"contactNumber"`
}

// PointDTO is a GeoJSON point, coordinates in [lon, lat] order.
type PointDTO struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type OrderDTO struct {
	ID                 string       `json:"_id"`
	CustomerID         string       `json:"customerId"`
	RestaurantID       string       `json:"restaurantId"`
	RestaurantName     string       `json:"restaurantName,omitempty"`
	Items              []ItemDTO    `json:"items"`
	TotalAmount        float64      `json:"totalAmount"`
	CustomerInfo       AddressDTO   `json:"customerInfo"`
	CustomerLocation   PointDTO     `json:"customerLocation"`
	Status             model.Status `json:"status"`
	CancellationReason string       `json:"cancellationReason,omitempty"`
	PaymentStatus      string       `json:"paymentStatus,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// UpdateDTO is the PUT /orders/{id} body; absent fields are left alone.
type UpdateDTO struct {
	Items        []ItemDTO   `json:"items,omitempty"`
	TotalAmount  *float64    `json:"totalAmount,omitempty"`
	CustomerInfo *AddressDTO `json:"customerInfo,omitempty"`
}

type StatusDTO struct {
	Status             model.Status `json:"status"`
	CancellationReason string       `json:"cancellationReason,omitempty"`
}

type DeliveryDTO struct {
	ID             string               `json:"_id"`
	OrderID        string               `json:"orderId"`
	DriverID       string               `json:"driverId,omitempty"`
	Status         model.DeliveryStatus `json:"status"`
	DriverLocation *PointDTO            `json:"driverLocation,omitempty"`
}

type AssignDTO struct {
	OrderID          string     `json:"orderId"`
	RestaurantID     string     `json:"restaurantId"`
	CustomerLocation [2]float64 `json:"customerLocation"`
}

type DeliveryStatusDTO struct {
	Status model.DeliveryStatus `json:"status"`
}

type LocationDTO struct {
	DriverID string   `json:"driverId"`
	Location PointDTO `json:"location"`
}

type RestaurantDTO struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type MenuItemDTO struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func ItemsToDTO(items []model.MenuItemRef) []ItemDTO {
	dtos := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, ItemDTO{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    item.UnitPrice.InexactFloat64(),
			Quantity: item.Quantity,
		})
	}
	return dtos
}

func ItemsFromDTO(dtos []ItemDTO) []model.MenuItemRef {
	items := make([]model.MenuItemRef, 0, len(dtos))
	for _, dto := range dtos {
		items = append(items, model.MenuItemRef{
			ItemID:    dto.ItemID,
			Name:      dto.Name,
			UnitPrice: decimal.NewFromFloat(dto.Price),
			Quantity:  dto.Quantity,
		})
	}
	return items
}

func AddressToDTO(a model.Address) AddressDTO {
	return AddressDTO{Street: a.Street, City: a.City, ContactNumber: a.ContactNumber}
}

func (a AddressDTO) Model() model.Address {
	return model.Address{Street: a.Street, City: a.City, ContactNumber: a.ContactNumber}
}

func PointToDTO(c model.GeoCoordinate) PointDTO {
	return PointDTO{Type: "Point", Coordinates: [2]float64{c.Longitude, c.Latitude}}
}

func (p PointDTO) Model() model.GeoCoordinate {
	return model.GeoCoordinate{Longitude: p.Coordinates[0], Latitude: p.Coordinates[1]}
}

func OrderToDTO(o model.Order) OrderDTO {
	return OrderDTO{
		ID:                 o.ID,
		CustomerID:         o.CustomerID,
		RestaurantID:       o.RestaurantID,
		RestaurantName:     o.RestaurantName,
		Items:              ItemsToDTO(o.Items),
		TotalAmount:        o.TotalAmount.InexactFloat64(),
		CustomerInfo:       AddressToDTO(o.CustomerInfo),
		CustomerLocation:   PointToDTO(o.CustomerLocation),
		Status:             o.Status,
		CancellationReason: o.CancellationReason,
		PaymentStatus:      string(o.PaymentStatus),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func (d OrderDTO) Model() model.Order {
	return model.Order{
		ID:                 d.ID,
		RestaurantID:       d.RestaurantID,
		RestaurantName:     d.RestaurantName,
		CustomerID:         d.CustomerID,
		Items:              ItemsFromDTO(d.Items),
		TotalAmount:        decimal.NewFromFloat(d.TotalAmount),
		CustomerInfo:       d.CustomerInfo.Model(),
		CustomerLocation:   d.CustomerLocation.Model(),
		Status:             d.Status,
		CancellationReason: d.CancellationReason,
		PaymentStatus:      model.PaymentStatus(d.PaymentStatus),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func DraftToDTO(p model.DraftPayload) OrderDTO {
	return OrderDTO{
		CustomerID:       p.CustomerID,
		RestaurantID:     p.RestaurantID,
		Items:            ItemsToDTO(p.Items),
		TotalAmount:      p.TotalAmount.InexactFloat64(),
		CustomerInfo:     AddressToDTO(p.CustomerInfo),
		CustomerLocation: PointToDTO(p.CustomerLocation),
		Status:           p.Status,
	}
}

func (d OrderDTO) Draft() model.DraftPayload {
	return model.DraftPayload{
		CustomerID:       d.CustomerID,
		RestaurantID:     d.RestaurantID,
		Items:            ItemsFromDTO(d.Items),
		TotalAmount:      decimal.NewFromFloat(d.TotalAmount),
		CustomerInfo:     d.CustomerInfo.Model(),
		CustomerLocation: d.CustomerLocation.Model(),
		Status:           d.Status,
	}
}

func UpdateToDTO(u model.OrderUpdate) UpdateDTO {
	var dto UpdateDTO
	if u.Items != nil {
		dto.Items = ItemsToDTO(u.Items)
	}
	if u.TotalAmount != nil {
		total := u.TotalAmount.InexactFloat64()
		dto.TotalAmount = &total
	}
	if u.CustomerInfo != nil {
		info := AddressToDTO(*u.CustomerInfo)
		dto.CustomerInfo = &info
	}
	return dto
}

func DeliveryToDTO(d model.Delivery) DeliveryDTO {
	dto := DeliveryDTO{ID: d.ID, OrderID: d.OrderID, DriverID: d.DriverID, Status: d.Status}
	if d.DriverLocation != nil {
		point := PointToDTO(*d.DriverLocation)
		dto.DriverLocation = &point
	}
	return dto
}

func (d DeliveryDTO) Model() model.Delivery {
	delivery := model.Delivery{ID: d.ID, OrderID: d.OrderID, DriverID: d.DriverID, Status: d.Status}
	if d.DriverLocation != nil {
		location := d.DriverLocation.Model()
		delivery.DriverLocation = &location
	}
	return delivery
}
