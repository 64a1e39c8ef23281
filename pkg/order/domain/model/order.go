package model

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderItemNotFound  = errors.New("order item not found")
	ErrDeliveryNotFound   = errors.New("delivery record not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
)

type MenuItemRef struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (i MenuItemRef) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type RestaurantRef struct {
	RestaurantID string
	DisplayName  string
}

func (r RestaurantRef) IsZero() bool {
	return r.RestaurantID == ""
}

type Address struct {
	Street        string
	City          string
	ContactNumber string
}

// Complete reports whether every field carries a non-blank value.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.ContactNumber) != ""
}

// GeoCoordinate is stored longitude first, the way the services exchange it.
// The zero value (0,0) means "no location".
type GeoCoordinate struct {
	Longitude float64
	Latitude  float64
}

func (c GeoCoordinate) IsSentinel() bool {
	return c.Longitude == 0 && c.Latitude == 0
}

type PaymentStatus string

type Order struct {
	ID                 string
	RestaurantID       string
	RestaurantName     string
	CustomerID         string
	Items              []MenuItemRef
	TotalAmount        decimal.Decimal
	CustomerInfo       Address
	CustomerLocation   GeoCoordinate
	Status             Status
	CancellationReason string
	PaymentStatus      PaymentStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Clone returns a copy that shares no item storage with o.
func (o Order) Clone() Order {
	clone := o
	clone.Items = append([]MenuItemRef(nil), o.Items...)
	return clone
}

func (o *Order) RecalculateTotal() {
	o.TotalAmount = SumItems(o.Items)
}

func SumItems(items []MenuItemRef) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// DraftPayload is what gets sent to the order service on submission.
type DraftPayload struct {
	CustomerID       string
	RestaurantID     string
	Items            []MenuItemRef
	TotalAmount      decimal.Decimal
	CustomerInfo     Address
	CustomerLocation GeoCoordinate
	Status           Status
}

// OrderUpdate carries the fields touched by a modification. Nil fields are left alone.
type OrderUpdate struct {
	Items        []MenuItemRef
	TotalAmount  *decimal.Decimal
	CustomerInfo *Address
}
