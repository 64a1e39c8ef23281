package model

import "github.com/shopspring/decimal"

type OrderSubmitted struct {
	OrderID      string          `json:"orderId"`
	RestaurantID string          `json:"restaurantId"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

func (e OrderSubmitted) Type() string { return "OrderSubmitted" }

type OrderItemsChanged struct {
	OrderID     string          `json:"orderId"`
	ItemCount   int             `json:"itemCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (e OrderItemsChanged) Type() string { return "OrderItemsChanged" }

type OrderAddressChanged struct {
	OrderID string `json:"orderId"`
}

func (e OrderAddressChanged) Type() string { return "OrderAddressChanged" }

type OrderStatusChanged struct {
	OrderID string `json:"orderId"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

func (e OrderStatusChanged) Type() string { return "OrderStatusChanged" }

type OrderCancelled struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

func (e OrderCancelled) Type() string { return "OrderCancelled" }

type OrderDiscarded struct {
	OrderID string `json:"orderId"`
}

func (e OrderDiscarded) Type() string { return "OrderDiscarded" }

// OptimisticUpdateRolledBack is raised whenever a locally applied change
// had to be undone.
type OptimisticUpdateRolledBack struct {
	OrderID string `json:"orderId"`
	Action  Action `json:"action"`
	Reason  string `json:"reason"`
}

func (e OptimisticUpdateRolledBack) Type() string { return "OptimisticUpdateRolledBack" }

type DriverAssignmentRequested struct {
	OrderID      string `json:"orderId"`
	RestaurantID string `json:"restaurantId"`
}

func (e DriverAssignmentRequested) Type() string { return "DriverAssignmentRequested" }
