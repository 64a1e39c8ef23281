package service

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"foodorder/pkg/order/domain/model"
)

var (
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrNoPendingConflict = errors.New("no restaurant conflict to resolve")
)

type ConflictAction int

const (
	KeepCart ConflictAction = iota
	ReplaceCart
)

// RestaurantConflict is returned by AddItem when the item belongs to a
// restaurant other than the one the cart is bound to. The cart is left
// untouched until ResolveConflict is called.
type RestaurantConflict struct {
	PendingItem       model.MenuItemRef
	PendingRestaurant model.RestaurantRef
	CurrentRestaurant model.RestaurantRef
}

// Cart holds menu items from at most one restaurant.
type Cart struct {
	restaurant model.RestaurantRef
	lines      []model.MenuItemRef
	pending    *RestaurantConflict
}

func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart rebuilds a cart from persisted session state.
func RestoreCart(state model.SessionState) *Cart {
	c := &Cart{restaurant: state.Restaurant}
	for _, line := range state.Lines {
		if line.Quantity > 0 {
			c.lines = append(c.lines, line)
		}
	}
	if len(c.lines) == 0 {
		c.restaurant = model.RestaurantRef{}
	}
	return c
}

// AddItem adds one unit of item. A second restaurant never gets mixed in:
// a conflict is returned instead and must be resolved explicitly.
func (c *Cart) AddItem(item model.MenuItemRef, restaurant model.RestaurantRef) (*RestaurantConflict, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if restaurant.IsZero() {
		return nil, model.NewValidationError(model.ErrMissingRestaurant)
	}

	if !c.Empty() && c.restaurant.RestaurantID != restaurant.RestaurantID {
		item.Quantity = 1
		c.pending = &RestaurantConflict{
			PendingItem:       item,
			PendingRestaurant: restaurant,
			CurrentRestaurant: c.restaurant,
		}
		conflict := *c.pending
		return &conflict, nil
	}

	// An add that fits the cart answers any open conflict with "keep".
	c.pending = nil
	c.restaurant = restaurant
	for i := range c.lines {
		if c.lines[i].ItemID == item.ItemID {
			c.lines[i].Quantity++
			return nil, nil
		}
	}
	item.Quantity = 1
	c.lines = append(c.lines, item)
	return nil, nil
}

func (c *Cart) PendingConflict() (RestaurantConflict, bool) {
	if c.pending == nil {
		return RestaurantConflict{}, false
	}
	return *c.pending, true
}

func (c *Cart) ResolveConflict(action ConflictAction) error {
	if c.pending == nil {
		return ErrNoPendingConflict
	}
	pending := c.pending
	c.pending = nil

	if action == ReplaceCart {
		c.restaurant = pending.PendingRestaurant
		c.lines = []model.MenuItemRef{pending.PendingItem}
	}
	return nil
}

// UpdateQuantity changes a line by delta. A line that reaches zero or less is
// removed, and an emptied cart releases its restaurant.
func (c *Cart) UpdateQuantity(itemID string, delta int) error {
	for i := range c.lines {
		if c.lines[i].ItemID != itemID {
			continue
		}
		quantity := c.lines[i].Quantity + delta
		if quantity <= 0 {
			c.removeAt(i)
			return nil
		}
		c.lines[i].Quantity = quantity
		return nil
	}
	return errors.Wrap(ErrCartItemNotFound, itemID)
}

func (c *Cart) Remove(itemID string) error {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.removeAt(i)
			return nil
		}
	}
	return errors.Wrap(ErrCartItemNotFound, itemID)
}

func (c *Cart) Clear() {
	c.lines = nil
	c.restaurant = model.RestaurantRef{}
	c.pending = nil
}

func (c *Cart) Total() decimal.Decimal {
	return model.SumItems(c.lines)
}

func (c *Cart) Lines() []model.MenuItemRef {
	return append([]model.MenuItemRef(nil), c.lines...)
}

func (c *Cart) Restaurant() (model.RestaurantRef, bool) {
	return c.restaurant, !c.restaurant.IsZero()
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if len(c.lines) == 0 {
		c.restaurant = model.RestaurantRef{}
	}
}

func validateItem(item model.MenuItemRef) error {
	if strings.TrimSpace(item.ItemID) == "" || item.UnitPrice.IsNegative() {
		return model.NewValidationError(model.ErrInvalidItem)
	}
	return nil
}
