package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"foodorder/pkg/common/domain"
	"foodorder/pkg/order/domain/model"
)

// DraftInput is everything the checkout form holds at submit time.
type DraftInput struct {
	CustomerID  string
	Restaurant  model.RestaurantRef
	Items       []model.MenuItemRef
	Address     model.Address
	Location    LocationFix
	UseLocation bool
}

func DraftInputFromCart(cart *Cart, address model.Address, location LocationFix, useLocation bool) DraftInput {
	restaurant, _ := cart.Restaurant()
	return DraftInput{
		Restaurant:  restaurant,
		Items:       cart.Lines(),
		Address:     address,
		Location:    location,
		UseLocation: useLocation,
	}
}

// ValidateDraft reports every problem with the input, not just the first.
func ValidateDraft(in DraftInput) error {
	var problems []error
	if in.Restaurant.IsZero() {
		problems = append(problems, model.ErrMissingRestaurant)
	}
	if len(in.Items) == 0 {
		problems = append(problems, model.ErrEmptyItems)
	}
	for _, item := range in.Items {
		if validateItem(item) != nil || item.Quantity < 1 {
			problems = append(problems, model.ErrInvalidItem)
			break
		}
	}
	if !in.Address.Complete() {
		problems = append(problems, model.ErrIncompleteAddress)
	}
	if in.UseLocation && !in.Location.Resolved() {
		problems = append(problems, model.ErrLocationUnresolved)
	}
	if len(problems) > 0 {
		return model.NewValidationError(problems...)
	}
	return nil
}

// ValidatePayload checks a built payload against the same rules as
// ValidateDraft.
func ValidatePayload(p model.DraftPayload, useLocation bool) error {
	in := DraftInput{
		CustomerID:  p.CustomerID,
		Restaurant:  model.RestaurantRef{RestaurantID: p.RestaurantID},
		Items:       p.Items,
		Address:     p.CustomerInfo,
		UseLocation: useLocation,
	}
	if !p.CustomerLocation.IsSentinel() {
		in.Location = LocationFix{State: LocationResolved, Coordinate: p.CustomerLocation}
	}
	return ValidateDraft(in)
}

// BuildDraft turns valid input into a submission payload. The total is
// always recomputed from the items.
func BuildDraft(in DraftInput) (model.DraftPayload, error) {
	if err := ValidateDraft(in); err != nil {
		return model.DraftPayload{}, err
	}

	items := append([]model.MenuItemRef(nil), in.Items...)
	payload := model.DraftPayload{
		CustomerID:   in.CustomerID,
		RestaurantID: in.Restaurant.RestaurantID,
		Items:        items,
		TotalAmount:  model.SumItems(items),
		CustomerInfo: in.Address,
		Status:       model.Draft,
	}
	if in.UseLocation {
		payload.CustomerLocation = in.Location.Coordinate
	}
	return payload, nil
}

type DraftBuilder interface {
	// Submit validates locally, then creates the order. Service errors are
	// returned as they are; there is no retry here.
	Submit(ctx context.Context, in DraftInput) (*model.Order, error)
}

func NewDraftBuilder(api model.OrderAPI, dispatcher domain.EventDispatcher, logger log.FieldLogger) DraftBuilder {
	return &draftBuilder{api: api, dispatcher: dispatcher, logger: logger}
}

type draftBuilder struct {
	api        model.OrderAPI
	dispatcher domain.EventDispatcher
	logger     log.FieldLogger
}

func (b *draftBuilder) Submit(ctx context.Context, in DraftInput) (*model.Order, error) {
	payload, err := BuildDraft(in)
	if err != nil {
		return nil, err
	}

	order, err := b.api.Create(ctx, payload)
	if err != nil {
		b.logger.WithError(err).WithField("restaurant_id", payload.RestaurantID).Error("order submission failed")
		return nil, err
	}

	b.logger.WithFields(log.Fields{
		"order_id":      order.ID,
		"restaurant_id": order.RestaurantID,
		"total":         payload.TotalAmount.StringFixed(2),
	}).Info("order submitted")

	dispatch(b.dispatcher, b.logger, model.OrderSubmitted{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		TotalAmount:  payload.TotalAmount,
	})
	return order, nil
}

func dispatch(dispatcher domain.EventDispatcher, logger log.FieldLogger, events ...domain.Event) {
	if dispatcher == nil {
		return
	}
	for _, event := range events {
		if err := dispatcher.Dispatch(event); err != nil {
			logger.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
		}
	}
}
