package service

import (
	"context"
	"time"

	"foodorder/pkg/order/domain/model"
)

// Session is the customer state owned by the application shell and handed
// to the components that need it.
type Session struct {
	ID          string
	CustomerID  string
	Cart        *Cart
	Address     model.Address
	Location    *Geolocator
	useLocation bool
	tracked     []string
}

func NewSession(state model.SessionState, customerID string, location *Geolocator) *Session {
	return &Session{
		ID:          state.ID,
		CustomerID:  customerID,
		Cart:        RestoreCart(state),
		Address:     state.Address,
		Location:    location,
		useLocation: state.UseLocation,
		tracked:     append([]string(nil), state.TrackedOrderIDs...),
	}
}

// SetUseLocation toggles "use my location". Turning it off drops any
// request still in flight.
func (s *Session) SetUseLocation(ctx context.Context, use bool) {
	s.useLocation = use
	if s.Location == nil {
		return
	}
	if use {
		s.Location.Enable(ctx)
	} else {
		s.Location.Disable()
	}
}

func (s *Session) UseLocation() bool {
	return s.useLocation
}

func (s *Session) DraftInput() DraftInput {
	fix := LocationFix{}
	if s.Location != nil {
		fix = s.Location.Fix()
	}
	in := DraftInputFromCart(s.Cart, s.Address, fix, s.useLocation)
	in.CustomerID = s.CustomerID
	return in
}

// Checkout submits the cart. On success the cart is emptied and the new
// order is tracked; on failure the session is left as it was.
func (s *Session) Checkout(ctx context.Context, builder DraftBuilder) (*model.Order, error) {
	order, err := builder.Submit(ctx, s.DraftInput())
	if err != nil {
		return nil, err
	}
	s.Cart.Clear()
	s.Track(order.ID)
	return order, nil
}

func (s *Session) Track(orderID string) {
	for _, id := range s.tracked {
		if id == orderID {
			return
		}
	}
	s.tracked = append(s.tracked, orderID)
}

func (s *Session) Untrack(orderID string) {
	for i, id := range s.tracked {
		if id == orderID {
			s.tracked = append(s.tracked[:i], s.tracked[i+1:]...)
			return
		}
	}
}

func (s *Session) TrackedOrders() []string {
	return append([]string(nil), s.tracked...)
}

func (s *Session) State() model.SessionState {
	restaurant, _ := s.Cart.Restaurant()
	return model.SessionState{
		ID:              s.ID,
		Restaurant:      restaurant,
		Lines:           s.Cart.Lines(),
		Address:         s.Address,
		UseLocation:     s.useLocation,
		TrackedOrderIDs: s.TrackedOrders(),
		UpdatedAt:       time.Now().UTC(),
	}
}
