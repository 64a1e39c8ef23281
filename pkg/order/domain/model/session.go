package model

import (
	"context"
	"time"
)

// SessionState is the persisted part of a customer session. A pending
// restaurant conflict is not persisted.
type SessionState struct {
	ID              string
	Restaurant      RestaurantRef
	Lines           []MenuItemRef
	Address         Address
	UseLocation     bool
	TrackedOrderIDs []string
	UpdatedAt       time.Time
}

// SessionStore.Load returns an empty state carrying sessionID when nothing
// has been saved yet.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, state SessionState) error
}
