package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMissingRestaurant         = errors.New("no restaurant selected")
	ErrEmptyItems                = errors.New("at least one item is required")
	ErrIncompleteAddress         = errors.New("street, city and contact number are required")
	ErrLocationUnresolved        = errors.New("current location could not be determined")
	ErrMissingCancellationReason = errors.New("a cancellation reason is required")
	ErrInvalidItem               = errors.New("item must have an id, a non-negative price and a positive quantity")

	ErrStateConflict    = errors.New("order status does not permit this change")
	ErrOrderClosed      = errors.New("order is closed")
	ErrMutationInFlight = errors.New("another change to this order is still in progress")
	ErrNoOrderLoaded    = errors.New("no order loaded")
)

// ValidationError reports every local validation problem at once. Nothing
// was sent over the network when one is returned.
type ValidationError struct {
	Problems []error
}

func NewValidationError(problems ...error) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		messages = append(messages, p.Error())
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

const genericTransportMessage = "the service could not complete the request"

// TransportError is a network or server failure. Message is the text the
// server sent back, if any.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = genericTransportMessage
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage is what a caller should show: the server text or the fallback.
func (e *TransportError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return genericTransportMessage
}

// StateConflictError is returned when an order's status no longer permits
// an action, either detected locally or rejected by the order service.
type StateConflictError struct {
	OrderID string
	Status  Status
	Action  Action
	Server  bool
	Message string
}

func (e *StateConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("order %s: %s", e.OrderID, e.Message)
	}
	if e.Status.Terminal() {
		return fmt.Sprintf("order %s is closed (%s): %s not allowed", e.OrderID, e.Status, e.Action)
	}
	return fmt.Sprintf("order %s in status %s does not allow %s", e.OrderID, e.Status, e.Action)
}

func (e *StateConflictError) Is(target error) bool {
	switch target {
	case ErrStateConflict:
		return true
	case ErrOrderClosed:
		return e.Status.Terminal()
	}
	return false
}
