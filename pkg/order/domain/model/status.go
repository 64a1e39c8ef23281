package model

import (
	"github.com/pkg/errors"
)

var ErrUnknownStatus = errors.New("unknown order status")

type Status int

const (
	Draft Status = iota
	Confirmed
	Placed
	Preparing
	ReadyForDelivery
	Delivered
	Cancelled
)

var statusNames = map[Status]string{
	Draft:            "DRAFT",
	Confirmed:        "CONFIRMED",
	Placed:           "PLACED",
	Preparing:        "PREPARING",
	ReadyForDelivery: "READY_FOR_DELIVERY",
	Delivered:        "DELIVERED",
	Cancelled:        "CANCELLED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func ParseStatus(name string) (Status, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownStatus, "%q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, errors.Wrapf(ErrUnknownStatus, "%d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Terminal statuses accept no further mutation.
func (s Status) Terminal() bool {
	return s == Cancelled || s == Delivered
}

func (s Status) DeliveryEligible() bool {
	return s == ReadyForDelivery
}

// Editable reports whether items and address may still change.
func (s Status) Editable() bool {
	return s == Draft
}

// transitions is the only source of truth for status changes. Delivered is
// reached by the delivery side and is never issued from this module.
var transitions = map[Status][]Status{
	Draft:            {Confirmed, Cancelled},
	Confirmed:        {Placed, Cancelled},
	Placed:           {Preparing},
	Preparing:        {ReadyForDelivery},
	ReadyForDelivery: {Delivered},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Action int

const (
	ActionModify Action = iota
	ActionUpdateAddress
	ActionConfirm
	ActionAccept
	ActionStartPreparing
	ActionMarkReady
	ActionCancel
	ActionDiscard
)

var actionNames = map[Action]string{
	ActionModify:         "modify",
	ActionUpdateAddress:  "update_address",
	ActionConfirm:        "confirm",
	ActionAccept:         "accept",
	ActionStartPreparing: "start_prep",
	ActionMarkReady:      "ready",
	ActionCancel:         "cancel",
	ActionDiscard:        "discard",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func ParseAction(name string) (Action, error) {
	for action, n := range actionNames {
		if n == name {
			return action, nil
		}
	}
	return 0, errors.Errorf("unknown action %q", name)
}

// Target returns the status an action moves an order into. Edits keep the
// current status and report ok=false.
func (a Action) Target() (Status, bool) {
	switch a {
	case ActionConfirm:
		return Confirmed, true
	case ActionAccept:
		return Placed, true
	case ActionStartPreparing:
		return Preparing, true
	case ActionMarkReady:
		return ReadyForDelivery, true
	case ActionCancel:
		return Cancelled, true
	default:
		return 0, false
	}
}

// Permits reports whether an order in status s accepts action a.
func (s Status) Permits(a Action) bool {
	switch a {
	case ActionModify, ActionUpdateAddress, ActionDiscard:
		return s.Editable()
	}
	target, ok := a.Target()
	return ok && CanTransition(s, target)
}
