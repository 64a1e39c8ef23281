package domain

import "github.com/pkg/errors"

// MultiDispatcher hands every event to each dispatcher in turn. All of them
// are tried; the first failure is returned.
type MultiDispatcher []EventDispatcher

func (m MultiDispatcher) Dispatch(event Event) error {
	var first error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.Dispatch(event); err != nil && first == nil {
			first = errors.Wrapf(err, "dispatch %s", event.Type())
		}
	}
	return first
}
