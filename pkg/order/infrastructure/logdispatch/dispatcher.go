package logdispatch

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"foodorder/pkg/common/domain"
)

var _ domain.EventDispatcher = &Dispatcher{}

// Dispatcher writes lifecycle events to the log. It is the default sink
// when no broker is configured.
type Dispatcher struct {
	logger log.FieldLogger
}

func New(logger log.FieldLogger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

func (d *Dispatcher) Dispatch(event domain.Event) error {
	fields := log.Fields{"event": event.Type()}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var values map[string]interface{}
	if err := json.Unmarshal(payload, &values); err == nil {
		for k, v := range values {
			fields[k] = v
		}
	}
	d.logger.WithFields(fields).Info("order event")
	return nil
}
