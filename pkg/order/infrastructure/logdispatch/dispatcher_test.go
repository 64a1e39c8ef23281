package logdispatch

import (
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder/pkg/common/domain"
	"foodorder/pkg/order/domain/model"
)

func TestDispatchLogsEvent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	dispatcher := New(logger)

	err := dispatcher.Dispatch(model.OrderStatusChanged{OrderID: "order-1", From: model.Draft, To: model.Confirmed})

	require.NoError(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, "OrderStatusChanged", entry.Data["event"])
	assert.Equal(t, "order-1", entry.Data["orderId"])
	assert.Equal(t, "CONFIRMED", entry.Data["to"])
}

type failingDispatcher struct{ calls int }

func (f *failingDispatcher) Dispatch(domain.Event) error {
	f.calls++
	return errors.New("broker down")
}

func TestMultiDispatcherTriesEveryone(t *testing.T) {
	logger, hook := test.NewNullLogger()
	failing := &failingDispatcher{}
	multi := domain.MultiDispatcher{failing, nil, New(logger)}

	err := multi.Dispatch(model.OrderDiscarded{OrderID: "order-1"})

	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, 1, failing.calls)
	assert.Len(t, hook.AllEntries(), 1)
}
