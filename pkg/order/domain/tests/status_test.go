package tests

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder/pkg/order/domain/model"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[model.Status][]model.Status{
		model.Draft:            {model.Confirmed, model.Cancelled},
		model.Confirmed:        {model.Placed, model.Cancelled},
		model.Placed:           {model.Preparing},
		model.Preparing:        {model.ReadyForDelivery},
		model.ReadyForDelivery: {model.Delivered},
	}
	all := []model.Status{model.Draft, model.Confirmed, model.Placed, model.Preparing, model.ReadyForDelivery, model.Delivered, model.Cancelled}

	for _, from := range all {
		for _, to := range all {
			expected := false
			for _, next := range allowed[from] {
				expected = expected || next == to
			}
			assert.Equal(t, expected, model.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStatusPermits(t *testing.T) {
	assert.True(t, model.Draft.Permits(model.ActionModify))
	assert.True(t, model.Draft.Permits(model.ActionDiscard))
	assert.True(t, model.Draft.Permits(model.ActionCancel))
	assert.False(t, model.Draft.Permits(model.ActionAccept))

	assert.False(t, model.Confirmed.Permits(model.ActionModify))
	assert.False(t, model.Confirmed.Permits(model.ActionUpdateAddress))
	assert.True(t, model.Confirmed.Permits(model.ActionAccept))
	assert.True(t, model.Confirmed.Permits(model.ActionCancel))

	assert.False(t, model.Placed.Permits(model.ActionCancel))
	assert.False(t, model.ReadyForDelivery.Permits(model.ActionMarkReady))

	for _, action := range []model.Action{model.ActionModify, model.ActionConfirm, model.ActionCancel, model.ActionDiscard} {
		assert.False(t, model.Cancelled.Permits(action))
		assert.False(t, model.Delivered.Permits(action))
	}
}

func TestStatusWireNames(t *testing.T) {
	var payload struct {
		Status model.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"READY_FOR_DELIVERY"}`), &payload))
	assert.Equal(t, model.ReadyForDelivery, payload.Status)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"READY_FOR_DELIVERY"}`, string(data))

	err = json.Unmarshal([]byte(`{"status":"ON_THE_WAY"}`), &payload)
	assert.Error(t, err)

	_, err = model.ParseStatus("pending")
	assert.ErrorIs(t, err, model.ErrUnknownStatus)
}

func TestActionNames(t *testing.T) {
	for _, name := range []string{"modify", "update_address", "confirm", "accept", "start_prep", "ready", "cancel", "discard"} {
		action, err := model.ParseAction(name)
		require.NoError(t, err)
		assert.Equal(t, name, action.String())
	}
	_, err := model.ParseAction("deliver")
	assert.Error(t, err)
}

func TestStateConflictError(t *testing.T) {
	open := &model.StateConflictError{OrderID: "order-1", Status: model.Placed, Action: model.ActionModify}
	closed := &model.StateConflictError{OrderID: "order-1", Status: model.Delivered, Action: model.ActionCancel}

	assert.ErrorIs(t, open, model.ErrStateConflict)
	assert.NotErrorIs(t, open, model.ErrOrderClosed)
	assert.ErrorIs(t, closed, model.ErrStateConflict)
	assert.ErrorIs(t, closed, model.ErrOrderClosed)
	assert.NotEmpty(t, open.Error())
}
