package sessionfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder/pkg/order/domain/model"
)

func TestSessionsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	empty, err := New(path).Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "default", empty.ID)
	assert.Empty(t, empty.Lines)

	state := model.SessionState{
		ID:              "default",
		Restaurant:      model.RestaurantRef{RestaurantID: "rest-pizza", DisplayName: "Pizza Place"},
		Lines:           []model.MenuItemRef{{ItemID: "cola", Name: "Cola", UnitPrice: decimal.RequireFromString("4.99"), Quantity: 2}},
		UseLocation:     true,
		TrackedOrderIDs: []string{"order-1"},
	}
	require.NoError(t, New(path).Save(ctx, state))
	require.NoError(t, New(path).Save(ctx, model.SessionState{ID: "other"}))

	loaded, err := New(path).Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, state.Restaurant, loaded.Restaurant)
	assert.True(t, loaded.UseLocation)
	assert.Equal(t, []string{"order-1"}, loaded.TrackedOrderIDs)
	require.Len(t, loaded.Lines, 1)
	assert.True(t, decimal.RequireFromString("4.99").Equal(loaded.Lines[0].UnitPrice))
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := New(path).Load(context.Background(), "default")

	assert.Error(t, err)
}
