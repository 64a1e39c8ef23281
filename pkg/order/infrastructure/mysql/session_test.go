package mysql

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder/pkg/order/domain/model"
)

// Runs against a real server: FOODORDER_TEST_DATABASE_DSN=user:pass@tcp(localhost:3306)/foodorder
func setup(t *testing.T) *SessionStore {
	t.Helper()
	dsn := os.Getenv("FOODORDER_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("FOODORDER_TEST_DATABASE_DSN is not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger, _ := test.NewNullLogger()
	require.NoError(t, Migrate(db, logger))
	return NewSessionStore(db)
}

func TestLoadUnknownSession(t *testing.T) {
	store := setup(t)
	id := uuid.NewString()

	state, err := store.Load(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, state.ID)
	assert.Empty(t, state.Lines)
	assert.Empty(t, state.TrackedOrderIDs)
}

func TestSaveAndLoadSession(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	id := uuid.NewString()

	state := model.SessionState{
		ID:         id,
		Restaurant: model.RestaurantRef{RestaurantID: "rest-pizza", DisplayName: "Pizza Place"},
		Lines: []model.MenuItemRef{
			{ItemID: "margherita", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.99"), Quantity: 2},
			{ItemID: "cola", Name: "Cola", UnitPrice: decimal.RequireFromString("4.99"), Quantity: 1},
		},
		Address:         model.Address{Street: "12 Galle Rd", City: "Colombo", ContactNumber: "0771234567"},
		UseLocation:     true,
		TrackedOrderIDs: []string{"order-1", "order-2"},
	}
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, state.Restaurant, loaded.Restaurant)
	assert.Equal(t, state.Address, loaded.Address)
	assert.True(t, loaded.UseLocation)
	assert.Equal(t, state.TrackedOrderIDs, loaded.TrackedOrderIDs)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, "margherita", loaded.Lines[0].ItemID)
	assert.True(t, decimal.RequireFromString("12.99").Equal(loaded.Lines[0].UnitPrice))

	state.Lines = state.Lines[1:]
	state.TrackedOrderIDs = nil
	require.NoError(t, store.Save(ctx, state))

	loaded, err = store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "cola", loaded.Lines[0].ItemID)
	assert.Empty(t, loaded.TrackedOrderIDs)
}
