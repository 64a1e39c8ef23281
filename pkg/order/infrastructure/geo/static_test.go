package geo

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder/pkg/order/domain/model"
)

func TestParseLatLng(t *testing.T) {
	c, err := ParseLatLng("6.9271, 79.8612")
	require.NoError(t, err)
	assert.Equal(t, model.GeoCoordinate{Longitude: 79.8612, Latitude: 6.9271}, c)

	for _, bad := range []string{"", "6.9", "a,b", "95,10", "10,190"} {
		_, err := ParseLatLng(bad)
		assert.Error(t, err, bad)
	}
}

func TestProviders(t *testing.T) {
	position := model.GeoCoordinate{Longitude: 79.8612, Latitude: 6.9271}
	got, err := Static{Position: position}.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, position, got)

	_, err = Denied{}.CurrentPosition(context.Background())
	var locErr *model.LocationError
	require.True(t, errors.As(err, &locErr))
	assert.Equal(t, model.PermissionDenied, locErr.Reason)
}
