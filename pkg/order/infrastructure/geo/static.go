package geo

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"foodorder/pkg/order/domain/model"
)

var _ model.LocationProvider = Static{}

// Static is a device without a positioning sensor: the position is whatever
// the user typed in.
type Static struct {
	Position model.GeoCoordinate
}

func (s Static) CurrentPosition(ctx context.Context) (model.GeoCoordinate, error) {
	if err := ctx.Err(); err != nil {
		return model.GeoCoordinate{}, err
	}
	return s.Position, nil
}

// Denied answers every request as if the user refused location access.
type Denied struct{}

func (Denied) CurrentPosition(context.Context) (model.GeoCoordinate, error) {
	return model.GeoCoordinate{}, &model.LocationError{Reason: model.PermissionDenied}
}

// ParseLatLng reads "lat,lng", the order people write coordinates in.
func ParseLatLng(value string) (model.GeoCoordinate, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return model.GeoCoordinate{}, errors.Errorf("location %q is not in lat,lng form", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.GeoCoordinate{}, errors.Wrap(err, "latitude")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.GeoCoordinate{}, errors.Wrap(err, "longitude")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.GeoCoordinate{}, errors.Errorf("location %q is out of range", value)
	}
	return model.GeoCoordinate{Longitude: lng, Latitude: lat}, nil
}
