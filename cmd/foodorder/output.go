package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"foodorder/pkg/order/domain/model"
	"foodorder/pkg/order/domain/service"
)

func printOrder(w io.Writer, o model.Order) {
	fmt.Fprintf(w, "order %s  [%s]\n", o.ID, o.Status)
	if o.RestaurantName != "" {
		fmt.Fprintf(w, "restaurant: %s (%s)\n", o.RestaurantName, o.RestaurantID)
	} else {
		fmt.Fprintf(w, "restaurant: %s\n", o.RestaurantID)
	}
	printLines(w, o.Items)
	fmt.Fprintf(w, "total: %s\n", o.TotalAmount.StringFixed(2))
	fmt.Fprintf(w, "deliver to: %s, %s (%s)\n", o.CustomerInfo.Street, o.CustomerInfo.City, o.CustomerInfo.ContactNumber)
	if !o.CustomerLocation.IsSentinel() {
		p := service.ToMapPoint(o.CustomerLocation)
		fmt.Fprintf(w, "location: %.6f, %.6f\n", p.Lat, p.Lng)
	}
	if o.Status == model.Cancelled && o.CancellationReason != "" {
		fmt.Fprintf(w, "cancelled: %s\n", o.CancellationReason)
	}
	if o.PaymentStatus != "" {
		fmt.Fprintf(w, "payment: %s\n", o.PaymentStatus)
	}
}

func printLines(w io.Writer, items []model.MenuItemRef) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, item := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%d x %s\t%s\n", item.ItemID, item.Name, item.Quantity, item.UnitPrice.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	_ = tw.Flush()
}

func printTracking(w io.Writer, view service.TrackingView) {
	fmt.Fprintf(w, "delivery: %s\n", view.State)
	if view.Delivery != nil {
		fmt.Fprintf(w, "  delivery %s, driver %s, %s\n", view.Delivery.ID, view.Delivery.DriverID, view.Delivery.Status)
	}
	if view.LocationErr != nil {
		fmt.Fprintf(w, "  driver location unavailable: %s\n", describe(view.LocationErr))
	}
}

// textRenderer prints marker moves instead of drawing them.
type textRenderer struct {
	w io.Writer
}

func markerName(m service.Marker) string {
	if m == service.DriverMarker {
		return "driver"
	}
	return "customer"
}

func (r textRenderer) SetMarker(marker service.Marker, at service.LatLng) {
	fmt.Fprintf(r.w, "  %s at %.6f, %.6f\n", markerName(marker), at.Lat, at.Lng)
}

func (r textRenderer) ClearMarker(marker service.Marker) {
	fmt.Fprintf(r.w, "  %s not on map\n", markerName(marker))
}

// describe turns a domain error into the line shown to the user.
func describe(err error) string {
	var (
		validation *model.ValidationError
		transport  *model.TransportError
		conflict   *model.StateConflictError
		location   *model.LocationError
	)
	switch {
	case errors.As(err, &validation):
		problems := make([]string, 0, len(validation.Problems))
		for _, p := range validation.Problems {
			problems = append(problems, p.Error())
		}
		return "please fix: " + strings.Join(problems, "; ")
	case errors.As(err, &conflict):
		if conflict.Server {
			return fmt.Sprintf("the order changed meanwhile and is now %s; nothing was applied", conflict.Status)
		}
		return conflict.Error()
	case errors.As(err, &transport):
		return transport.UserMessage()
	case errors.As(err, &location):
		return "location " + location.Reason.String()
	case errors.Is(err, model.ErrMutationInFlight):
		return "another change to this order is still in progress"
	}
	return err.Error()
}

func fail(err error) error {
	if err == nil {
		return nil
	}
	return cli.Exit(describe(err), 1)
}
