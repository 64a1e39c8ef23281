package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"foodorder/pkg/order/domain/model"
	"foodorder/pkg/order/domain/service"
	"foodorder/pkg/order/infrastructure/geo"
	"foodorder/pkg/order/infrastructure/stub"
)

var errOrderIDRequired = errors.New("order id is required")

type frontend struct {
	cfg    *config
	logger *log.Logger
}

type action func(c *cli.Context, a *application) error

// run opens the application for one command and releases it afterwards.
func (f *frontend) run(act action) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := newApplication(f.cfg, f.logger)
		if err != nil {
			return fail(err)
		}
		defer a.Close()
		return fail(act(c, a))
	}
}

func (f *frontend) commands() []*cli.Command {
	itemFlag := &cli.StringFlag{Name: "item", Usage: "menu item id", Required: true}
	deltaFlag := &cli.IntFlag{Name: "delta", Usage: "quantity change, e.g. --delta=-1", Value: 1}
	addressFlags := []cli.Flag{
		&cli.StringFlag{Name: "street", Required: true},
		&cli.StringFlag{Name: "city", Required: true},
		&cli.StringFlag{Name: "contact", Usage: "contact phone number", Required: true},
	}

	return []*cli.Command{
		{
			Name:      "menu",
			Usage:     "show a restaurant's menu",
			ArgsUsage: "RESTAURANT_ID",
			Action:    f.run(f.menu),
		},
		{
			Name:  "cart",
			Usage: "edit the cart of this session",
			Subcommands: []*cli.Command{
				{
					Name:  "add",
					Usage: "add one unit of a menu item",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "restaurant", Required: true},
						itemFlag,
						&cli.BoolFlag{Name: "replace", Usage: "drop a cart from another restaurant"},
					},
					Action: f.run(f.cartAdd),
				},
				{Name: "show", Action: f.run(f.cartShow)},
				{Name: "qty", Usage: "change the quantity of a line", Flags: []cli.Flag{itemFlag, deltaFlag}, Action: f.run(f.cartQuantity)},
				{Name: "remove", Flags: []cli.Flag{itemFlag}, Action: f.run(f.cartRemove)},
				{Name: "clear", Action: f.run(f.cartClear)},
				{Name: "address", Usage: "set the delivery address", Flags: addressFlags, Action: f.run(f.cartAddress)},
				{
					Name:  "location",
					Usage: "turn \"use my location\" on or off",
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "on"},
						&cli.BoolFlag{Name: "off"},
					},
					Action: f.run(f.cartLocation),
				},
			},
		},
		{
			Name:  "checkout",
			Usage: "submit the cart as a draft order",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "at", Usage: "current position as lat,lng; turns on \"use my location\""},
				&cli.BoolFlag{Name: "deny-location", Usage: "refuse location access"},
			},
			Action: f.run(f.checkout),
		},
		{
			Name:  "order",
			Usage: "work with one order",
			Subcommands: []*cli.Command{
				{Name: "show", ArgsUsage: "ORDER_ID", Action: f.run(f.orderShow)},
				{Name: "qty", ArgsUsage: "--item ID [--delta N] ORDER_ID", Flags: []cli.Flag{itemFlag, deltaFlag}, Action: f.run(f.orderQuantity)},
				{Name: "address", ArgsUsage: "--street S --city C --contact P ORDER_ID", Flags: addressFlags, Action: f.run(f.orderAddress)},
				{Name: "confirm", ArgsUsage: "ORDER_ID", Action: f.run(f.orderConfirm)},
				{
					Name:      "cancel",
					ArgsUsage: "--reason TEXT ORDER_ID",
					Flags:     []cli.Flag{&cli.StringFlag{Name: "reason"}},
					Action:    f.run(f.orderCancel),
				},
				{
					Name:      "advance",
					Usage:     "restaurant side: accept, start_prep or ready",
					ArgsUsage: "--action NAME ORDER_ID",
					Flags:     []cli.Flag{&cli.StringFlag{Name: "action", Required: true}},
					Action:    f.run(f.orderAdvance),
				},
				{Name: "discard", ArgsUsage: "ORDER_ID", Usage: "delete a draft order", Action: f.run(f.orderDiscard)},
			},
		},
		{
			Name:  "orders",
			Usage: "list your orders with their delivery state",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "ready", Usage: "only orders ready for delivery"},
				&cli.StringFlag{Name: "restaurant", Usage: "confirmed orders waiting for this restaurant to accept"},
			},
			Action: f.run(f.orders),
		},
		{
			Name:      "track",
			Usage:     "show where the delivery is",
			ArgsUsage: "[--follow] ORDER_ID",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "follow", Aliases: []string{"f"}},
				&cli.DurationFlag{Name: "interval", Value: 5 * time.Second},
			},
			Action: f.run(f.track),
		},
		{
			Name:      "assign",
			Usage:     "ask the delivery service for a driver",
			ArgsUsage: "ORDER_ID",
			Action:    f.run(f.assign),
		},
		{
			Name:  "driver",
			Usage: "driver side of deliveries",
			Subcommands: []*cli.Command{
				{Name: "deliveries", ArgsUsage: "DRIVER_ID", Action: f.run(f.driverDeliveries)},
				{Name: "status", ArgsUsage: "DELIVERY_ID ASSIGNED|PICKED_UP|COMPLETED", Action: f.run(f.driverStatus)},
			},
		},
		{
			Name:  "stub-server",
			Usage: "serve in-memory order, delivery and restaurant APIs",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Value: ":7000"},
				&cli.StringFlag{Name: "fixtures", Usage: "JSON file with restaurants and drivers; created with defaults when missing"},
			},
			Action: f.stubServer,
		},
	}
}

func (f *frontend) menu(c *cli.Context, a *application) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("restaurant id is required")
	}
	restaurant, err := a.menu.Restaurant(c.Context, id)
	if err != nil {
		return err
	}
	items, err := a.menu.MenuItems(c.Context, id)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s (%s)\n", restaurant.DisplayName, restaurant.RestaurantID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, item := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", item.ItemID, item.Name, item.UnitPrice.StringFixed(2))
	}
	return tw.Flush()
}

func (f *frontend) cartAdd(c *cli.Context, a *application) error {
	ctx := c.Context
	restaurantID := c.String("restaurant")
	restaurant, err := a.menu.Restaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	menu, err := a.menu.MenuItems(ctx, restaurantID)
	if err != nil {
		return err
	}
	var item *model.MenuItemRef
	for i := range menu {
		if menu[i].ItemID == c.String("item") {
			item = &menu[i]
			break
		}
	}
	if item == nil {
		return errors.Errorf("%s is not on the menu of %s", c.String("item"), restaurant.DisplayName)
	}

	session, err := a.session(ctx, nil)
	if err != nil {
		return err
	}
	conflict, err := session.Cart.AddItem(*item, *restaurant)
	if err != nil {
		return err
	}
	if conflict != nil {
		if !c.Bool("replace") {
			_ = session.Cart.ResolveConflict(service.KeepCart)
			return errors.Errorf("your cart holds items from %s; add --replace to start over with %s",
				conflict.CurrentRestaurant.DisplayName, conflict.PendingRestaurant.DisplayName)
		}
		if err = session.Cart.ResolveConflict(service.ReplaceCart); err != nil {
			return err
		}
	}
	if err = a.saveSession(ctx, session); err != nil {
		return err
	}
	printCart(c, session)
	return nil
}

func (f *frontend) cartShow(c *cli.Context, a *application) error {
	session, err := a.session(c.Context, nil)
	if err != nil {
		return err
	}
	printCart(c, session)
	return nil
}

func (f *frontend) cartQuantity(c *cli.Context, a *application) error {
	return f.editCart(c, a, func(s *service.Session) error {
		return s.Cart.UpdateQuantity(c.String("item"), c.Int("delta"))
	})
}

func (f *frontend) cartRemove(c *cli.Context, a *application) error {
	return f.editCart(c, a, func(s *service.Session) error {
		return s.Cart.Remove(c.String("item"))
	})
}

func (f *frontend) cartClear(c *cli.Context, a *application) error {
	return f.editCart(c, a, func(s *service.Session) error {
		s.Cart.Clear()
		return nil
	})
}

func (f *frontend) cartAddress(c *cli.Context, a *application) error {
	return f.editCart(c, a, func(s *service.Session) error {
		s.Address = addressFrom(c)
		return nil
	})
}

func (f *frontend) cartLocation(c *cli.Context, a *application) error {
	if c.Bool("on") == c.Bool("off") {
		return errors.New("pass exactly one of --on and --off")
	}
	return f.editCart(c, a, func(s *service.Session) error {
		s.SetUseLocation(c.Context, c.Bool("on"))
		return nil
	})
}

func (f *frontend) editCart(c *cli.Context, a *application, edit func(s *service.Session) error) error {
	session, err := a.session(c.Context, nil)
	if err != nil {
		return err
	}
	if err = edit(session); err != nil {
		return err
	}
	if err = a.saveSession(c.Context, session); err != nil {
		return err
	}
	printCart(c, session)
	return nil
}

func printCart(c *cli.Context, s *service.Session) {
	w := c.App.Writer
	restaurant, ok := s.Cart.Restaurant()
	if !ok {
		fmt.Fprintln(w, "cart is empty")
	} else {
		fmt.Fprintf(w, "cart from %s\n", restaurant.DisplayName)
		printLines(w, s.Cart.Lines())
		fmt.Fprintf(w, "total: %s\n", s.Cart.Total().StringFixed(2))
	}
	if s.Address.Complete() {
		fmt.Fprintf(w, "deliver to: %s, %s (%s)\n", s.Address.Street, s.Address.City, s.Address.ContactNumber)
	}
	if s.UseLocation() {
		fmt.Fprintln(w, "using current location")
	}
	if tracked := s.TrackedOrders(); len(tracked) > 0 {
		fmt.Fprintf(w, "tracked orders: %v\n", tracked)
	}
}

func addressFrom(c *cli.Context) model.Address {
	return model.Address{Street: c.String("street"), City: c.String("city"), ContactNumber: c.String("contact")}
}

func (f *frontend) checkout(c *cli.Context, a *application) error {
	ctx := c.Context
	var provider model.LocationProvider
	switch {
	case c.String("at") != "":
		position, err := geo.ParseLatLng(c.String("at"))
		if err != nil {
			return err
		}
		provider = geo.Static{Position: position}
	case c.Bool("deny-location"):
		provider = geo.Denied{}
	}

	session, err := a.session(ctx, provider)
	if err != nil {
		return err
	}
	if session.UseLocation() || provider != nil {
		session.SetUseLocation(ctx, true)
		fix, err := session.Location.Wait(ctx)
		if err != nil {
			return err
		}
		if fix.State == service.LocationFailed {
			fmt.Fprintf(c.App.Writer, "could not get your location: %s\n", fix.Failure)
		}
	}

	order, err := session.Checkout(ctx, a.draftBuilder())
	if err != nil {
		return err
	}
	if err = a.saveSession(ctx, session); err != nil {
		return err
	}
	printOrder(c.App.Writer, *order)
	return nil
}

func (f *frontend) changeOrder(c *cli.Context, a *application, change func(ctx context.Context, ctl service.LifecycleController) (model.Order, error)) error {
	id := c.Args().First()
	if id == "" {
		return errOrderIDRequired
	}
	ctl, err := a.controller(c.Context, id)
	if err != nil {
		return err
	}
	order, err := change(c.Context, ctl)
	if err != nil {
		return err
	}
	printOrder(c.App.Writer, order)
	return nil
}

func (f *frontend) orderShow(c *cli.Context, a *application) error {
	return f.changeOrder(c, a, func(_ context.Context, ctl service.LifecycleController) (model.Order, error) {
		order, _ := ctl.Order()
		return order, nil
	})
}

func (f *frontend) orderQuantity(c *cli.Context, a *application) error {
	return f.changeOrder(c, a, func(ctx context.Context, ctl service.LifecycleController) (model.Order, error) {
		return ctl.ChangeQuantity(ctx, c.String("item"), c.Int("delta"))
	})
}

func (f *frontend) orderAddress(c *cli.Context, a *application) error {
	return f.changeOrder(c, a, func(ctx context.Context, ctl service.LifecycleController) (model.Order, error) {
		return ctl.UpdateAddress(ctx, addressFrom(c))
	})
}

func (f *frontend) orderConfirm(c *cli.Context, a *application) error {
	return f.changeOrder(c, a, func(ctx context.Context, ctl service.LifecycleController) (model.Order, error) {
		return ctl.Confirm(ctx)
	})
}

func (f *frontend) orderCancel(c *cli.Context, a *application) error {
	return f.changeOrder(c, a, func(ctx context.Context, ctl service.LifecycleController) (model.Order, error) {
		return ctl.Cancel(ctx, c.String("reason"))
	})
}

func (f *frontend) orderAdvance(c *cli.Context, a *application) error {
	act, err := model.ParseAction(c.String("action"))
	if err != nil {
		return err
	}
	return f.changeOrder(c, a, func(ctx context.Context, ctl service.LifecycleController) (model.Order, error) {
		return ctl.Advance(ctx, act)
	})
}

func (f *frontend) orderDiscard(c *cli.Context, a *application) error {
	id := c.Args().First()
	if id == "" {
		return errOrderIDRequired
	}
	ctl, err := a.controller(c.Context, id)
	if err != nil {
		return err
	}
	if err = ctl.Discard(c.Context); err != nil {
		return err
	}

	session, err := a.session(c.Context, nil)
	if err != nil {
		return err
	}
	session.Untrack(id)
	if err = a.saveSession(c.Context, session); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "order %s discarded\n", id)
	return nil
}

func (f *frontend) orders(c *cli.Context, a *application) error {
	ctx := c.Context
	var (
		orders []model.Order
		err    error
	)
	switch {
	case c.Bool("ready") && c.String("restaurant") != "":
		return errors.New("--ready and --restaurant cannot be combined")
	case c.Bool("ready"):
		orders, err = a.orders.ListReadyForDelivery(ctx)
	case c.String("restaurant") != "":
		orders, err = a.orders.ListConfirmedForRestaurant(ctx, c.String("restaurant"))
	default:
		orders, err = a.orders.ListForCurrentUser(ctx)
	}
	if err != nil {
		return err
	}

	coordinator := a.coordinator(nil)
	views := make([]service.TrackingView, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, order := range orders {
		if !order.Status.DeliveryEligible() {
			continue
		}
		i, order := i, order
		g.Go(func() error {
			view, err := coordinator.Refresh(gctx, order)
			views[i] = view
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tSTATUS\tRESTAURANT\tTOTAL\tDELIVERY")
	for i, o := range orders {
		delivery := "-"
		if o.Status.DeliveryEligible() {
			delivery = views[i].State.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Status, o.RestaurantID, o.TotalAmount.StringFixed(2), delivery)
	}
	return tw.Flush()
}

func (f *frontend) track(c *cli.Context, a *application) error {
	id := c.Args().First()
	if id == "" {
		return errOrderIDRequired
	}
	ctx, cancel := contextUntilKilled(c.Context, f.logger)
	defer cancel()

	ctl, err := a.controller(ctx, id)
	if err != nil {
		return err
	}
	w := c.App.Writer
	coordinator := a.coordinator(textRenderer{w: w})
	follow := c.Bool("follow")

	for {
		order, _ := ctl.Order()
		fmt.Fprintf(w, "%s order %s is %s\n", time.Now().Format(time.TimeOnly), order.ID, order.Status)
		view, err := coordinator.Refresh(ctx, order)
		switch {
		case err != nil && !follow:
			return err
		case err != nil:
			f.logger.WithError(err).Warn("tracking round failed")
		default:
			printTracking(w, view)
		}
		if !follow || order.Status.Terminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.Duration("interval")):
		}
		if _, err = ctl.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.logger.WithError(err).Warn("failed to refresh order")
		}
	}
}

func (f *frontend) assign(c *cli.Context, a *application) error {
	id := c.Args().First()
	if id == "" {
		return errOrderIDRequired
	}
	ctl, err := a.controller(c.Context, id)
	if err != nil {
		return err
	}
	order, _ := ctl.Order()
	delivery, err := a.coordinator(nil).RequestAssignment(c.Context, order)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "driver %s assigned to order %s (delivery %s)\n", delivery.DriverID, delivery.OrderID, delivery.ID)
	return nil
}

func (f *frontend) driverDeliveries(c *cli.Context, a *application) error {
	driverID := c.Args().First()
	if driverID == "" {
		return errors.New("driver id is required")
	}
	deliveries, err := a.deliveries.ListForDriver(c.Context, driverID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DELIVERY\tORDER\tSTATUS")
	for _, d := range deliveries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.OrderID, d.Status)
	}
	return tw.Flush()
}

func (f *frontend) driverStatus(c *cli.Context, a *application) error {
	if c.NArg() != 2 {
		return errors.New("usage: driver status DELIVERY_ID STATUS")
	}
	delivery, err := a.deliveries.UpdateStatus(c.Context, c.Args().Get(0), model.DeliveryStatus(c.Args().Get(1)))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "delivery %s is %s\n", delivery.ID, delivery.Status)
	return nil
}

func (f *frontend) stubServer(c *cli.Context) error {
	fixtures, err := f.loadFixtures(c.String("fixtures"))
	if err != nil {
		return err
	}
	store, err := stub.NewStore(fixtures)
	if err != nil {
		return err
	}

	addr := c.String("addr")
	f.logger.WithFields(log.Fields{"url": addr}).Info("Starting server")

	killSignalChan := getKillSignalChan()
	srv := &http.Server{Addr: addr, Handler: stub.Router(store, f.logger)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			f.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	waitForKillSignalChan(f.logger, killSignalChan)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// loadFixtures reads the fixture file. A missing file is created with the
// defaults so it can be edited for the next run.
func (f *frontend) loadFixtures(path string) (stub.Fixtures, error) {
	if path == "" {
		return stub.DefaultFixtures(), nil
	}
	fixtures, err := stub.LoadFixtures(path)
	if !os.IsNotExist(err) {
		return fixtures, err
	}

	fixtures = stub.DefaultFixtures()
	if err = stub.SaveFixtures(path, fixtures); err != nil {
		return stub.Fixtures{}, errors.Wrapf(err, "write default fixtures to %s", path)
	}
	f.logger.WithField("path", path).Warn("Fixtures file not found, wrote defaults.")
	return fixtures, nil
}
