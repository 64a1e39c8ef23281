package main

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"foodorder/pkg/common/domain"
	"foodorder/pkg/order/domain/model"
	"foodorder/pkg/order/domain/service"
	"foodorder/pkg/order/infrastructure/amqp"
	"foodorder/pkg/order/infrastructure/logdispatch"
	"foodorder/pkg/order/infrastructure/mysql"
	"foodorder/pkg/order/infrastructure/sessionfile"
	"foodorder/pkg/order/infrastructure/transport"
)

// application holds the collaborators one command run needs.
type application struct {
	cfg    *config
	logger *log.Logger

	orders     model.OrderAPI
	deliveries model.DeliveryAPI
	menu       model.MenuAPI
	dispatcher domain.EventDispatcher
	sessions   model.SessionStore

	closers []func() error
}

func newApplication(cfg *config, logger *log.Logger) (*application, error) {
	a := &application{cfg: cfg, logger: logger}

	a.orders = transport.NewOrderClient(transport.NewClient(cfg.OrderServiceURL, cfg.AuthToken, cfg.HTTPTimeout, logger.WithField("service", "order")))
	a.deliveries = transport.NewDeliveryClient(transport.NewClient(cfg.DeliveryServiceURL, cfg.AuthToken, cfg.HTTPTimeout, logger.WithField("service", "delivery")))
	a.menu = transport.NewMenuClient(transport.NewClient(cfg.RestaurantServiceURL, cfg.AuthToken, cfg.HTTPTimeout, logger.WithField("service", "restaurant")))

	dispatchers := domain.MultiDispatcher{logdispatch.New(logger)}
	if cfg.AMQPURL != "" {
		publisher, err := amqp.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		dispatchers = append(dispatchers, publisher)
	}
	a.dispatcher = dispatchers

	if cfg.DatabaseDSN != "" {
		db, err := mysql.Open(cfg.DatabaseDSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err = mysql.Migrate(db, logger); err != nil {
			a.Close()
			return nil, err
		}
		a.sessions = mysql.NewSessionStore(db)
	} else {
		a.sessions = sessionfile.New(cfg.SessionFile)
	}
	return a, nil
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.WithError(err).Warn("failed to release resource")
		}
	}
	a.closers = nil
}

// session restores the persisted customer session. provider may be nil.
func (a *application) session(ctx context.Context, provider model.LocationProvider) (*service.Session, error) {
	state, err := a.sessions.Load(ctx, a.cfg.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	geolocator := service.NewGeolocator(provider, a.cfg.LocationTimeout, a.logger)
	return service.NewSession(*state, a.cfg.CustomerID, geolocator), nil
}

func (a *application) saveSession(ctx context.Context, s *service.Session) error {
	return errors.Wrap(a.sessions.Save(ctx, s.State()), "save session")
}

func (a *application) draftBuilder() service.DraftBuilder {
	return service.NewDraftBuilder(a.orders, a.dispatcher, a.logger)
}

func (a *application) controller(ctx context.Context, orderID string) (service.LifecycleController, error) {
	controller := service.NewLifecycleController(a.orders, a.dispatcher, a.logger)
	if _, err := controller.Load(ctx, orderID); err != nil {
		return nil, err
	}
	return controller, nil
}

func (a *application) coordinator(renderer service.MapRenderer) service.DeliveryCoordinator {
	return service.NewDeliveryCoordinator(a.deliveries, renderer, a.dispatcher, a.logger)
}
