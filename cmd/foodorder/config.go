package main

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const appID = "foodorder"

type config struct {
	OrderServiceURL      string        `envconfig:"ORDER_SERVICE_URL" default:"http://localhost:7000/api"`
	DeliveryServiceURL   string        `envconfig:"DELIVERY_SERVICE_URL" default:"http://localhost:5078/api"`
	RestaurantServiceURL string        `envconfig:"RESTAURANT_SERVICE_URL" default:"http://localhost:8001/api"`
	AuthToken            string        `envconfig:"AUTH_TOKEN"`
	CustomerID           string        `envconfig:"CUSTOMER_ID" default:"customer-1"`
	HTTPTimeout          time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	DatabaseDSN string `envconfig:"DATABASE_DSN"`
	SessionFile string `envconfig:"SESSION_FILE" default:"foodorder-session.json"`
	SessionID   string `envconfig:"SESSION_ID" default:"default"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"order_events"`

	LocationTimeout time.Duration `envconfig:"LOCATION_TIMEOUT" default:"10s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

func parseEnv() (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	return c, nil
}

func initLogger(c *config) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(os.Stderr)

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	logger.SetLevel(level)

	switch c.LogFormat {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, errors.Errorf("log format %q is neither json nor text", c.LogFormat)
	}
	return logger, nil
}
