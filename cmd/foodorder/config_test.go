package main

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvDefaults(t *testing.T) {
	c, err := parseEnv()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7000/api", c.OrderServiceURL)
	assert.Equal(t, "http://localhost:5078/api", c.DeliveryServiceURL)
	assert.Equal(t, "http://localhost:8001/api", c.RestaurantServiceURL)
	assert.Equal(t, 10*time.Second, c.HTTPTimeout)
	assert.Equal(t, 10*time.Second, c.LocationTimeout)
	assert.Equal(t, "order_events", c.AMQPExchange)
	assert.Equal(t, "default", c.SessionID)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("FOODORDER_ORDER_SERVICE_URL", "http://orders.internal/api")
	t.Setenv("FOODORDER_HTTP_TIMEOUT", "3s")
	t.Setenv("FOODORDER_LOG_LEVEL", "debug")

	c, err := parseEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://orders.internal/api", c.OrderServiceURL)
	assert.Equal(t, 3*time.Second, c.HTTPTimeout)

	logger, err := initLogger(c)
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
}

func TestInitLoggerRejectsUnknownFormat(t *testing.T) {
	_, err := initLogger(&config{LogLevel: "info", LogFormat: "xml"})
	assert.Error(t, err)

	_, err = initLogger(&config{LogLevel: "loud", LogFormat: "json"})
	assert.Error(t, err)
}
