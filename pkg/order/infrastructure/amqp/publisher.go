package amqp

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"foodorder/pkg/common/domain"
)

const publishTimeout = 5 * time.Second

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type message struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Payload    domain.Event `json:"payload"`
}

var _ domain.EventDispatcher = &Publisher{}

// Publisher sends lifecycle events to a topic exchange, routed as
// "order.<event type>" in lower case.
type Publisher struct {
	mu       sync.Mutex
	channel  Channel
	conn     *amqp.Connection
	exchange string
	logger   log.FieldLogger
}

func NewPublisher(channel Channel, exchange string, logger log.FieldLogger) *Publisher {
	return &Publisher{channel: channel, exchange: exchange, logger: logger}
}

// Dial connects to the broker and declares the exchange.
func Dial(url, exchange string, logger log.FieldLogger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	p := NewPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func RoutingKey(event domain.Event) string {
	return "order." + strings.ToLower(event.Type())
}

func (p *Publisher) Dispatch(event domain.Event) error {
	body, err := json.Marshal(message{Type: event.Type(), OccurredAt: time.Now().UTC(), Payload: event})
	if err != nil {
		return errors.Wrapf(err, "encode %s", event.Type())
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	key := RoutingKey(event)
	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         event.Type(),
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		return errors.Wrapf(err, "publish %s", key)
	}

	p.logger.WithFields(log.Fields{"exchange": p.exchange, "routing_key": key, "size": len(body)}).Debug("event published")
	return nil
}

func (p *Publisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
