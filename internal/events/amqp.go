package events

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	gobreaker "github.com/sony/gobreaker/v2"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes match events to a topic exchange. Publishing goes
// through a circuit breaker so an unreachable broker fails fast instead of
// stalling every match on the publish timeout.
type AMQPNotifier struct {
	conn     *amqp.Connection
	exchange string
	breaker  *gobreaker.CircuitBreaker[struct{}]

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
	ch channel
}

// DialAMQP connects to the broker and declares exchange as a durable topic
// exchange.
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to open RabbitMQ channel")
	}

	n, err := newAMQPNotifier(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn

	logger.Info("Match events enabled", "exchange", exchange)
	return n, nil
}

func newAMQPNotifier(ch channel, exchange string) (*AMQPNotifier, error) {
	err := ch.ExchangeDeclare(
		exchange, // exchange name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to declare exchange")
	}
	return &AMQPNotifier{ch: ch, exchange: exchange, breaker: newBreaker(DefaultBreakerConfig())}, nil
}

// MatchCreated publishes event as persistent JSON.
func (n *AMQPNotifier) MatchCreated(ctx context.Context, event MatchCreated) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode match event")
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.publish(ctx, event.MatchID, event.CreatedAt, body)
	})
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.Wrap(err, errors.ErrCodeInternalError, "match events temporarily disabled")
	default:
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to publish match event")
	}
}

// BreakerState reports the publish breaker state ("closed", "open" or
// "half-open").
func (n *AMQPNotifier) BreakerState() string {
	return n.breaker.State().String()
}

func (n *AMQPNotifier) publish(ctx context.Context, messageID string, ts time.Time, body []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.ch.PublishWithContext(
		ctx,
		n.exchange,             // exchange name
		RoutingKeyMatchCreated, // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    ts,
			Body:         body,
		},
	)
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
