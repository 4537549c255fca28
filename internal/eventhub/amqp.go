package eventhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"shothook/internal/logging"
)

// AMQPConfig describes the broker connection for the AMQP transport.
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
	Prefetch int
	// RoutingKeys bind the queue to the exchange. Defaults to
	// SubscribedTopics.
	RoutingKeys []string
}

// AMQPTransport exchanges JSON encoded events over a topic exchange keyed by
// event topic.
type AMQPTransport struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
	logger   *slog.Logger
}

// NewAMQPTransport dials the broker and declares the exchange, queue and
// bindings.
func NewAMQPTransport(cfg AMQPConfig, logger *slog.Logger) (*AMQPTransport, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is required")
	}
	if cfg.Exchange == "" {
		return nil, errors.New("amqp exchange is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	fail := func(step string, err error) (*AMQPTransport, error) {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	if cfg.Prefetch > 0 {
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			return fail("set qos", err)
		}
	}
	queue, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	keys := cfg.RoutingKeys
	if len(keys) == 0 {
		keys = SubscribedTopics
	}
	for _, key := range keys {
		if err := ch.QueueBind(queue.Name, key, cfg.Exchange, false, nil); err != nil {
			return fail("bind queue", err)
		}
	}
	return &AMQPTransport{
		conn:     conn,
		ch:       ch,
		exchange: cfg.Exchange,
		queue:    queue.Name,
		logger:   logging.NewComponentLogger(logger, "eventhub.amqp"),
	}, nil
}

// Publish sends ev with its topic as routing key.
func (t *AMQPTransport) Publish(ctx context.Context, ev Event) error {
	if t == nil || t.ch == nil {
		return errors.New("amqp transport not initialized")
	}
	if ev.Sent == nil {
		now := time.Now().UTC()
		ev.Sent = &now
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return t.ch.PublishWithContext(ctx, t.exchange, ev.Topic, false, false, amqp.Publishing{
		ContentType:   "application/json",
		MessageId:     ev.ID,
		CorrelationId: ev.InReplyToEvent,
		Timestamp:     *ev.Sent,
		Body:          body,
	})
}

// Consume delivers events one at a time. Messages that cannot be decoded are
// rejected without requeue.
func (t *AMQPTransport) Consume(ctx context.Context, fn func(context.Context, Event)) error {
	if t == nil || t.ch == nil {
		return errors.New("amqp transport not initialized")
	}
	msgs, err := t.ch.Consume(t.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", t.queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			var ev Event
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				t.logger.Warn("dropping undecodable event",
					logging.String("routing_key", msg.RoutingKey),
					logging.Error(err),
					logging.String(logging.FieldEventType, "event_decode_failed"),
					logging.String(logging.FieldImpact, "event ignored"),
				)
				_ = msg.Nack(false, false)
				continue
			}
			if ev.Topic == "" {
				ev.Topic = msg.RoutingKey
			}
			if !consumable(ev) {
				_ = msg.Ack(false)
				continue
			}
			fn(ctx, ev)
			_ = msg.Ack(false)
		}
	}
}

// Close closes the channel and connection.
func (t *AMQPTransport) Close() error {
	if t == nil {
		return nil
	}
	if t.ch != nil {
		_ = t.ch.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}
