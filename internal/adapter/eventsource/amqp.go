package eventsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/wire"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the part of *amqp.Channel the tracking feeds use.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// ChannelOpener opens a fresh channel, typically (*amqp.Connection).Channel.
type ChannelOpener func() (Channel, error)

func RoutingKey(orderID string) string {
	return "order." + orderID
}

func declareExchange(ch Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

// AMQP consumes the events of an order from a topic exchange through an
// exclusive auto-delete queue bound to the order's routing key.
type AMQP struct {
	open     ChannelOpener
	exchange string
	codec    *wire.Codec
	logger   *zap.Logger
}

func NewAMQP(open ChannelOpener, exchange string, codec *wire.Codec, log *zap.Logger) *AMQP {
	return &AMQP{
		open:     open,
		exchange: exchange,
		codec:    codec,
		logger:   log.Named("AMQP"),
	}
}

func (a *AMQP) Run(ctx context.Context, orderID string, sink Sink) error {
	ch, err := a.open()
	if err != nil {
		return fmt.Errorf("%w: open channel: %w", domain.ErrNetwork, err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch, a.exchange); err != nil {
		return fmt.Errorf("error declaring exchange %s: %w", a.exchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("error declaring queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKey(orderID), a.exchange, false, nil); err != nil {
		return fmt.Errorf("error binding queue %s: %w", q.Name, err)
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("error consuming %s: %w", q.Name, err)
	}

	sink.SetConnected(true)
	defer sink.SetConnected(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("%w: delivery channel closed", domain.ErrNetwork)
			}
			event, err := a.codec.Decode(msg.Body)
			if err != nil {
				a.logger.Debug("undecodable message skipped", zap.String("order", orderID), zap.Error(err))
				continue
			}
			sink.Emit(event)
		}
	}
}

// Publisher fans tracking events out to the exchange.
type Publisher struct {
	ch       Channel
	exchange string
	codec    *wire.Codec
}

var _ port.EventPublisher = (*Publisher)(nil)

func NewPublisher(ch Channel, exchange string, codec *wire.Codec) (*Publisher, error) {
	if ch == nil {
		return nil, errors.New("publisher needs a channel")
	}
	if err := declareExchange(ch, exchange); err != nil {
		return nil, fmt.Errorf("error declaring exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, codec: codec}, nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := p.codec.Encode(event)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(event.OrderID), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// DialChannels connects to the broker and returns an opener for per-feed channels.
func DialChannels(url string) (*amqp.Connection, ChannelOpener, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dial broker: %w", domain.ErrNetwork, err)
	}
	open := func() (Channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	return conn, open, nil
}
