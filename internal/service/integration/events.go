package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/metrics"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/worker"
	"github.com/Imtihan-Edutech/Swanirbhar/pkg/rabbitmq"
)

const publishTimeout = 5 * time.Second

// EventPublisher delivers domain events keyed by routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
	Close() error
}

type rabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

func NewRabbitMQPublisher(url, exchange string, logger zerolog.Logger) (EventPublisher, error) {
	conn, err := rabbitmq.NewConnection(url)
	if err != nil {
		return nil, err
	}

	channel, err := rabbitmq.NewChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := rabbitmq.DeclareTopicExchange(channel, exchange); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	logger.Info().
		Str("exchange", exchange).
		Msg("Connected to RabbitMQ")

	return &rabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *rabbitMQPublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		publishCtx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug().Str("routing_key", routingKey).Msg("Event published")
	return nil
}

func (p *rabbitMQPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}

type noopPublisher struct {
	logger zerolog.Logger
}

// NewNoopPublisher returns a publisher that only logs; used when the broker is disabled.
func NewNoopPublisher(logger zerolog.Logger) EventPublisher {
	return &noopPublisher{logger: logger}
}

func (p *noopPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.logger.Debug().Str("routing_key", routingKey).Msg("Event dropped, broker disabled")
	return nil
}

func (p *noopPublisher) Close() error { return nil }

type asyncPublisher struct {
	next   EventPublisher
	pool   *worker.Pool
	logger zerolog.Logger
}

// NewAsyncPublisher hands each event to the worker pool so request handlers
// never wait on the broker. Failures are logged and counted, not returned.
func NewAsyncPublisher(next EventPublisher, pool *worker.Pool, logger zerolog.Logger) EventPublisher {
	return &asyncPublisher{next: next, pool: pool, logger: logger}
}

func (p *asyncPublisher) Publish(_ context.Context, routingKey string, event interface{}) error {
	accepted := p.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.next.Publish(ctx, routingKey, event); err != nil {
			metrics.EventsPublishedTotal.WithLabelValues(routingKey, metrics.ResultError).Inc()
			p.logger.Error().Err(err).Str("routing_key", routingKey).Msg("Failed to publish event")
			return
		}
		metrics.EventsPublishedTotal.WithLabelValues(routingKey, metrics.ResultOK).Inc()
	})
	if !accepted {
		metrics.EventsPublishedTotal.WithLabelValues(routingKey, metrics.ResultError).Inc()
	}
	return nil
}

func (p *asyncPublisher) Close() error {
	return p.next.Close()
}
