package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker/v2"
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewClient dials the broker and declares the exchange, queue and binding.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := newClient(url, exchangeName, queueName)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(url, exchangeName, queueName string) *Client {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "amqp-publish",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("AMQP circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
	return c
}

func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel

	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on the direct exchange
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// channelLocked returns a usable channel, reconnecting when the previous
// connection was lost.
func (c *Client) channelLocked() (*amqp091.Channel, error) {
	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c.channel, nil
}

// PublishSubscriptionsChanged announces that userID's subscription set changed.
func (c *Client) PublishSubscriptionsChanged(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := NewSubscriptionsChangedMessage(userID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.publish(ctx, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker is open: %w", err)
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published subscriptions changed message",
		"user_id", userID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel, err := c.channelLocked()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		if isConnectionError(err) {
			c.closeLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// BreakerState reports the publish circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// ConsumeSubscriptionsChanged delivers messages to handler until ctx is done,
// reconnecting with exponential backoff when the broker connection drops.
// Malformed messages are dropped; handler failures are requeued.
func (c *Client) ConsumeSubscriptionsChanged(ctx context.Context, handler func(context.Context, *SubscriptionsChangedMessage) error) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}
		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP consumer disconnected, retrying",
			"error", err,
			"attempt", attempt,
			"backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *SubscriptionsChangedMessage) error, connected func()) error {
	c.mu.Lock()
	channel, err := c.channelLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()

	slog.InfoContext(ctx, "Started consuming subscription change messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return amqp091.ErrClosed
			}

			msg, err := SubscriptionsChangedMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"user_id", msg.UserID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed subscription change message", "user_id", msg.UserID)
		}
	}
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 10 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection", "eof", "broken pipe", "dial amqp"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
