package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains queues for the batch aggregator. It deliberately uses
// polling gets instead of a blocking consume, so each aggregation cycle has a
// bounded duration.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(url string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch}, nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Drain pulls messages until the queue is empty or the budget elapses. Each
// message is acknowledged on read, so delivery is at-least-once: a crash
// between here and the aggregator's commit loses the in-memory tally.
func (c *Consumer) Drain(ctx context.Context, queue string, budget time.Duration) ([][]byte, error) {
	if _, err := c.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(budget)
	var bodies [][]byte
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return bodies, ctx.Err()
		default:
		}

		d, ok, err := c.ch.Get(queue, true)
		if err != nil {
			return bodies, err
		}
		if !ok {
			break
		}
		bodies = append(bodies, d.Body)
	}
	return bodies, nil
}
