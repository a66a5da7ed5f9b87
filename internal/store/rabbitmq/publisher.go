package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/suPer8Hu/chat-platform/internal/chat"
)

// Publisher delivers creation events to the durable aggregation queues.
type Publisher struct {
	conn         *amqp.Connection
	ch           *amqp.Channel
	chatQueue    string
	messageQueue string
}

func NewPublisher(url, chatQueue, messageQueue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	for _, q := range []string{chatQueue, messageQueue} {
		if _, err := ch.QueueDeclare(
			q,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false,
			nil,
		); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &Publisher{conn: conn, ch: ch, chatQueue: chatQueue, messageQueue: messageQueue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishChatCreated enqueues one chat-created event; the payload is the
// application token.
func (p *Publisher) PublishChatCreated(ctx context.Context, applicationToken string) error {
	body, err := json.Marshal(applicationToken)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.chatQueue, body)
}

func (p *Publisher) PublishMessageCreated(ctx context.Context, env chat.MessageEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.messageQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",    // default exchange
		queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}
