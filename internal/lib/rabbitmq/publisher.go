package rabbitmq

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/streadway/amqp"
)

// Channel — часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует JSON-сообщения в обменник уведомлений.
type Publisher struct {
	ch         Channel
	routingKey string
}

// NewPublisher создаёт Publisher для ключа маршрутизации queue.
func NewPublisher(ch Channel, queue QueueConfig) *Publisher {
	return &Publisher{ch: ch, routingKey: queue.RoutingKey}
}

// Publish сериализует message и отправляет его как persistent-сообщение.
func (p *Publisher) Publish(ctx context.Context, message any) error {
	const op = "rabbitmq.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = p.ch.Publish(Exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
