package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
)

// ErrPermanent помечает ошибку обработки, которую повтор не исправит.
// Такое сообщение отбрасывается, а не возвращается в очередь.
var ErrPermanent = errors.New("permanent failure")

// Consume читает очередь queueName и вызывает handler для каждого сообщения
// не более чем в workers горутинах. Успешно обработанные сообщения
// подтверждаются, сообщения с ошибкой возвращаются в очередь, кроме
// ошибок с ErrPermanent.
// Блокируется до отмены ctx или закрытия канала.
func Consume(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, workers int, handler func(context.Context, []byte) error) error {
	const op = "rabbitmq.Consume"
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, max(workers, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleDelivery(ctx, log, d, handler)
			}(d)
		}
	}
}

// acknowledger — часть amqp.Delivery, через которую подтверждается сообщение.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler func(context.Context, []byte) error) {
	settle(log, d, d.Body, func(body []byte) error { return handler(ctx, body) })
}

func settle(log *slog.Logger, ack acknowledger, body []byte, handler func([]byte) error) {
	if err := handler(body); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
		if nackErr := ack.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}
