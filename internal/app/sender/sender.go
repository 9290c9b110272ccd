// Package sender собирает фоновый процесс, который читает напоминания о
// продлении из очереди и отправляет письма.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/medical-education/internal/config"
	"github.com/magabrotheeeer/medical-education/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/medical-education/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queue         string
	workers       int
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.ConnectRetries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	queue := rabbitmq.RenewalQueue(cfg.Queue)
	ch, err := rabbitmq.SetupChannel(conn, queue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	mailer := smtp.NewMailer(smtp.NewTLSDialer(cfg.SMTP), cfg.SMTP.From)

	return &App{
		conn:          conn,
		ch:            ch,
		queue:         queue.QueueName,
		workers:       cfg.Workers,
		senderService: senderservice.NewSenderService(mailer, logger),
		logger:        logger,
	}, nil
}

// Run потребляет очередь напоминаний до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("consuming renewal reminders", slog.String("queue", a.queue), slog.Int("workers", a.workers))
	err := rabbitmq.Consume(ctx, a.logger, a.ch, a.queue, a.workers, a.senderService.HandleRenewal)
	if err != nil {
		a.logger.Error("failed to consume renewal reminders", sl.Err(err))
	}

	a.logger.Info("sender service shutting down gracefully")
	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", sl.Err(cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", sl.Err(cerr))
	}
	return err
}
