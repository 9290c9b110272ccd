// Package services отправляет пользователям письма о скором окончании подписки.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/magabrotheeeer/medical-education/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/lib/smtp"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

const dateLayout = "02.01.2006"

// Mailer отправляет письмо.
type Mailer interface {
	Send(msg smtp.Message) error
}

// SenderService превращает напоминания из очереди в письма.
type SenderService struct {
	mailer Mailer
	log    *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(mailer Mailer, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer: mailer,
		log:    log,
	}
}

// HandleRenewal разбирает тело сообщения и отправляет напоминание.
// Сигнатура совпадает с обработчиком rabbitmq.Consume. Неразборчивое тело
// помечается rabbitmq.ErrPermanent, ошибки отправки остаются временными.
func (s *SenderService) HandleRenewal(_ context.Context, body []byte) error {
	const op = "services.HandleRenewal"
	var notice models.RenewalNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if err := s.mailer.Send(renewalMessage(notice)); err != nil {
		s.log.Error("failed to send renewal email", slog.String("to", notice.Email), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("renewal email sent", slog.String("to", notice.Email))
	return nil
}

func renewalMessage(n models.RenewalNotice) smtp.Message {
	body := fmt.Sprintf("Hello, %s!\n\nYour %s subscription expires on %s.\n\n",
		n.Username, n.PackageName, n.ExpiryDate.Format(dateLayout))
	if n.AutoRenew {
		body += "It will be renewed automatically, no action is needed."
	} else {
		body += "Renew it before that date to keep access to all sessions."
	}
	return smtp.Message{
		To:      n.Email,
		Subject: "Your subscription expires soon",
		Body:    body,
	}
}
