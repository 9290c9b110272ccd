// Package services запускает фоновые задачи подписок: истечение оплаченных
// периодов и публикацию напоминаний о продлении.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Subscriptions — операции подписок, нужные планировщику.
type Subscriptions interface {
	Expire(ctx context.Context) (int64, error)
	UpcomingRenewals(ctx context.Context) ([]models.RenewalNotice, error)
	MarkReminded(ctx context.Context, id string) error
}

// Publisher публикует сообщения в брокер.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

// SchedulerService периодически обслуживает подписки.
type SchedulerService struct {
	subs      Subscriptions
	publisher Publisher
	interval  time.Duration
	log       *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(subs Subscriptions, publisher Publisher, interval time.Duration, log *slog.Logger) *SchedulerService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &SchedulerService{
		subs:      subs,
		publisher: publisher,
		interval:  interval,
		log:       log,
	}
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce истекает подписки и публикует напоминания. Опубликованное
// напоминание отмечается, поэтому каждая подписка получает одно письмо.
// Возвращает число опубликованных напоминаний. Ошибки только логируются.
func (s *SchedulerService) RunOnce(ctx context.Context) int {
	s.log.Info("starting subscription maintenance")

	if _, err := s.subs.Expire(ctx); err != nil {
		s.log.Error("failed to expire subscriptions", sl.Err(err))
	}

	notices, err := s.subs.UpcomingRenewals(ctx)
	if err != nil {
		s.log.Error("failed to find upcoming renewals", sl.Err(err))
		return 0
	}
	if len(notices) == 0 {
		s.log.Info("no upcoming renewals found")
		return 0
	}

	published := 0
	for _, n := range notices {
		if err := s.publisher.Publish(ctx, n); err != nil {
			s.log.Error("failed to publish renewal notice", slog.String("email", n.Email), sl.Err(err))
			continue
		}
		published++
		if err := s.subs.MarkReminded(ctx, n.SubscriptionID); err != nil {
			s.log.Error("failed to mark renewal notice", slog.String("subscription_id", n.SubscriptionID), sl.Err(err))
		}
	}
	s.log.Info("renewal notices published", slog.Int("count", published), slog.Int("found", len(notices)))
	return published
}
