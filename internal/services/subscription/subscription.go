// Package services управляет подписками пользователей: уровень доступа
// зрителя, отмена, автопродление, история и фоновое истечение.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// RenewalWindow — за сколько до окончания подписки отправляется напоминание.
const RenewalWindow = 7 * 24 * time.Hour

// SubscriptionRepository определяет методы хранилища подписок.
type SubscriptionRepository interface {
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	ActiveSubscriptions(ctx context.Context, userID string, now time.Time) ([]models.Subscription, error)
	HasActiveSubscription(ctx context.Context, userID string, now time.Time) (bool, error)
	SubscriptionHistory(ctx context.Context, userID string) ([]models.Subscription, error)
	SetSubscriptionStatus(ctx context.Context, id string, status models.SubscriptionStatus, at time.Time) error
	SetAutoRenew(ctx context.Context, id string, autoRenew bool) error
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
	UpcomingRenewals(ctx context.Context, from, to time.Time) ([]models.RenewalNotice, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
	SubscriptionStats(ctx context.Context) ([]models.SubscriptionStat, error)
}

// SubscriptionService реализует операции над подписками.
type SubscriptionService struct {
	repo SubscriptionRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// ResolveViewer строит уровень доступа пользователя. Пустой userID
// означает гостя.
func (s *SubscriptionService) ResolveViewer(ctx context.Context, userID string) (models.ViewerAccess, error) {
	const op = "services.ResolveViewer"
	if userID == "" {
		return models.ViewerAccess{}, nil
	}
	ok, err := s.repo.HasActiveSubscription(ctx, userID, s.now())
	if err != nil {
		return models.ViewerAccess{IsLoggedIn: true}, fmt.Errorf("%s: %w", op, err)
	}
	return models.ViewerAccess{IsLoggedIn: true, IsSubscribed: ok}, nil
}

// Active возвращает действующие подписки пользователя.
func (s *SubscriptionService) Active(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "services.ActiveSubscriptions"
	res, err := s.repo.ActiveSubscriptions(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// History возвращает все подписки пользователя.
func (s *SubscriptionService) History(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "services.SubscriptionHistory"
	res, err := s.repo.SubscriptionHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *SubscriptionService) owned(ctx context.Context, op, userID, id string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("%s: subscription %s: %w", op, id, models.ErrForbidden)
	}
	return sub, nil
}

// Cancel отменяет подписку пользователя. Повторная отмена считается
// ошибкой запроса.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, id string) (*models.Subscription, error) {
	const op = "services.CancelSubscription"
	sub, err := s.owned(ctx, op, userID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionCancelled {
		return nil, fmt.Errorf("%s: already cancelled: %w", op, models.ErrBadInput)
	}
	now := s.now()
	if err := s.repo.SetSubscriptionStatus(ctx, id, models.SubscriptionCancelled, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Status = models.SubscriptionCancelled
	sub.CancelledAt = &now
	sub.AutoRenew = false
	s.log.Info("subscription cancelled", slog.String("id", id), slog.String("user", userID))
	return sub, nil
}

// SetAutoRenew включает или выключает автопродление активной подписки.
func (s *SubscriptionService) SetAutoRenew(ctx context.Context, userID, id string, autoRenew bool) (*models.Subscription, error) {
	const op = "services.SetAutoRenew"
	sub, err := s.owned(ctx, op, userID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionActive {
		return nil, fmt.Errorf("%s: subscription is %s: %w", op, sub.Status, models.ErrBadInput)
	}
	if err := s.repo.SetAutoRenew(ctx, id, autoRenew); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.AutoRenew = autoRenew
	return sub, nil
}

// Stats возвращает число подписок и выручку по статусам.
func (s *SubscriptionService) Stats(ctx context.Context) ([]models.SubscriptionStat, error) {
	const op = "services.SubscriptionStats"
	res, err := s.repo.SubscriptionStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Expire переводит истёкшие подписки в expired.
func (s *SubscriptionService) Expire(ctx context.Context) (int64, error) {
	const op = "services.ExpireSubscriptions"
	n, err := s.repo.ExpireSubscriptions(ctx, s.now())
	if err != nil {
		s.log.Error("failed to expire subscriptions", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		s.log.Info("subscriptions expired", slog.Int64("count", n))
	}
	return n, nil
}

// UpcomingRenewals возвращает подписки, истекающие в ближайшие RenewalWindow.
func (s *SubscriptionService) UpcomingRenewals(ctx context.Context) ([]models.RenewalNotice, error) {
	const op = "services.UpcomingRenewals"
	now := s.now()
	res, err := s.repo.UpcomingRenewals(ctx, now, now.Add(RenewalWindow))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// MarkReminded отмечает подписку, о продлении которой уже напомнили,
// чтобы следующий проход планировщика её пропустил.
func (s *SubscriptionService) MarkReminded(ctx context.Context, id string) error {
	const op = "services.MarkReminded"
	if err := s.repo.MarkReminded(ctx, id, s.now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
