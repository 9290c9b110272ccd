package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/magabrotheeeer/medical-education/internal/models"
	"github.com/magabrotheeeer/medical-education/internal/paymentprovider"
)

const eventPaymentCaptured = "payment.captured"

// HandleWebhook проверяет подпись уведомления шлюза и активирует подписку
// по захваченному платежу. Неизвестные события и заказы пропускаются.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	const op = "payment.HandleWebhook"

	if !s.gateway.VerifyWebhook(body, signature) {
		return fmt.Errorf("%s: invalid signature: %w", op, models.ErrBadInput)
	}
	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrBadInput, err)
	}
	if event.Event != eventPaymentCaptured {
		s.log.Debug("webhook event skipped", slog.String("event", event.Event))
		return nil
	}

	entity := event.Payload.Payment.Entity
	sub, err := s.repo.GetSubscriptionByOrder(ctx, entity.OrderID)
	if errors.Is(err, models.ErrNotFound) {
		s.log.Warn("webhook for unknown order", slog.String("order_id", entity.OrderID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.activate(ctx, sub, entity.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
