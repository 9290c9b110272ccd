// Package payment создаёт заказы у платёжного шлюза, подтверждает оплату и
// активирует подписки, а также управляет пакетами подписки.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/medical-education/internal/models"
	"github.com/magabrotheeeer/medical-education/internal/paymentprovider"
)

const defaultCurrency = "INR"

// Repository определяет методы хранилища пакетов и подписок.
type Repository interface {
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error)
	CreatePackage(ctx context.Context, p models.Package) (string, error)
	UpdatePackage(ctx context.Context, p models.Package) error
	CreateSubscription(ctx context.Context, sub models.Subscription) (string, error)
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	GetSubscriptionByOrder(ctx context.Context, orderID string) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, id, paymentID string, start, expiry time.Time) error
}

// Gateway — платёжный шлюз.
type Gateway interface {
	CreateOrder(ctx context.Context, params paymentprovider.OrderRequest) (*paymentprovider.Order, error)
	VerifyPayment(orderID, paymentID, signature string) bool
	VerifyWebhook(body []byte, signature string) bool
}

// PaymentService реализует оплату подписок.
type PaymentService struct {
	repo    Repository
	gateway Gateway
	log     *slog.Logger
	now     func() time.Time
	receipt func() string
}

// New создает новый экземпляр PaymentService.
func New(repo Repository, gateway Gateway, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:    repo,
		gateway: gateway,
		log:     log,
		now:     time.Now,
		receipt: func() string { return "receipt_" + uuid.NewString() },
	}
}

// minorUnits переводит сумму в минимальные единицы валюты.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder создаёт заказ у шлюза по цене выбранного периода и сохраняет
// подписку в статусе pending.
func (s *PaymentService) CreateOrder(ctx context.Context, userID string, req models.DummyOrder) (*models.Order, error) {
	const op = "payment.CreateOrder"

	pkg, err := s.repo.GetPackage(ctx, req.PackageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !pkg.IsActive {
		return nil, fmt.Errorf("%s: package %s is not active: %w", op, pkg.ID, models.ErrBadInput)
	}
	pricing, ok := pkg.Pricing(req.BillingCycle)
	if !ok {
		return nil, fmt.Errorf("%s: no pricing for %q: %w", op, req.BillingCycle, models.ErrBadInput)
	}
	currency := strings.ToUpper(pricing.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	receipt := s.receipt()
	order, err := s.gateway.CreateOrder(ctx, paymentprovider.OrderRequest{
		Amount:   minorUnits(pricing.Amount),
		Currency: currency,
		Receipt:  receipt,
		Notes:    map[string]string{"user_id": userID, "package_id": pkg.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subID, err := s.repo.CreateSubscription(ctx, models.Subscription{
		UserID:         userID,
		PackageID:      pkg.ID,
		BillingCycle:   req.BillingCycle,
		Amount:         pricing.Amount,
		Currency:       currency,
		Status:         models.SubscriptionPending,
		PaymentGateway: paymentprovider.GatewayName,
		GatewayOrderID: order.ID,
		AutoRenew:      req.AutoRenew,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment order created",
		slog.String("order_id", order.ID),
		slog.String("subscription_id", subID),
		slog.String("user", userID))

	return &models.Order{
		OrderID:        order.ID,
		Amount:         order.Amount,
		Currency:       currency,
		Receipt:        receipt,
		SubscriptionID: subID,
	}, nil
}

// Verify проверяет подпись оплаты и активирует подписку пользователя.
// Повторное подтверждение того же платежа возвращает уже активную подписку.
func (s *PaymentService) Verify(ctx context.Context, userID string, req models.PaymentVerification) (*models.Subscription, error) {
	const op = "payment.Verify"

	if !s.gateway.VerifyPayment(req.OrderID, req.PaymentID, req.Signature) {
		return nil, fmt.Errorf("%s: invalid signature: %w", op, models.ErrBadInput)
	}
	sub, err := s.repo.GetSubscriptionByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("%s: order %s: %w", op, req.OrderID, models.ErrForbidden)
	}
	if err := s.activate(ctx, sub, req.PaymentID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.repo.GetSubscription(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// activate переводит pending-подписку в active с периодом от текущего момента.
func (s *PaymentService) activate(ctx context.Context, sub *models.Subscription, paymentID string) error {
	switch sub.Status {
	case models.SubscriptionPending:
	case models.SubscriptionActive:
		if sub.GatewayPaymentID == paymentID {
			return nil
		}
		return fmt.Errorf("subscription %s already paid: %w", sub.ID, models.ErrBadInput)
	default:
		return fmt.Errorf("subscription %s is %s: %w", sub.ID, sub.Status, models.ErrBadInput)
	}

	start := s.now()
	expiry, ok := sub.BillingCycle.Expiry(start)
	if !ok {
		return fmt.Errorf("unknown billing cycle %q: %w", sub.BillingCycle, models.ErrBadInput)
	}
	err := s.repo.ActivateSubscription(ctx, sub.ID, paymentID, start, expiry)
	if errors.Is(err, models.ErrNotFound) {
		// подписку уже активировал параллельный verify или webhook
		cur, getErr := s.repo.GetSubscription(ctx, sub.ID)
		if getErr != nil {
			return getErr
		}
		if cur.Status == models.SubscriptionActive && cur.GatewayPaymentID == paymentID {
			return nil
		}
		return fmt.Errorf("subscription %s is %s: %w", sub.ID, cur.Status, models.ErrBadInput)
	}
	if err != nil {
		return err
	}
	s.log.Info("subscription activated",
		slog.String("subscription_id", sub.ID),
		slog.String("payment_id", paymentID),
		slog.Time("expiry", expiry))
	return nil
}
