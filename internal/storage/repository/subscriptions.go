package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const subscriptionColumns = `s.id, s.user_id, s.package_id, p.package_name, s.billing_cycle, s.amount,
	s.currency, s.start_date, s.expiry_date, s.status, s.payment_gateway, s.gateway_order_id,
	s.gateway_payment_id, s.auto_renew, s.previous_subscription_id, s.cancelled_at, s.created_at`

const subscriptionFrom = ` FROM subscriptions s JOIN packages p ON p.id = s.package_id`

func scanSubscription(row scanner) (models.Subscription, error) {
	var (
		sub                      models.Subscription
		start, expiry, cancelled sql.NullTime
		previous                 sql.NullString
	)
	err := row.Scan(&sub.ID, &sub.UserID, &sub.PackageID, &sub.PackageName, &sub.BillingCycle, &sub.Amount,
		&sub.Currency, &start, &expiry, &sub.Status, &sub.PaymentGateway, &sub.GatewayOrderID,
		&sub.GatewayPaymentID, &sub.AutoRenew, &previous, &cancelled, &sub.CreatedAt)
	if err != nil {
		return models.Subscription{}, err
	}
	if start.Valid {
		sub.StartDate = &start.Time
	}
	if expiry.Valid {
		sub.ExpiryDate = &expiry.Time
	}
	if cancelled.Valid {
		sub.CancelledAt = &cancelled.Time
	}
	sub.PreviousSubscriptionID = previous.String
	return sub, nil
}

func (s *Storage) querySubscriptions(ctx context.Context, where string, args ...any) ([]models.Subscription, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+subscriptionColumns+subscriptionFrom+` `+where, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := []models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

// CreateSubscription сохраняет подписку и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "storage.CreateSubscription"
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO subscriptions (user_id, package_id, billing_cycle, amount, currency, start_date,
			expiry_date, status, payment_gateway, gateway_order_id, gateway_payment_id, auto_renew,
			previous_subscription_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		sub.UserID, sub.PackageID, sub.BillingCycle, sub.Amount, sub.Currency, sub.StartDate,
		sub.ExpiryDate, sub.Status, sub.PaymentGateway, sub.GatewayOrderID, sub.GatewayPaymentID,
		sub.AutoRenew, nullString(sub.PreviousSubscriptionID)).Scan(&id)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%s: duplicate order: %w", op, models.ErrBadInput)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+subscriptionFrom+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &sub, nil
}

// GetSubscriptionByOrder возвращает подписку по ID заказа платёжного шлюза.
func (s *Storage) GetSubscriptionByOrder(ctx context.Context, orderID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByOrder"
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+subscriptionFrom+` WHERE s.gateway_order_id = $1`, orderID))
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &sub, nil
}

// ActivateSubscription переводит ожидающую оплаты подписку в active.
// Возвращает ErrNotFound, если подписки нет или она уже не pending.
func (s *Storage) ActivateSubscription(ctx context.Context, id, paymentID string, start, expiry time.Time) error {
	const op = "storage.ActivateSubscription"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE subscriptions SET status = $2, gateway_payment_id = $3, start_date = $4, expiry_date = $5
		WHERE id = $1 AND status = $6`,
		id, models.SubscriptionActive, paymentID, start, expiry, models.SubscriptionPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// ActiveSubscriptions возвращает действующие на момент now подписки пользователя.
func (s *Storage) ActiveSubscriptions(ctx context.Context, userID string, now time.Time) ([]models.Subscription, error) {
	const op = "storage.ActiveSubscriptions"
	res, err := s.querySubscriptions(ctx, `WHERE s.user_id = $1 AND s.status = $2 AND s.expiry_date > $3
		ORDER BY s.expiry_date DESC`, userID, models.SubscriptionActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// HasActiveSubscription сообщает, есть ли у пользователя действующая подписка.
func (s *Storage) HasActiveSubscription(ctx context.Context, userID string, now time.Time) (bool, error) {
	const op = "storage.HasActiveSubscription"
	var ok bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions WHERE user_id = $1 AND status = $2 AND expiry_date > $3
		)`, userID, models.SubscriptionActive, now).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// SubscriptionHistory возвращает все подписки пользователя, новые первыми.
func (s *Storage) SubscriptionHistory(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "storage.SubscriptionHistory"
	res, err := s.querySubscriptions(ctx, `WHERE s.user_id = $1 ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// SetSubscriptionStatus меняет статус подписки; для cancelled фиксирует время отмены.
func (s *Storage) SetSubscriptionStatus(ctx context.Context, id string, status models.SubscriptionStatus, at time.Time) error {
	const op = "storage.SetSubscriptionStatus"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE subscriptions SET status = $2,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancelled_at END,
			auto_renew = CASE WHEN $2 = 'cancelled' THEN FALSE ELSE auto_renew END
		WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// SetAutoRenew включает или выключает автопродление.
func (s *Storage) SetAutoRenew(ctx context.Context, id string, autoRenew bool) error {
	const op = "storage.SetAutoRenew"
	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions SET auto_renew = $2 WHERE id = $1`, id, autoRenew)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// ExpireSubscriptions переводит истёкшие к now активные подписки в expired и
// возвращает их число.
func (s *Storage) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.ExpireSubscriptions"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE subscriptions SET status = $1 WHERE status = $2 AND expiry_date <= $3`,
		models.SubscriptionExpired, models.SubscriptionActive, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// UpcomingRenewals возвращает активные подписки, истекающие в (from, to],
// о которых ещё не напоминали.
func (s *Storage) UpcomingRenewals(ctx context.Context, from, to time.Time) ([]models.RenewalNotice, error) {
	const op = "storage.UpcomingRenewals"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT s.id, u.email, u.username, p.package_name, s.expiry_date, s.auto_renew
		FROM subscriptions s
		JOIN users u ON u.uid = s.user_id
		JOIN packages p ON p.id = s.package_id
		WHERE s.status = $1 AND s.expiry_date > $2 AND s.expiry_date <= $3 AND s.reminded_at IS NULL
		ORDER BY s.expiry_date`, models.SubscriptionActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.RenewalNotice{}
	for rows.Next() {
		var n models.RenewalNotice
		if err := rows.Scan(&n.SubscriptionID, &n.Email, &n.Username, &n.PackageName, &n.ExpiryDate, &n.AutoRenew); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkReminded запоминает, что напоминание о продлении подписки отправлено.
func (s *Storage) MarkReminded(ctx context.Context, id string, at time.Time) error {
	const op = "storage.MarkReminded"
	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions SET reminded_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// SubscriptionStats возвращает число подписок и выручку по статусам.
func (s *Storage) SubscriptionStats(ctx context.Context) ([]models.SubscriptionStat, error) {
	const op = "storage.SubscriptionStats"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT status, COUNT(*)::int, COALESCE(SUM(amount), 0)::float8
		FROM subscriptions GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.SubscriptionStat{}
	for rows.Next() {
		var st models.SubscriptionStat
		if err := rows.Scan(&st.Status, &st.Count, &st.TotalRevenue); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
