package models

import (
	"time"

	"github.com/magabrotheeeer/medical-education/internal/lib/month"
)

// BillingCycle — период оплаты пакета.
type BillingCycle string

const (
	CycleMonthly    BillingCycle = "monthly"
	CycleQuarterly  BillingCycle = "quarterly"
	CycleBiannually BillingCycle = "biannually"
	CycleYearly     BillingCycle = "yearly"
)

// Months возвращает длину периода в месяцах; 0 для неизвестного периода.
func (c BillingCycle) Months() int {
	switch c {
	case CycleMonthly:
		return 1
	case CycleQuarterly:
		return 3
	case CycleBiannually:
		return 6
	case CycleYearly:
		return 12
	}
	return 0
}

// Expiry возвращает дату окончания периода, начавшегося в start.
func (c BillingCycle) Expiry(start time.Time) (time.Time, bool) {
	n := c.Months()
	if n == 0 {
		return time.Time{}, false
	}
	return month.Add(start, n), true
}

// PricingOption — цена пакета для конкретного периода оплаты.
type PricingOption struct {
	BillingCycle       BillingCycle `json:"billing_cycle" validate:"required,oneof=monthly quarterly biannually yearly"`
	Amount             float64      `json:"amount" validate:"gte=0"`
	DiscountPercentage float64      `json:"discount_percentage,omitempty" validate:"gte=0,lte=100"`
	OriginalAmount     float64      `json:"original_amount,omitempty"`
	Currency           string       `json:"currency,omitempty"`
}

// Package — пакет подписки.
type Package struct {
	ID             string          `json:"id"`
	PackageName    string          `json:"package_name"`
	Description    string          `json:"description,omitempty"`
	Features       []string        `json:"features,omitempty"`
	PricingOptions []PricingOption `json:"pricing_options"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Pricing ищет цену для указанного периода.
func (p *Package) Pricing(cycle BillingCycle) (PricingOption, bool) {
	for _, opt := range p.PricingOptions {
		if opt.BillingCycle == cycle {
			return opt, true
		}
	}
	return PricingOption{}, false
}

// DummyPackage — тело запроса на создание пакета.
type DummyPackage struct {
	PackageName    string          `json:"package_name" validate:"required"`
	Description    string          `json:"description"`
	Features       []string        `json:"features"`
	PricingOptions []PricingOption `json:"pricing_options" validate:"required,min=1,dive"`
	IsActive       *bool           `json:"is_active"`
}

// SubscriptionStatus — состояние подписки.
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCompleted SubscriptionStatus = "completed"
)

// Subscription — подписка пользователя на пакет.
type Subscription struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"user_id"`
	PackageID              string             `json:"package_id"`
	PackageName            string             `json:"package_name,omitempty"`
	BillingCycle           BillingCycle       `json:"billing_cycle"`
	Amount                 float64            `json:"amount"`
	Currency               string             `json:"currency"`
	StartDate              *time.Time         `json:"start_date,omitempty"`
	ExpiryDate             *time.Time         `json:"expiry_date,omitempty"`
	Status                 SubscriptionStatus `json:"status"`
	PaymentGateway         string             `json:"payment_gateway,omitempty"`
	GatewayOrderID         string             `json:"gateway_order_id,omitempty"`
	GatewayPaymentID       string             `json:"gateway_payment_id,omitempty"`
	AutoRenew              bool               `json:"auto_renew"`
	PreviousSubscriptionID string             `json:"previous_subscription_id,omitempty"`
	CancelledAt            *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
}

// SubscriptionStat — агрегат подписок по статусу.
type SubscriptionStat struct {
	Status       SubscriptionStatus `json:"status"`
	Count        int                `json:"count"`
	TotalRevenue float64            `json:"total_revenue"`
}

// RenewalNotice — сообщение о скором окончании подписки для рассылки.
type RenewalNotice struct {
	SubscriptionID string    `json:"subscription_id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	PackageName    string    `json:"package_name"`
	ExpiryDate     time.Time `json:"expiry_date"`
	AutoRenew      bool      `json:"auto_renew"`
}

// Order — заказ у платёжного шлюза.
type Order struct {
	OrderID        string `json:"order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	SubscriptionID string `json:"subscription_id"`
}

// DummyOrder — тело запроса на создание заказа.
type DummyOrder struct {
	PackageID    string       `json:"package_id" validate:"required,uuid"`
	BillingCycle BillingCycle `json:"billing_cycle" validate:"required,oneof=monthly quarterly biannually yearly"`
	AutoRenew    bool         `json:"auto_renew"`
}

// PaymentVerification — тело запроса на подтверждение оплаты.
type PaymentVerification struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}
