// Package paymentprovider клиент платёжного шлюза: создание заказов и
// проверка подписей платежей и вебхуков.
package paymentprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/magabrotheeeer/medical-education/internal/config"
)

// GatewayName имя шлюза, сохраняемое в подписке.
const GatewayName = "razorpay"

// ErrUnavailable возвращается, пока автомат защиты разомкнут.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Client выполняет запросы к шлюзу через автомат защиты.
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	apiURL        string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker[*Order]
}

// NewClient создаёт клиент шлюза по настройкам cfg.
func NewClient(cfg config.Payment) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		apiURL:        strings.TrimRight(cfg.APIURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*Order](gobreaker.Settings{
			Name:        "payment-gateway",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// KeyID публичный ключ, который фронтенд передаёт в виджет оплаты.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateOrder создаёт заказ на сумму в минимальных единицах валюты.
func (c *Client) CreateOrder(ctx context.Context, params OrderRequest) (*Order, error) {
	const op = "paymentprovider.CreateOrder"
	order, err := c.breaker.Execute(func() (*Order, error) {
		req, err := c.newRequest(ctx, http.MethodPost, "/orders", params)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, errors.New("unexpected status: " + resp.Status)
		}
		var order Order
		if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
			return nil, err
		}
		return &order, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// VerifyPayment проверяет подпись платежа: HMAC-SHA256 от "order_id|payment_id"
// на секретном ключе в шестнадцатеричной записи.
func (c *Client) VerifyPayment(orderID, paymentID, signature string) bool {
	return validSignature(c.keySecret, orderID+"|"+paymentID, signature)
}

// VerifyWebhook проверяет подпись тела вебхука секретом вебхуков.
// Без настроенного секрета все вебхуки отклоняются.
func (c *Client) VerifyWebhook(body []byte, signature string) bool {
	if c.webhookSecret == "" {
		return false
	}
	return validSignature(c.webhookSecret, string(body), signature)
}

// Sign возвращает подпись payload секретом secret.
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret, payload, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
