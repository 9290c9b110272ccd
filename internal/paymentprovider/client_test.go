package paymentprovider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medical-education/internal/config"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var req OrderRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, int64(49900), req.Amount)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"order_1","amount":49900,"currency":"INR","receipt":"r1","status":"created"}`))
	}))
	defer srv.Close()

	c := NewClient(config.Payment{APIURL: srv.URL + "/", KeyID: "key", KeySecret: "secret", Timeout: time.Second})
	order, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 49900, Currency: "INR", Receipt: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
}

func TestCreateOrder_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.Payment{APIURL: srv.URL, Timeout: time.Second})
	for range 5 {
		_, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 1})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	_, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load())
}

func TestVerifyPayment(t *testing.T) {
	c := NewClient(config.Payment{KeySecret: "secret"})
	sig := Sign("secret", "order_1|pay_1")

	assert.True(t, c.VerifyPayment("order_1", "pay_1", sig))
	assert.False(t, c.VerifyPayment("order_1", "pay_2", sig))
	assert.False(t, c.VerifyPayment("order_1", "pay_1", "deadbeef"))
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	c := NewClient(config.Payment{WebhookSecret: "hook"})
	assert.True(t, c.VerifyWebhook(body, Sign("hook", string(body))))
	assert.False(t, c.VerifyWebhook(body, Sign("other", string(body))))

	unset := NewClient(config.Payment{})
	assert.False(t, unset.VerifyWebhook(body, Sign("", string(body))))
}

func TestSign_KnownVector(t *testing.T) {
	// RFC 4231, тест 2
	assert.Equal(t,
		"5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
		Sign("Jefe", "what do ya want for nothing?"))
}
