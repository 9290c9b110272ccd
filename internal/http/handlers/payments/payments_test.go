package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

const packageID = "4f3e2d1c-0b9a-4877-a665-544332211009"

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) CreateOrder(ctx context.Context, userID string, req models.DummyOrder) (*models.Order, error) {
	args := m.Called(ctx, userID, req)
	res, _ := args.Get(0).(*models.Order)
	return res, args.Error(1)
}

func (m *ServiceMock) Verify(ctx context.Context, userID string, req models.PaymentVerification) (*models.Subscription, error) {
	args := m.Called(ctx, userID, req)
	res, _ := args.Get(0).(*models.Subscription)
	return res, args.Error(1)
}

func (m *ServiceMock) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	return m.Called(ctx, body, signature).Error(0)
}

func (m *ServiceMock) ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error) {
	args := m.Called(ctx, activeOnly)
	res, _ := args.Get(0).([]models.Package)
	return res, args.Error(1)
}

func (m *ServiceMock) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*models.Package)
	return res, args.Error(1)
}

func (m *ServiceMock) CreatePackage(ctx context.Context, req models.DummyPackage) (*models.Package, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*models.Package)
	return res, args.Error(1)
}

func (m *ServiceMock) UpdatePackage(ctx context.Context, id string, req models.DummyPackage) (*models.Package, error) {
	args := m.Called(ctx, id, req)
	res, _ := args.Get(0).(*models.Package)
	return res, args.Error(1)
}

func newRouter(svc *ServiceMock) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, "rzp_test_key")
	r := chi.NewRouter()
	r.Post("/payments/webhook", h.Webhook)
	r.Get("/packages", h.Packages)
	r.Get("/packages/{id}", h.Package)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middlewarectx.UserUID, "u1")))
			})
		})
		r.Post("/payments/orders", h.CreateOrder)
		r.Post("/payments/verify", h.Verify)
		r.Get("/admin/packages", h.AllPackages)
		r.Post("/admin/packages", h.CreatePackage)
		r.Put("/admin/packages/{id}", h.UpdatePackage)
	})
	return r
}

func send(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	svc := new(ServiceMock)
	req := models.DummyOrder{PackageID: packageID, BillingCycle: models.CycleQuarterly}
	svc.On("CreateOrder", mock.Anything, "u1", req).Return(&models.Order{
		OrderID:  "order_1",
		Amount:   129900,
		Currency: "INR",
	}, nil)
	router := newRouter(svc)

	body := `{"package_id":"` + packageID + `","billing_cycle":"quarterly"}`
	rec := send(router, httptest.NewRequest(http.MethodPost, "/payments/orders", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var got struct {
		Data struct {
			OrderID string `json:"order_id"`
			Amount  int64  `json:"amount"`
			KeyID   string `json:"key_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "order_1", got.Data.OrderID)
	assert.Equal(t, int64(129900), got.Data.Amount)
	assert.Equal(t, "rzp_test_key", got.Data.KeyID)

	bad := `{"package_id":"` + packageID + `","billing_cycle":"weekly"}`
	rec = send(router, httptest.NewRequest(http.MethodPost, "/payments/orders", bytes.NewBufferString(bad)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "activated", wantStatus: http.StatusOK},
		{name: "bad signature", err: models.ErrBadInput, wantStatus: http.StatusBadRequest},
		{name: "foreign order", err: models.ErrForbidden, wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			var sub *models.Subscription
			if tt.err == nil {
				sub = &models.Subscription{ID: "s1", Status: models.SubscriptionActive}
			}
			svc.On("Verify", mock.Anything, "u1", models.PaymentVerification{
				OrderID: "order_1", PaymentID: "pay_1", Signature: "abc",
			}).Return(sub, tt.err)

			body := `{"order_id":"order_1","payment_id":"pay_1","signature":"abc"}`
			rec := send(newRouter(svc), httptest.NewRequest(http.MethodPost, "/payments/verify", bytes.NewBufferString(body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestWebhook(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	svc := new(ServiceMock)
	svc.On("HandleWebhook", mock.Anything, body, "good").Return(nil)
	svc.On("HandleWebhook", mock.Anything, body, "bad").Return(models.ErrBadInput)
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, "good")
	assert.Equal(t, http.StatusOK, send(router, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, "bad")
	assert.Equal(t, http.StatusBadRequest, send(router, req).Code)
	svc.AssertExpectations(t)
}

func TestPackages(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ListPackages", mock.Anything, true).Return([]models.Package{{ID: packageID, IsActive: true}}, nil)
	svc.On("ListPackages", mock.Anything, false).Return([]models.Package{}, nil)
	svc.On("GetPackage", mock.Anything, packageID).Return(nil, models.ErrNotFound)
	svc.On("CreatePackage", mock.Anything, mock.MatchedBy(func(p models.DummyPackage) bool {
		return p.PackageName == "Pro" && len(p.PricingOptions) == 1
	})).Return(&models.Package{ID: packageID}, nil)
	router := newRouter(svc)

	assert.Equal(t, http.StatusOK, send(router, httptest.NewRequest(http.MethodGet, "/packages", nil)).Code)
	assert.Equal(t, http.StatusOK, send(router, httptest.NewRequest(http.MethodGet, "/admin/packages", nil)).Code)
	assert.Equal(t, http.StatusNotFound, send(router, httptest.NewRequest(http.MethodGet, "/packages/"+packageID, nil)).Code)

	body := `{"package_name":"Pro","pricing_options":[{"billing_cycle":"monthly","amount":499}]}`
	assert.Equal(t, http.StatusCreated, send(router, httptest.NewRequest(http.MethodPost, "/admin/packages", bytes.NewBufferString(body))).Code)

	noPricing := `{"package_name":"Pro","pricing_options":[]}`
	assert.Equal(t, http.StatusBadRequest, send(router, httptest.NewRequest(http.MethodPut, "/admin/packages/"+packageID, bytes.NewBufferString(noPricing))).Code)
	svc.AssertExpectations(t)
}
