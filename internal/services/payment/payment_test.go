package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medical-education/internal/models"
	"github.com/magabrotheeeer/medical-education/internal/paymentprovider"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Package), args.Error(1)
}

func (m *RepoMock) ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Package), args.Error(1)
}

func (m *RepoMock) CreatePackage(ctx context.Context, p models.Package) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) UpdatePackage(ctx context.Context, p models.Package) error {
	return m.Called(ctx, p).Error(0)
}

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	args := m.Called(ctx, sub)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) GetSubscriptionByOrder(ctx context.Context, orderID string) (*models.Subscription, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ActivateSubscription(ctx context.Context, id, paymentID string, start, expiry time.Time) error {
	return m.Called(ctx, id, paymentID, start, expiry).Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateOrder(ctx context.Context, params paymentprovider.OrderRequest) (*paymentprovider.Order, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Order), args.Error(1)
}

func (m *GatewayMock) VerifyPayment(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

func (m *GatewayMock) VerifyWebhook(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}

var testNow = time.Date(2025, time.January, 31, 10, 0, 0, 0, time.UTC)

func newTestService(repo *RepoMock, gw *GatewayMock) *PaymentService {
	s := New(repo, gw, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return testNow }
	s.receipt = func() string { return "receipt_1" }
	return s
}

func testPackage() *models.Package {
	return &models.Package{
		ID:       "p1",
		IsActive: true,
		PricingOptions: []models.PricingOption{
			{BillingCycle: models.CycleMonthly, Amount: 499.99},
			{BillingCycle: models.CycleYearly, Amount: 4999, Currency: "usd"},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	repo, gw := new(RepoMock), new(GatewayMock)

	repo.On("GetPackage", ctx, "p1").Return(testPackage(), nil)
	gw.On("CreateOrder", ctx, paymentprovider.OrderRequest{
		Amount:   49999,
		Currency: "INR",
		Receipt:  "receipt_1",
		Notes:    map[string]string{"user_id": "u1", "package_id": "p1"},
	}).Return(&paymentprovider.Order{ID: "order_1", Amount: 49999}, nil)
	repo.On("CreateSubscription", ctx, models.Subscription{
		UserID:         "u1",
		PackageID:      "p1",
		BillingCycle:   models.CycleMonthly,
		Amount:         499.99,
		Currency:       "INR",
		Status:         models.SubscriptionPending,
		PaymentGateway: paymentprovider.GatewayName,
		GatewayOrderID: "order_1",
		AutoRenew:      true,
	}).Return("s1", nil)

	got, err := newTestService(repo, gw).CreateOrder(ctx, "u1", models.DummyOrder{
		PackageID: "p1", BillingCycle: models.CycleMonthly, AutoRenew: true,
	})
	require.NoError(t, err)
	assert.Equal(t, &models.Order{
		OrderID: "order_1", Amount: 49999, Currency: "INR", Receipt: "receipt_1", SubscriptionID: "s1",
	}, got)
	repo.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestCreateOrder_Rejected(t *testing.T) {
	ctx := context.Background()
	inactive := testPackage()
	inactive.IsActive = false

	tests := []struct {
		name    string
		pkg     *models.Package
		pkgErr  error
		cycle   models.BillingCycle
		wantErr error
	}{
		{name: "missing package", pkgErr: models.ErrNotFound, cycle: models.CycleMonthly, wantErr: models.ErrNotFound},
		{name: "inactive package", pkg: inactive, cycle: models.CycleMonthly, wantErr: models.ErrBadInput},
		{name: "cycle without pricing", pkg: testPackage(), cycle: models.CycleQuarterly, wantErr: models.ErrBadInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, gw := new(RepoMock), new(GatewayMock)
			if tt.pkg != nil {
				repo.On("GetPackage", ctx, "p1").Return(tt.pkg, nil)
			} else {
				repo.On("GetPackage", ctx, "p1").Return(nil, tt.pkgErr)
			}
			_, err := newTestService(repo, gw).CreateOrder(ctx, "u1", models.DummyOrder{PackageID: "p1", BillingCycle: tt.cycle})
			require.ErrorIs(t, err, tt.wantErr)
			gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateOrder_GatewayError(t *testing.T) {
	ctx := context.Background()
	repo, gw := new(RepoMock), new(GatewayMock)
	repo.On("GetPackage", ctx, "p1").Return(testPackage(), nil)
	gw.On("CreateOrder", ctx, mock.Anything).Return(nil, paymentprovider.ErrUnavailable)

	_, err := newTestService(repo, gw).CreateOrder(ctx, "u1", models.DummyOrder{PackageID: "p1", BillingCycle: models.CycleYearly})
	require.ErrorIs(t, err, paymentprovider.ErrUnavailable)
	repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	req := models.PaymentVerification{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}
	expiry := time.Date(2025, time.February, 28, 10, 0, 0, 0, time.UTC)

	t.Run("activates pending subscription", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyPayment", "order_1", "pay_1", "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_1").Return(&models.Subscription{
			ID: "s1", UserID: "u1", BillingCycle: models.CycleMonthly, Status: models.SubscriptionPending,
		}, nil)
		repo.On("ActivateSubscription", ctx, "s1", "pay_1", testNow, expiry).Return(nil)
		repo.On("GetSubscription", ctx, "s1").Return(&models.Subscription{ID: "s1", Status: models.SubscriptionActive}, nil)

		got, err := newTestService(repo, gw).Verify(ctx, "u1", req)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionActive, got.Status)
		repo.AssertExpectations(t)
	})

	t.Run("invalid signature", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyPayment", "order_1", "pay_1", "sig").Return(false)

		_, err := newTestService(repo, gw).Verify(ctx, "u1", req)
		require.ErrorIs(t, err, models.ErrBadInput)
		repo.AssertNotCalled(t, "GetSubscriptionByOrder", mock.Anything, mock.Anything)
	})

	t.Run("foreign order", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyPayment", "order_1", "pay_1", "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_1").Return(&models.Subscription{ID: "s1", UserID: "u2"}, nil)

		_, err := newTestService(repo, gw).Verify(ctx, "u1", req)
		require.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("repeated verification", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyPayment", "order_1", "pay_1", "sig").Return(true)
		active := &models.Subscription{ID: "s1", UserID: "u1", Status: models.SubscriptionActive, GatewayPaymentID: "pay_1"}
		repo.On("GetSubscriptionByOrder", ctx, "order_1").Return(active, nil)
		repo.On("GetSubscription", ctx, "s1").Return(active, nil)

		got, err := newTestService(repo, gw).Verify(ctx, "u1", req)
		require.NoError(t, err)
		assert.Equal(t, active, got)
		repo.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("activated concurrently with same payment", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyPayment", "order_1", "pay_1", "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_1").Return(&models.Subscription{
			ID: "s1", UserID: "u1", BillingCycle: models.CycleMonthly, Status: models.SubscriptionPending,
		}, nil)
		repo.On("ActivateSubscription", ctx, "s1", "pay_1", testNow, expiry).Return(models.ErrNotFound)
		active := &models.Subscription{ID: "s1", UserID: "u1", Status: models.SubscriptionActive, GatewayPaymentID: "pay_1"}
		repo.On("GetSubscription", ctx, "s1").Return(active, nil)

		got, err := newTestService(repo, gw).Verify(ctx, "u1", req)
		require.NoError(t, err)
		assert.Equal(t, active, got)
	})

	t.Run("activated concurrently with other payment", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyPayment", "order_1", "pay_1", "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_1").Return(&models.Subscription{
			ID: "s1", UserID: "u1", BillingCycle: models.CycleMonthly, Status: models.SubscriptionPending,
		}, nil)
		repo.On("ActivateSubscription", ctx, "s1", "pay_1", testNow, expiry).Return(models.ErrNotFound)
		repo.On("GetSubscription", ctx, "s1").Return(&models.Subscription{
			ID: "s1", UserID: "u1", Status: models.SubscriptionActive, GatewayPaymentID: "pay_2",
		}, nil)

		_, err := newTestService(repo, gw).Verify(ctx, "u1", req)
		require.ErrorIs(t, err, models.ErrBadInput)
		assert.NotErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("cancelled subscription", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyPayment", "order_1", "pay_1", "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_1").Return(&models.Subscription{
			ID: "s1", UserID: "u1", Status: models.SubscriptionCancelled,
		}, nil)

		_, err := newTestService(repo, gw).Verify(ctx, "u1", req)
		require.ErrorIs(t, err, models.ErrBadInput)
	})
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()
	captured := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","status":"captured"}}}}`)

	t.Run("captured payment activates", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyWebhook", captured, "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_9").Return(&models.Subscription{
			ID: "s9", BillingCycle: models.CycleYearly, Status: models.SubscriptionPending,
		}, nil)
		repo.On("ActivateSubscription", ctx, "s9", "pay_9", testNow,
			time.Date(2026, time.January, 31, 10, 0, 0, 0, time.UTC)).Return(nil)

		require.NoError(t, newTestService(repo, gw).HandleWebhook(ctx, captured, "sig"))
		repo.AssertExpectations(t)
	})

	t.Run("bad signature", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyWebhook", captured, "bad").Return(false)

		err := newTestService(repo, gw).HandleWebhook(ctx, captured, "bad")
		require.ErrorIs(t, err, models.ErrBadInput)
	})

	t.Run("other event", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		body := []byte(`{"event":"order.paid"}`)
		gw.On("VerifyWebhook", body, "sig").Return(true)

		require.NoError(t, newTestService(repo, gw).HandleWebhook(ctx, body, "sig"))
		repo.AssertNotCalled(t, "GetSubscriptionByOrder", mock.Anything, mock.Anything)
	})

	t.Run("unknown order", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyWebhook", captured, "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_9").Return(nil, models.ErrNotFound)

		require.NoError(t, newTestService(repo, gw).HandleWebhook(ctx, captured, "sig"))
	})

	t.Run("storage error", func(t *testing.T) {
		repo, gw := new(RepoMock), new(GatewayMock)
		gw.On("VerifyWebhook", captured, "sig").Return(true)
		repo.On("GetSubscriptionByOrder", ctx, "order_9").Return(nil, errors.New("db down"))

		require.Error(t, newTestService(repo, gw).HandleWebhook(ctx, captured, "sig"))
	})
}

func TestCreatePackage(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes currency and defaults to active", func(t *testing.T) {
		repo := new(RepoMock)
		want := models.Package{
			PackageName: "Pro",
			PricingOptions: []models.PricingOption{
				{BillingCycle: models.CycleMonthly, Amount: 10, Currency: "INR"},
				{BillingCycle: models.CycleYearly, Amount: 100, Currency: "USD"},
			},
			IsActive: true,
		}
		repo.On("CreatePackage", ctx, want).Return("p1", nil)

		got, err := newTestService(repo, new(GatewayMock)).CreatePackage(ctx, models.DummyPackage{
			PackageName: " Pro ",
			PricingOptions: []models.PricingOption{
				{BillingCycle: models.CycleMonthly, Amount: 10},
				{BillingCycle: models.CycleYearly, Amount: 100, Currency: "usd"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "p1", got.ID)
	})

	t.Run("duplicate cycle", func(t *testing.T) {
		repo := new(RepoMock)
		_, err := newTestService(repo, new(GatewayMock)).CreatePackage(ctx, models.DummyPackage{
			PackageName: "Pro",
			PricingOptions: []models.PricingOption{
				{BillingCycle: models.CycleMonthly, Amount: 10},
				{BillingCycle: models.CycleMonthly, Amount: 12},
			},
		})
		require.ErrorIs(t, err, models.ErrBadInput)
		repo.AssertNotCalled(t, "CreatePackage", mock.Anything, mock.Anything)
	})
}

func TestUpdatePackage_KeepsActiveFlag(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	repo.On("GetPackage", ctx, "p1").Return(&models.Package{ID: "p1", PackageName: "Old", IsActive: false}, nil)
	repo.On("UpdatePackage", ctx, mock.MatchedBy(func(p models.Package) bool {
		return p.ID == "p1" && p.PackageName == "New" && !p.IsActive
	})).Return(nil)

	got, err := newTestService(repo, new(GatewayMock)).UpdatePackage(ctx, "p1", models.DummyPackage{
		PackageName:    "New",
		PricingOptions: []models.PricingOption{{BillingCycle: models.CycleQuarterly, Amount: 30}},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.PackageName)
	repo.AssertExpectations(t)
}
