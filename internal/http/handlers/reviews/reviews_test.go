package reviews

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

const (
	itemID   = "1e2d3c4b-5a69-4788-9a0b-c1d2e3f4a5b6"
	reviewID = "7a6b5c4d-3e2f-4a1b-8c9d-0e1f2a3b4c5d"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Latest(ctx context.Context, itemID string) ([]models.Review, error) {
	args := m.Called(ctx, itemID)
	res, _ := args.Get(0).([]models.Review)
	return res, args.Error(1)
}

func (m *ServiceMock) Mine(ctx context.Context, userID, itemID string) (*models.Review, error) {
	args := m.Called(ctx, userID, itemID)
	res, _ := args.Get(0).(*models.Review)
	return res, args.Error(1)
}

func (m *ServiceMock) Create(ctx context.Context, userID string, req models.DummyReview) (*models.Review, error) {
	args := m.Called(ctx, userID, req)
	res, _ := args.Get(0).(*models.Review)
	return res, args.Error(1)
}

func (m *ServiceMock) Update(ctx context.Context, userID, reviewID string, patch models.ReviewPatch) (*models.Review, error) {
	args := m.Called(ctx, userID, reviewID, patch)
	res, _ := args.Get(0).(*models.Review)
	return res, args.Error(1)
}

func (m *ServiceMock) Delete(ctx context.Context, userID, reviewID string) error {
	return m.Called(ctx, userID, reviewID).Error(0)
}

func newRouter(svc *ServiceMock) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middlewarectx.UserUID, "u1")))
		})
	})
	r.Get("/reviews/item/{itemID}", h.Latest)
	r.Get("/reviews/item/{itemID}/mine", h.Mine)
	r.Post("/reviews", h.Create)
	r.Patch("/reviews/{id}", h.Update)
	r.Delete("/reviews/{id}", h.Delete)
	return r
}

func TestHandler(t *testing.T) {
	rating := 4
	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		setup      func(*ServiceMock)
		wantStatus int
	}{
		{
			name:   "latest",
			method: http.MethodGet,
			url:    "/reviews/item/" + itemID,
			setup: func(m *ServiceMock) {
				m.On("Latest", mock.Anything, itemID).Return([]models.Review{{ID: reviewID, Rating: 5}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "mine missing",
			method: http.MethodGet,
			url:    "/reviews/item/" + itemID + "/mine",
			setup: func(m *ServiceMock) {
				m.On("Mine", mock.Anything, "u1", itemID).Return(nil, models.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "create",
			method: http.MethodPost,
			url:    "/reviews",
			body:   `{"item_id":"` + itemID + `","rating":5,"comment":"clear"}`,
			setup: func(m *ServiceMock) {
				m.On("Create", mock.Anything, "u1", models.DummyReview{ItemID: itemID, Rating: 5, Comment: "clear"}).
					Return(&models.Review{ID: reviewID, Rating: 5}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "create rating out of range",
			method:     http.MethodPost,
			url:        "/reviews",
			body:       `{"item_id":"` + itemID + `","rating":6}`,
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "create duplicate",
			method: http.MethodPost,
			url:    "/reviews",
			body:   `{"item_id":"` + itemID + `","rating":3}`,
			setup: func(m *ServiceMock) {
				m.On("Create", mock.Anything, "u1", models.DummyReview{ItemID: itemID, Rating: 3}).Return(nil, models.ErrBadInput)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "update foreign review",
			method: http.MethodPatch,
			url:    "/reviews/" + reviewID,
			body:   `{"rating":4}`,
			setup: func(m *ServiceMock) {
				m.On("Update", mock.Anything, "u1", reviewID, models.ReviewPatch{Rating: &rating}).Return(nil, models.ErrForbidden)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			url:    "/reviews/" + reviewID,
			setup: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, "u1", reviewID).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.url, bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
