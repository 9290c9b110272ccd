package me

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Me(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func TestMe(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Me", mock.Anything, "u1").Return(&models.User{UUID: "u1", Email: "doc@example.com", Username: "doc", Role: "user"}, nil)
	svc.On("Me", mock.Anything, "gone").Return(nil, models.ErrNotFound)
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	ctx := context.WithValue(req.Context(), middlewarectx.UserUID, "u1")
	ctx = context.WithValue(ctx, middlewarectx.Viewer, models.ViewerAccess{IsLoggedIn: true, IsSubscribed: true})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "doc@example.com", got.Data["email"])
	assert.Equal(t, true, got.Data["is_subscribed"])

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "gone")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
