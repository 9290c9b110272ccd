package register

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

type AuthClientMock struct {
	mock.Mock
}

func (m *AuthClientMock) Register(ctx context.Context, email, username, password string) (string, error) {
	args := m.Called(ctx, email, username, password)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := Request{Username: "user1", Password: "password123", Email: "user1@example.com"}

	tests := []struct {
		name           string
		requestBody    any
		mockUID        string
		mockErr        error
		mockCalled     bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid registration",
			requestBody:    valid,
			mockUID:        "u1",
			mockCalled:     true,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "invalid email",
			requestBody:    Request{Username: "user1", Password: "password123", Email: "nope"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email must be a valid email",
		},
		{
			name:           "short password",
			requestBody:    Request{Username: "user1", Password: "123", Email: "user1@example.com"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password must be at least 6",
		},
		{
			name:           "duplicate user",
			requestBody:    valid,
			mockErr:        fmt.Errorf("storage.RegisterUser: %w", models.ErrBadInput),
			mockCalled:     true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "failed to register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthClientMock)
			if tt.mockCalled {
				authMock.On("Register", mock.Anything, valid.Email, valid.Username, valid.Password).
					Return(tt.mockUID, tt.mockErr).Once()
			}

			body, err := json.Marshal(tt.requestBody)
			assert.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), authMock).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, "u1", data["user_uid"])
			}
			authMock.AssertExpectations(t)
		})
	}
}
