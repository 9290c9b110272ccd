package services_test

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

	"github.com/magabrotheeeer/medical-education/internal/lib/jwt"
	"github.com/magabrotheeeer/medical-education/internal/lib/password"
	"github.com/magabrotheeeer/medical-education/internal/models"
	services "github.com/magabrotheeeer/medical-education/internal/services/auth"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock)
		wantUID    string
		wantErr    error
	}{
		{
			name:     "successful registration",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "test@example.com" &&
						user.Username == "testuser" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "password123" &&
						user.Role == models.RoleUser
				})).Return("some-uuid", nil).Once()
			},
			wantUID: "some-uuid",
		},
		{
			name:     "duplicate user",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("RegisterUser", mock.Anything, mock.Anything).Return("", models.ErrBadInput).Once()
			},
			wantErr: models.ErrBadInput,
		},
		{
			name:       "password too long for bcrypt",
			password:   string(make([]byte, 80)),
			setupMocks: func(*UserRepoMock) {},
			wantErr:    models.ErrBadInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := services.NewAuthService(repo, jwt.NewMaker("secret", time.Hour), newLogger())

			uid, err := svc.Register(context.Background(), " Test@Example.com ", "testuser", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, uid)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("correct-horse")
	require.NoError(t, err)
	stored := &models.User{UUID: "u1", Email: "doc@example.com", Username: "doc", PasswordHash: hash, Role: models.RoleAdmin}
	maker := jwt.NewMaker("secret", time.Hour)

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "doc@example.com").Return(stored, nil)

		token, user, err := services.NewAuthService(repo, maker, newLogger()).Login(context.Background(), "DOC@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.UUID)

		claims, err := maker.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserUID)
		assert.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "doc@example.com").Return(stored, nil)

		_, _, err := services.NewAuthService(repo, maker, newLogger()).Login(context.Background(), "doc@example.com", "nope")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, models.ErrNotFound)

		_, _, err := services.NewAuthService(repo, maker, newLogger()).Login(context.Background(), "ghost@example.com", "x")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := new(UserRepoMock)
		dbErr := errors.New("db down")
		repo.On("GetUserByEmail", mock.Anything, "doc@example.com").Return(nil, dbErr)

		_, _, err := services.NewAuthService(repo, maker, newLogger()).Login(context.Background(), "doc@example.com", "x")
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	maker := jwt.NewMaker("secret", time.Hour)
	svc := services.NewAuthService(new(UserRepoMock), maker, newLogger())

	token, err := maker.GenerateToken("u1", "doc", models.RoleUser)
	require.NoError(t, err)

	user, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "doc", user.Username)

	_, err = svc.ValidateToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
