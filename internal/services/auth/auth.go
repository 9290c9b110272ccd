// Package services содержит логику регистрации и входа пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/medical-education/internal/lib/jwt"
	"github.com/magabrotheeeer/medical-education/internal/lib/password"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его ID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по электронной почте.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// TokenMaker выпускает и проверяет JWT.
type TokenMaker interface {
	GenerateToken(userUID, username, role string) (string, error)
	ParseToken(tokenStr string) (*jwt.Claims, error)
}

// AuthService отвечает за регистрацию, вход и проверку токенов.
type AuthService struct {
	users    UserRepository
	jwtMaker TokenMaker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker TokenMaker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает пользователя с ролью "user". Занятые почта или имя дают ErrBadInput.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "auth.Register"
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, models.ErrBadInput, err)
	}
	uid, err := s.users.RegisterUser(ctx, models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(username),
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_uid", uid))
	return uid, nil
}

// Login проверяет пароль и возвращает JWT и пользователя.
// Неизвестная почта и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: invalid credentials: %w", op, models.ErrUnauthorized)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: invalid credentials: %w", op, models.ErrUnauthorized)
	}
	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken проверяет JWT и возвращает пользователя из его утверждений.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, error) {
	const op = "auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrUnauthorized, err)
	}
	return &models.User{
		UUID:     claims.UserUID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// Me возвращает профиль пользователя.
func (s *AuthService) Me(ctx context.Context, userUID string) (*models.User, error) {
	const op = "auth.Me"
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
