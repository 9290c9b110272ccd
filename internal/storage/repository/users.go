package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// RegisterUser сохраняет пользователя и возвращает его UID. Занятые email или
// username возвращают ErrBadInput.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4) RETURNING uid`,
		user.Email, user.Username, user.PasswordHash, user.Role).Scan(&id)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%s: user already exists: %w", op, models.ErrBadInput)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	return s.getUser(ctx, op, `WHERE LOWER(email) = LOWER($1)`, email)
}

// GetUser возвращает пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	return s.getUser(ctx, op, `WHERE uid = $1`, userUID)
}

func (s *Storage) getUser(ctx context.Context, op, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx, `
		SELECT uid, email, username, password_hash, role, created_at FROM users `+where, arg,
	).Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &u, nil
}
