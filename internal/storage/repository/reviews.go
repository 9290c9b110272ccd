package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const reviewColumns = `r.id, r.item_id, r.user_id, u.username, r.rating, r.comment, r.created_at, r.updated_at`

func scanReview(row scanner) (models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.ItemID, &r.UserID, &r.Username, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// CreateReview сохраняет отзыв. Повторный отзыв того же пользователя на ту же
// сессию возвращает ErrBadInput.
func (s *Storage) CreateReview(ctx context.Context, r models.Review) (string, error) {
	const op = "storage.CreateReview"
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO reviews (item_id, user_id, rating, comment) VALUES ($1, $2, $3, $4) RETURNING id`,
		r.ItemID, r.UserID, r.Rating, r.Comment).Scan(&id)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%s: review already exists: %w", op, models.ErrBadInput)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateReview перезаписывает оценку и комментарий.
func (s *Storage) UpdateReview(ctx context.Context, r models.Review) error {
	const op = "storage.UpdateReview"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE reviews SET rating = $2, comment = $3, updated_at = NOW() WHERE id = $1`,
		r.ID, r.Rating, r.Comment)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// DeleteReview удаляет отзыв.
func (s *Storage) DeleteReview(ctx context.Context, id string) error {
	const op = "storage.DeleteReview"
	res, err := s.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// GetReview возвращает отзыв по ID.
func (s *Storage) GetReview(ctx context.Context, id string) (*models.Review, error) {
	const op = "storage.GetReview"
	r, err := scanReview(s.DB.QueryRowContext(ctx, `SELECT `+reviewColumns+`
		FROM reviews r JOIN users u ON u.uid = r.user_id WHERE r.id = $1`, id))
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &r, nil
}

// UserReview возвращает отзыв пользователя на сессию.
func (s *Storage) UserReview(ctx context.Context, itemID, userID string) (*models.Review, error) {
	const op = "storage.UserReview"
	r, err := scanReview(s.DB.QueryRowContext(ctx, `SELECT `+reviewColumns+`
		FROM reviews r JOIN users u ON u.uid = r.user_id
		WHERE r.item_id = $1 AND r.user_id = $2`, itemID, userID))
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &r, nil
}

// LatestReviews возвращает limit последних отзывов на сессию.
func (s *Storage) LatestReviews(ctx context.Context, itemID string, limit int) ([]models.Review, error) {
	const op = "storage.LatestReviews"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+reviewColumns+`
		FROM reviews r JOIN users u ON u.uid = r.user_id
		WHERE r.item_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
