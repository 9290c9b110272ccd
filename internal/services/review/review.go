// Package services реализует отзывы пользователей о сессиях.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const latestReviewsLimit = 4

// ReviewRepository описывает хранилище отзывов.
type ReviewRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	CreateReview(ctx context.Context, r models.Review) (string, error)
	UpdateReview(ctx context.Context, r models.Review) error
	DeleteReview(ctx context.Context, id string) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	UserReview(ctx context.Context, itemID, userID string) (*models.Review, error)
	LatestReviews(ctx context.Context, itemID string, limit int) ([]models.Review, error)
	RefreshRatingStats(ctx context.Context, sessionID string) (models.RatingStats, error)
}

// ReviewService управляет отзывами и пересчитывает рейтинг сессии после каждого изменения.
type ReviewService struct {
	repo ReviewRepository
	log  *slog.Logger
}

// NewReviewService создает новый экземпляр ReviewService.
func NewReviewService(repo ReviewRepository, log *slog.Logger) *ReviewService {
	return &ReviewService{
		repo: repo,
		log:  log,
	}
}

// Latest возвращает последние отзывы о сессии.
func (s *ReviewService) Latest(ctx context.Context, itemID string) ([]models.Review, error) {
	const op = "review.Latest"
	reviews, err := s.repo.LatestReviews(ctx, itemID, latestReviewsLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

// Mine возвращает отзыв пользователя о сессии.
func (s *ReviewService) Mine(ctx context.Context, userID, itemID string) (*models.Review, error) {
	const op = "review.Mine"
	r, err := s.repo.UserReview(ctx, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func validRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// Create добавляет отзыв. Повторный отзыв того же пользователя отклоняется.
func (s *ReviewService) Create(ctx context.Context, userID string, req models.DummyReview) (*models.Review, error) {
	const op = "review.Create"
	if !validRating(req.Rating) {
		return nil, fmt.Errorf("%s: rating must be between 1 and 5: %w", op, models.ErrBadInput)
	}
	if _, err := s.repo.GetSession(ctx, req.ItemID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateReview(ctx, models.Review{
		ItemID:  req.ItemID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.refresh(ctx, req.ItemID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("review created", slog.String("id", id), slog.String("item_id", req.ItemID))

	created, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *ReviewService) owned(ctx context.Context, op, userID, reviewID string) (*models.Review, error) {
	r, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("%s: review belongs to another user: %w", op, models.ErrForbidden)
	}
	return r, nil
}

// Update изменяет оценку или комментарий своего отзыва.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID string, patch models.ReviewPatch) (*models.Review, error) {
	const op = "review.Update"
	r, err := s.owned(ctx, op, userID, reviewID)
	if err != nil {
		return nil, err
	}
	if patch.Rating != nil {
		if !validRating(*patch.Rating) {
			return nil, fmt.Errorf("%s: rating must be between 1 and 5: %w", op, models.ErrBadInput)
		}
		r.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}

	if err := s.repo.UpdateReview(ctx, *r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.refresh(ctx, r.ItemID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Delete удаляет свой отзыв.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	const op = "review.Delete"
	r, err := s.owned(ctx, op, userID, reviewID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.refresh(ctx, r.ItemID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("review deleted", slog.String("id", reviewID))
	return nil
}

func (s *ReviewService) refresh(ctx context.Context, itemID string) error {
	stats, err := s.repo.RefreshRatingStats(ctx, itemID)
	if err != nil {
		return err
	}
	s.log.Debug("rating recalculated",
		slog.String("item_id", itemID),
		slog.Float64("average", stats.AverageRating),
		slog.Int("reviews", stats.NumOfReviews),
	)
	return nil
}
