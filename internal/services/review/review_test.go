package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *RepoMock) CreateReview(ctx context.Context, r models.Review) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) UpdateReview(ctx context.Context, r models.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *RepoMock) DeleteReview(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) GetReview(ctx context.Context, id string) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *RepoMock) UserReview(ctx context.Context, itemID, userID string) (*models.Review, error) {
	args := m.Called(ctx, itemID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *RepoMock) LatestReviews(ctx context.Context, itemID string, limit int) ([]models.Review, error) {
	args := m.Called(ctx, itemID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *RepoMock) RefreshRatingStats(ctx context.Context, sessionID string) (models.RatingStats, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(models.RatingStats), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLatest(t *testing.T) {
	repo := new(RepoMock)
	ctx := context.Background()
	repo.On("LatestReviews", ctx, "s1", 4).Return([]models.Review{{ID: "r1"}}, nil)

	got, err := NewReviewService(repo, newNoopLogger()).Latest(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	req := models.DummyReview{ItemID: "s1", Rating: 5, Comment: "clear"}

	t.Run("recomputes rating", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSession", ctx, "s1").Return(&models.Session{ID: "s1"}, nil)
		repo.On("CreateReview", ctx, models.Review{ItemID: "s1", UserID: "u1", Rating: 5, Comment: "clear"}).Return("r1", nil)
		repo.On("RefreshRatingStats", ctx, "s1").Return(models.RatingStats{AverageRating: 5, NumOfReviews: 1}, nil)
		repo.On("GetReview", ctx, "r1").Return(&models.Review{ID: "r1", UserID: "u1", Rating: 5}, nil)

		got, err := NewReviewService(repo, newNoopLogger()).Create(ctx, "u1", req)
		require.NoError(t, err)
		assert.Equal(t, "r1", got.ID)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSession", ctx, "s1").Return(&models.Session{ID: "s1"}, nil)
		repo.On("CreateReview", ctx, mock.Anything).Return("", models.ErrBadInput)

		_, err := NewReviewService(repo, newNoopLogger()).Create(ctx, "u1", req)
		assert.ErrorIs(t, err, models.ErrBadInput)
		repo.AssertNotCalled(t, "RefreshRatingStats", mock.Anything, mock.Anything)
	})

	t.Run("rating out of range", func(t *testing.T) {
		repo := new(RepoMock)
		_, err := NewReviewService(repo, newNoopLogger()).Create(ctx, "u1", models.DummyReview{ItemID: "s1", Rating: 6})
		assert.ErrorIs(t, err, models.ErrBadInput)
	})

	t.Run("unknown session", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSession", ctx, "s1").Return(nil, models.ErrNotFound)
		_, err := NewReviewService(repo, newNoopLogger()).Create(ctx, "u1", req)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	rating := 2
	comment := "changed my mind"

	t.Run("owner", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetReview", ctx, "r1").Return(&models.Review{ID: "r1", ItemID: "s1", UserID: "u1", Rating: 5}, nil)
		repo.On("UpdateReview", ctx, models.Review{ID: "r1", ItemID: "s1", UserID: "u1", Rating: 2, Comment: comment}).Return(nil)
		repo.On("RefreshRatingStats", ctx, "s1").Return(models.RatingStats{AverageRating: 2, NumOfReviews: 1}, nil)

		_, err := NewReviewService(repo, newNoopLogger()).Update(ctx, "u1", "r1", models.ReviewPatch{Rating: &rating, Comment: &comment})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("someone else", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetReview", ctx, "r1").Return(&models.Review{ID: "r1", ItemID: "s1", UserID: "u2"}, nil)

		_, err := NewReviewService(repo, newNoopLogger()).Update(ctx, "u1", "r1", models.ReviewPatch{Rating: &rating})
		assert.ErrorIs(t, err, models.ErrForbidden)
		repo.AssertNotCalled(t, "UpdateReview", mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetReview", ctx, "r1").Return(nil, models.ErrNotFound)

		_, err := NewReviewService(repo, newNoopLogger()).Update(ctx, "u1", "r1", models.ReviewPatch{})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetReview", ctx, "r1").Return(&models.Review{ID: "r1", ItemID: "s1", UserID: "u1"}, nil)
		repo.On("DeleteReview", ctx, "r1").Return(nil)
		repo.On("RefreshRatingStats", ctx, "s1").Return(models.RatingStats{}, nil)

		require.NoError(t, NewReviewService(repo, newNoopLogger()).Delete(ctx, "u1", "r1"))
		repo.AssertExpectations(t)
	})

	t.Run("refresh failure surfaces", func(t *testing.T) {
		repo := new(RepoMock)
		dbErr := errors.New("db down")
		repo.On("GetReview", ctx, "r1").Return(&models.Review{ID: "r1", ItemID: "s1", UserID: "u1"}, nil)
		repo.On("DeleteReview", ctx, "r1").Return(nil)
		repo.On("RefreshRatingStats", ctx, "s1").Return(models.RatingStats{}, dbErr)

		err := NewReviewService(repo, newNoopLogger()).Delete(ctx, "u1", "r1")
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("someone else", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetReview", ctx, "r1").Return(&models.Review{ID: "r1", ItemID: "s1", UserID: "u2"}, nil)

		err := NewReviewService(repo, newNoopLogger()).Delete(ctx, "u1", "r1")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}
