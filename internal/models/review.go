package models

import "time"

// Review — отзыв пользователя о сессии.
type Review struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DummyReview — тело запроса на создание отзыва.
type DummyReview struct {
	ItemID  string `json:"item_id" validate:"required,uuid"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewPatch — частичное обновление отзыва.
type ReviewPatch struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// RatingStats — агрегат оценок сессии.
type RatingStats struct {
	AverageRating float64
	NumOfReviews  int
	LastReviewAt  *time.Time
}
