package models

import "time"

// ProgressStatus — состояние прохождения сессии пользователем.
type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "notstarted"
	StatusInProgress ProgressStatus = "inprogress"
	StatusCompleted  ProgressStatus = "completed"
)

// PlaybackProgress хранит последнюю позицию воспроизведения.
type PlaybackProgress struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	SessionID     string      `json:"session_id"`
	SessionType   SessionType `json:"session_type"`
	CurrentTime   float64     `json:"current_time"`
	LastWatchedAt time.Time   `json:"last_watched_at"`
}

// SessionView — агрегированная запись просмотров пользователя по сессии.
type SessionView struct {
	UserID       string    `json:"user_id"`
	SessionID    string    `json:"session_id"`
	ModuleID     string    `json:"module_id,omitempty"`
	ViewCount    int64     `json:"view_count"`
	LastViewedAt time.Time `json:"last_viewed_at"`
	IsCompleted  bool      `json:"is_completed"`
}

// PlaybackUpdate — параметры upsert-а позиции воспроизведения.
// CurrentTime == nil означает "не менять позицию" (для существующей записи)
// и 0 для новой.
type PlaybackUpdate struct {
	UserID      string
	SessionID   string
	SessionType SessionType
	CurrentTime *float64
	At          time.Time
}

// ViewUpdate — параметры атомарного upsert-а записи просмотров.
// Increment прибавляется к счётчику существующей записи, новая запись
// создаётся со счётчиком InitialCount. Completed только устанавливает флаг
// и никогда не сбрасывает уже завершённую сессию.
type ViewUpdate struct {
	UserID       string
	SessionID    string
	ModuleID     string
	Increment    int64
	InitialCount int64
	Completed    bool
	At           time.Time
}

// ProgressReport — ответ трекера прогресса.
type ProgressReport struct {
	Status               ProgressStatus `json:"status"`
	CurrentTime          *float64       `json:"current_time,omitempty"`
	LastWatchedAt        *time.Time     `json:"last_watched_at,omitempty"`
	CompletionPercentage *float64       `json:"completion_percentage,omitempty"`
	IsCompleted          bool           `json:"is_completed"`
}

// ViewedSession — сессия вместе с агрегатом просмотров пользователя.
type ViewedSession struct {
	Session      Session        `json:"session"`
	LastViewedAt time.Time      `json:"last_viewed_at"`
	ViewCount    int64          `json:"view_count"`
	Status       ProgressStatus `json:"status"`
}

// WatchedSession — сессия вместе с позицией воспроизведения пользователя.
type WatchedSession struct {
	Session
	Playback PlaybackProgress `json:"playback_progress"`
}

// ProgressStats — сводная статистика пользователя.
type ProgressStats struct {
	TotalStarted    int     `json:"total_started"`
	TotalCompleted  int     `json:"total_completed"`
	TotalInProgress int     `json:"total_in_progress"`
	CompletionRate  float64 `json:"completion_rate"`
}
