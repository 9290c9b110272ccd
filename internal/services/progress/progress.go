// Package services реализует отслеживание прогресса просмотра лекций и DICOM-кейсов.
//
// Для каждой пары пользователь × сессия хранится позиция воспроизведения и запись
// просмотров. Статус выводится из них: notstarted, inprogress, completed.
// Завершённая сессия не возвращается в inprogress.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// CompletionThreshold доля просмотра лекции, после которой она считается завершённой.
const CompletionThreshold = 0.8

// ProgressRepository описывает хранилище прогресса.
type ProgressRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpsertPlayback(ctx context.Context, u models.PlaybackUpdate) error
	UpsertView(ctx context.Context, u models.ViewUpdate) (models.SessionView, error)
	GetPlayback(ctx context.Context, userID, sessionID string) (*models.PlaybackProgress, error)
	GetView(ctx context.Context, userID, sessionID string) (*models.SessionView, error)
	ViewedSessions(ctx context.Context, userID string, completed bool) ([]models.ViewedSession, error)
	ProgressCounts(ctx context.Context, userID string) (started, completed int, err error)
}

// ProgressService ведёт состояние прохождения сессий пользователем.
type ProgressService struct {
	repo ProgressRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewProgressService создает новый экземпляр ProgressService.
func NewProgressService(repo ProgressRepository, log *slog.Logger) *ProgressService {
	return &ProgressService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

func (s *ProgressService) session(ctx context.Context, op, id string, kind models.SessionType) (*models.Session, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sess.SessionType != kind {
		return nil, fmt.Errorf("%s: session is not %s: %w", op, kind, models.ErrBadInput)
	}
	return sess, nil
}

// UpdateLectureProgress сохраняет позицию воспроизведения лекции.
// Счётчик просмотров не меняется. Лекция завершается, когда
// currentTime/duration достигает CompletionThreshold.
func (s *ProgressService) UpdateLectureProgress(ctx context.Context, userID, sessionID string, currentTime, duration float64) (*models.ProgressReport, error) {
	const op = "progress.UpdateLectureProgress"
	if currentTime < 0 || duration < 0 {
		return nil, fmt.Errorf("%s: negative time: %w", op, models.ErrBadInput)
	}
	sess, err := s.session(ctx, op, sessionID, models.SessionTypeVimeo)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.repo.UpsertPlayback(ctx, models.PlaybackUpdate{
		UserID:      userID,
		SessionID:   sessionID,
		SessionType: sess.SessionType,
		CurrentTime: &currentTime,
		At:          at,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var percentage float64
	if duration > 0 {
		percentage = currentTime / duration * 100
	}
	reached := duration > 0 && currentTime/duration >= CompletionThreshold

	view, err := s.repo.UpsertView(ctx, models.ViewUpdate{
		UserID:    userID,
		SessionID: sessionID,
		ModuleID:  sess.ModuleID,
		Completed: reached,
		At:        at,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := models.StatusInProgress
	if view.IsCompleted {
		status = models.StatusCompleted
	}
	s.log.Info("lecture progress updated",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
		slog.String("status", string(status)),
		slog.Float64("percentage", round2(percentage)),
	)
	return &models.ProgressReport{
		Status:               status,
		CurrentTime:          &currentTime,
		LastWatchedAt:        &at,
		CompletionPercentage: &percentage,
		IsCompleted:          view.IsCompleted,
	}, nil
}

// StartLecture фиксирует событие начала просмотра лекции и увеличивает счётчик просмотров.
func (s *ProgressService) StartLecture(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error) {
	const op = "progress.StartLecture"
	sess, err := s.session(ctx, op, sessionID, models.SessionTypeVimeo)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, op, userID, sess)
}

// TrackView фиксирует открытие сессии любого вида.
func (s *ProgressService) TrackView(ctx context.Context, userID, sessionID string) (*models.SessionView, error) {
	const op = "progress.TrackView"
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view, err := s.repo.UpsertView(ctx, models.ViewUpdate{
		UserID:       userID,
		SessionID:    sessionID,
		ModuleID:     sess.ModuleID,
		Increment:    1,
		InitialCount: 1,
		At:           s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &view, nil
}

// MarkCaseStarted отмечает, что пользователь открыл DICOM-кейс.
func (s *ProgressService) MarkCaseStarted(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error) {
	const op = "progress.MarkCaseStarted"
	sess, err := s.session(ctx, op, sessionID, models.SessionTypeDicom)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, op, userID, sess)
}

func (s *ProgressService) start(ctx context.Context, op, userID string, sess *models.Session) (*models.ProgressReport, error) {
	at := s.now().UTC()
	if err := s.repo.UpsertPlayback(ctx, models.PlaybackUpdate{
		UserID:      userID,
		SessionID:   sess.ID,
		SessionType: sess.SessionType,
		At:          at,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view, err := s.repo.UpsertView(ctx, models.ViewUpdate{
		UserID:       userID,
		SessionID:    sess.ID,
		ModuleID:     sess.ModuleID,
		Increment:    1,
		InitialCount: 1,
		At:           at,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := models.StatusInProgress
	if view.IsCompleted {
		status = models.StatusCompleted
	}
	s.log.Info("session started",
		slog.String("user_id", userID),
		slog.String("session_id", sess.ID),
		slog.String("status", string(status)),
	)
	return &models.ProgressReport{
		Status:        status,
		LastWatchedAt: &at,
		IsCompleted:   view.IsCompleted,
	}, nil
}

// MarkCaseCompleted отмечает DICOM-кейс завершённым. Вызывается после отправки наблюдений.
func (s *ProgressService) MarkCaseCompleted(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error) {
	const op = "progress.MarkCaseCompleted"
	sess, err := s.session(ctx, op, sessionID, models.SessionTypeDicom)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	if err := s.repo.UpsertPlayback(ctx, models.PlaybackUpdate{
		UserID:      userID,
		SessionID:   sessionID,
		SessionType: sess.SessionType,
		At:          at,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.UpsertView(ctx, models.ViewUpdate{
		UserID:       userID,
		SessionID:    sessionID,
		ModuleID:     sess.ModuleID,
		InitialCount: 1,
		Completed:    true,
		At:           at,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("case completed", slog.String("user_id", userID), slog.String("session_id", sessionID))
	full := 100.0
	return &models.ProgressReport{
		Status:               models.StatusCompleted,
		LastWatchedAt:        &at,
		CompletionPercentage: &full,
		IsCompleted:          true,
	}, nil
}

// GetProgress возвращает текущий статус сессии для пользователя.
func (s *ProgressService) GetProgress(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error) {
	const op = "progress.GetProgress"
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	playback, err := s.repo.GetPlayback(ctx, userID, sessionID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view, err := s.repo.GetView(ctx, userID, sessionID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if playback == nil && view == nil {
		return &models.ProgressReport{Status: models.StatusNotStarted}, nil
	}

	report := &models.ProgressReport{Status: models.StatusInProgress}
	if playback != nil {
		report.CurrentTime = &playback.CurrentTime
		report.LastWatchedAt = &playback.LastWatchedAt
	}
	if view != nil && view.IsCompleted {
		full := 100.0
		report.Status = models.StatusCompleted
		report.CompletionPercentage = &full
		report.IsCompleted = true
	}
	return report, nil
}

// InProgress возвращает незавершённые сессии пользователя.
func (s *ProgressService) InProgress(ctx context.Context, userID string) ([]models.ViewedSession, error) {
	const op = "progress.InProgress"
	items, err := s.repo.ViewedSessions(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Completed возвращает завершённые сессии пользователя.
func (s *ProgressService) Completed(ctx context.Context, userID string) ([]models.ViewedSession, error) {
	const op = "progress.Completed"
	items, err := s.repo.ViewedSessions(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Stats считает начатые и завершённые сессии. CompletionRate в процентах.
func (s *ProgressService) Stats(ctx context.Context, userID string) (*models.ProgressStats, error) {
	const op = "progress.Stats"
	started, completed, err := s.repo.ProgressCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats := &models.ProgressStats{
		TotalStarted:    started,
		TotalCompleted:  completed,
		TotalInProgress: started - completed,
	}
	if started > 0 {
		stats.CompletionRate = round2(float64(completed) / float64(started) * 100)
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
