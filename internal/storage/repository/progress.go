package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// UpsertPlayback создаёт или обновляет позицию воспроизведения пользователя.
// Если CurrentTime не задан, позиция существующей записи не меняется.
func (s *Storage) UpsertPlayback(ctx context.Context, u models.PlaybackUpdate) error {
	const op = "storage.UpsertPlayback"
	var pos sql.NullFloat64
	if u.CurrentTime != nil {
		pos = sql.NullFloat64{Float64: *u.CurrentTime, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO playback_progress (user_id, session_id, session_type, position_seconds, last_watched_at)
		VALUES ($1, $2, $3, COALESCE($4, 0), $5)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			session_type = EXCLUDED.session_type,
			position_seconds = COALESCE($4, playback_progress.position_seconds),
			last_watched_at = EXCLUDED.last_watched_at`,
		u.UserID, u.SessionID, u.SessionType, pos, u.At)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpsertView атомарно создаёт запись просмотров или прибавляет к ней Increment.
// Флаг завершения только устанавливается.
func (s *Storage) UpsertView(ctx context.Context, u models.ViewUpdate) (models.SessionView, error) {
	const op = "storage.UpsertView"
	var (
		v        models.SessionView
		moduleID sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO session_views (user_id, session_id, module_id, view_count, last_viewed_at, is_completed)
		VALUES ($1, $2, $3, $4, $6, $7)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			view_count = session_views.view_count + $5,
			module_id = COALESCE(EXCLUDED.module_id, session_views.module_id),
			last_viewed_at = EXCLUDED.last_viewed_at,
			is_completed = session_views.is_completed OR EXCLUDED.is_completed
		RETURNING user_id, session_id, module_id, view_count, last_viewed_at, is_completed`,
		u.UserID, u.SessionID, nullString(u.ModuleID), u.InitialCount, u.Increment, u.At, u.Completed,
	).Scan(&v.UserID, &v.SessionID, &moduleID, &v.ViewCount, &v.LastViewedAt, &v.IsCompleted)
	if err != nil {
		return models.SessionView{}, fmt.Errorf("%s: %w", op, err)
	}
	v.ModuleID = moduleID.String
	return v, nil
}

// GetPlayback возвращает позицию воспроизведения пользователя.
func (s *Storage) GetPlayback(ctx context.Context, userID, sessionID string) (*models.PlaybackProgress, error) {
	const op = "storage.GetPlayback"
	var p models.PlaybackProgress
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, session_id, session_type, position_seconds, last_watched_at
		FROM playback_progress WHERE user_id = $1 AND session_id = $2`, userID, sessionID,
	).Scan(&p.ID, &p.UserID, &p.SessionID, &p.SessionType, &p.CurrentTime, &p.LastWatchedAt)
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &p, nil
}

// GetView возвращает запись просмотров пользователя.
func (s *Storage) GetView(ctx context.Context, userID, sessionID string) (*models.SessionView, error) {
	const op = "storage.GetView"
	var (
		v        models.SessionView
		moduleID sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT user_id, session_id, module_id, view_count, last_viewed_at, is_completed
		FROM session_views WHERE user_id = $1 AND session_id = $2`, userID, sessionID,
	).Scan(&v.UserID, &v.SessionID, &moduleID, &v.ViewCount, &v.LastViewedAt, &v.IsCompleted)
	if err != nil {
		return nil, rowErr(op, err)
	}
	v.ModuleID = moduleID.String
	return &v, nil
}

// RecentViews возвращает limit последних просмотренных пользователем сессий.
func (s *Storage) RecentViews(ctx context.Context, userID string, limit int) ([]models.SessionView, error) {
	const op = "storage.RecentViews"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT user_id, session_id, module_id, view_count, last_viewed_at, is_completed
		FROM session_views WHERE user_id = $1
		ORDER BY last_viewed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.SessionView{}
	for rows.Next() {
		var (
			v        models.SessionView
			moduleID sql.NullString
		)
		if err := rows.Scan(&v.UserID, &v.SessionID, &moduleID, &v.ViewCount, &v.LastViewedAt, &v.IsCompleted); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		v.ModuleID = moduleID.String
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ViewedSessions возвращает сессии пользователя с заданным флагом завершения,
// последние просмотренные первыми.
func (s *Storage) ViewedSessions(ctx context.Context, userID string, completed bool) ([]models.ViewedSession, error) {
	const op = "storage.ViewedSessions"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+sessionColumns+`, v.last_viewed_at, v.view_count
		FROM session_views v
		JOIN sessions s ON s.id = v.session_id
		WHERE v.user_id = $1 AND v.is_completed = $2
		ORDER BY v.last_viewed_at DESC`, userID, completed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	status := models.StatusInProgress
	if completed {
		status = models.StatusCompleted
	}
	var (
		result   = []models.ViewedSession{}
		sessions []models.Session
	)
	for rows.Next() {
		var vs models.ViewedSession
		sess, err := s.scanSession(rows, &vs.LastViewedAt, &vs.ViewCount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		vs.Status = status
		result = append(result, vs)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachFaculty(ctx, sessions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range result {
		result[i].Session = sessions[i]
	}
	return result, nil
}

// WatchedSessions возвращает сессии с позицией воспроизведения пользователя,
// последние просмотренные первыми. Пустой kind означает все виды.
func (s *Storage) WatchedSessions(ctx context.Context, userID string, kind models.SessionType, limit int) ([]models.WatchedSession, error) {
	const op = "storage.WatchedSessions"
	var filter any
	if kind != "" {
		filter = kind
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+sessionColumns+`,
			p.id, p.user_id, p.session_id, p.session_type, p.position_seconds, p.last_watched_at
		FROM playback_progress p
		JOIN sessions s ON s.id = p.session_id
		WHERE p.user_id = $1 AND ($2::text IS NULL OR s.session_type = $2)
		ORDER BY p.last_watched_at DESC
		LIMIT $3`, userID, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var (
		result   = []models.WatchedSession{}
		sessions []models.Session
	)
	for rows.Next() {
		var p models.PlaybackProgress
		sess, err := s.scanSession(rows, &p.ID, &p.UserID, &p.SessionID, &p.SessionType, &p.CurrentTime, &p.LastWatchedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, models.WatchedSession{Playback: p})
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.attachFaculty(ctx, sessions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range result {
		result[i].Session = sessions[i]
	}
	return result, nil
}

// ProgressCounts возвращает число начатых и завершённых пользователем сессий.
func (s *Storage) ProgressCounts(ctx context.Context, userID string) (started, completed int, err error) {
	const op = "storage.ProgressCounts"
	err = s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_completed)
		FROM session_views WHERE user_id = $1`, userID).Scan(&started, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return started, completed, nil
}
