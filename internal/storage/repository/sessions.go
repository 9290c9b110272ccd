package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const sessionColumns = `s.id, s.title, s.description, s.module_id, s.module_name, s.pathology_id,
	s.pathology_name, s.difficulty, s.is_free, s.image_url_1920x1080, s.image_url_522x760,
	s.session_type, s.sponsored, s.start_date, s.end_date, s.start_time, s.end_time,
	s.resource_links, s.is_assessment, s.dicom_study_id, s.dicom_case_id, s.dicom_case_video_url,
	s.case_access_type, s.session_duration, s.vimeo_video_id, s.video_url, s.video_type,
	s.zoom_meeting_id, s.zoom_password, s.zoom_join_url, s.zoom_backup_link, s.vimeo_live_url,
	s.live_program_type, s.average_rating, s.num_of_reviews, s.last_review_at, s.created_at,
	s.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanSession(row scanner, extra ...any) (models.Session, error) {
	var (
		sess                  models.Session
		moduleID, pathologyID sql.NullString
		start, end, lastRev   sql.NullTime
	)
	dest := []any{
		&sess.ID, &sess.Title, &sess.Description, &moduleID, &sess.ModuleName, &pathologyID,
		&sess.PathologyName, &sess.Difficulty, &sess.IsFree, &sess.ImageURL1920x1080, &sess.ImageURL522x760,
		&sess.SessionType, &sess.Sponsored, &start, &end, &sess.StartTime, &sess.EndTime,
		s.array(&sess.ResourceLinks), &sess.IsAssessment, &sess.DicomStudyID, &sess.DicomCaseID, &sess.DicomCaseVideoURL,
		&sess.CaseAccessType, &sess.SessionDuration, &sess.VimeoVideoID, &sess.VideoURL, &sess.VideoType,
		&sess.ZoomMeetingID, &sess.ZoomPassword, &sess.ZoomJoinURL, &sess.ZoomBackupLink, &sess.VimeoLiveURL,
		&sess.LiveProgramType, &sess.AverageRating, &sess.NumOfReviews, &lastRev, &sess.CreatedAt,
		&sess.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Session{}, err
	}
	sess.ModuleID = moduleID.String
	sess.PathologyID = pathologyID.String
	if start.Valid {
		sess.StartDate = &start.Time
	}
	if end.Valid {
		sess.EndDate = &end.Time
	}
	if lastRev.Valid {
		sess.LastReviewAt = &lastRev.Time
	}
	return sess, nil
}

// querySessions выполняет запрос, возвращающий sessionColumns, и подгружает преподавателей.
func (s *Storage) querySessions(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := []models.Session{}
	for rows.Next() {
		sess, err := s.scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachFaculty(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) attachFaculty(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]string, len(sessions))
	pos := make(map[string][]int, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
		pos[sess.ID] = append(pos[sess.ID], i)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT sf.session_id, f.id, f.name, f.image
		FROM session_faculty sf
		JOIN faculty f ON f.id = sf.faculty_id
		WHERE sf.session_id = ANY($1)
		ORDER BY sf.session_id, sf.position`, ids)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			sessionID string
			ref       models.FacultyRef
		)
		if err := rows.Scan(&sessionID, &ref.ID, &ref.Name, &ref.Image); err != nil {
			return err
		}
		for _, i := range pos[sessionID] {
			sessions[i].Faculty = append(sessions[i].Faculty, ref)
		}
	}
	return rows.Err()
}

// CreateSession сохраняет сессию вместе со списком преподавателей и возвращает её ID.
func (s *Storage) CreateSession(ctx context.Context, sess models.Session) (string, error) {
	const op = "storage.CreateSession"
	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO sessions (title, description, module_id, module_name, pathology_id,
				pathology_name, difficulty, is_free, image_url_1920x1080, image_url_522x760,
				session_type, sponsored, start_date, end_date, start_time, end_time,
				resource_links, is_assessment, dicom_study_id, dicom_case_id, dicom_case_video_url,
				case_access_type, session_duration, vimeo_video_id, video_url, video_type,
				zoom_meeting_id, zoom_password, zoom_join_url, zoom_backup_link, vimeo_live_url,
				live_program_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
				$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
			RETURNING id`,
			sess.Title, sess.Description, nullString(sess.ModuleID), sess.ModuleName, nullString(sess.PathologyID),
			sess.PathologyName, sess.Difficulty, sess.IsFree, sess.ImageURL1920x1080, sess.ImageURL522x760,
			sess.SessionType, sess.Sponsored, sess.StartDate, sess.EndDate, sess.StartTime, sess.EndTime,
			nonNil(sess.ResourceLinks), sess.IsAssessment, sess.DicomStudyID, sess.DicomCaseID, sess.DicomCaseVideoURL,
			sess.CaseAccessType, sess.SessionDuration, sess.VimeoVideoID, sess.VideoURL, sess.VideoType,
			sess.ZoomMeetingID, sess.ZoomPassword, sess.ZoomJoinURL, sess.ZoomBackupLink, sess.VimeoLiveURL,
			sess.LiveProgramType,
		).Scan(&id)
		if err != nil {
			return err
		}
		return replaceFaculty(ctx, tx, id, sess.FacultyIDs())
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateSession перезаписывает изменяемые поля сессии и, если facultyIDs не nil,
// её преподавателей. Обе записи выполняются в одной транзакции.
func (s *Storage) UpdateSession(ctx context.Context, sess models.Session, facultyIDs []string) error {
	const op = "storage.UpdateSession"
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE sessions SET title = $2, description = $3, module_id = $4, module_name = $5,
				pathology_id = $6, pathology_name = $7, difficulty = $8, is_free = $9,
				image_url_1920x1080 = $10, image_url_522x760 = $11, sponsored = $12,
				start_date = $13, end_date = $14, start_time = $15, end_time = $16,
				resource_links = $17, is_assessment = $18, dicom_study_id = $19, dicom_case_id = $20,
				dicom_case_video_url = $21, case_access_type = $22, session_duration = $23,
				vimeo_video_id = $24, video_url = $25, video_type = $26, zoom_meeting_id = $27,
				zoom_password = $28, zoom_join_url = $29, zoom_backup_link = $30, vimeo_live_url = $31,
				live_program_type = $32, updated_at = NOW()
			WHERE id = $1`,
			sess.ID, sess.Title, sess.Description, nullString(sess.ModuleID), sess.ModuleName,
			nullString(sess.PathologyID), sess.PathologyName, sess.Difficulty, sess.IsFree,
			sess.ImageURL1920x1080, sess.ImageURL522x760, sess.Sponsored,
			sess.StartDate, sess.EndDate, sess.StartTime, sess.EndTime,
			nonNil(sess.ResourceLinks), sess.IsAssessment, sess.DicomStudyID, sess.DicomCaseID,
			sess.DicomCaseVideoURL, sess.CaseAccessType, sess.SessionDuration,
			sess.VimeoVideoID, sess.VideoURL, sess.VideoType, sess.ZoomMeetingID,
			sess.ZoomPassword, sess.ZoomJoinURL, sess.ZoomBackupLink, sess.VimeoLiveURL,
			sess.LiveProgramType,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrNotFound
		}
		if facultyIDs == nil {
			return nil
		}
		return replaceFaculty(ctx, tx, sess.ID, facultyIDs)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetSessionFaculty заменяет список преподавателей сессии.
func (s *Storage) SetSessionFaculty(ctx context.Context, sessionID string, facultyIDs []string) error {
	const op = "storage.SetSessionFaculty"
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, `UPDATE sessions SET updated_at = NOW() WHERE id = $1 RETURNING id`, sessionID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}
		return replaceFaculty(ctx, tx, sessionID, facultyIDs)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func replaceFaculty(ctx context.Context, tx *sql.Tx, sessionID string, facultyIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_faculty WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	for i, fid := range facultyIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_faculty (session_id, faculty_id, position) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, sessionID, fid, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteSession удаляет сессию.
func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	const op = "storage.DeleteSession"
	res, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// GetSession возвращает сессию по ID.
func (s *Storage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.GetSession"
	row := s.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = $1`, id)
	sess, err := s.scanSession(row)
	if err != nil {
		return nil, rowErr(op, err)
	}
	one := []models.Session{sess}
	if err := s.attachFaculty(ctx, one); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &one[0], nil
}

// RecentSessions возвращает limit новейших сессий вида kind.
func (s *Storage) RecentSessions(ctx context.Context, kind models.SessionType, limit int) ([]models.Session, error) {
	const op = "storage.RecentSessions"
	res, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions s
		WHERE s.session_type = $1
		ORDER BY s.created_at DESC
		LIMIT $2`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// TopRatedSessions возвращает сессии вида kind по убыванию рейтинга,
// числа отзывов и даты последнего отзыва. limit <= 0 означает без ограничения.
func (s *Storage) TopRatedSessions(ctx context.Context, kind models.SessionType, limit int) ([]models.Session, error) {
	const op = "storage.TopRatedSessions"
	var lim any
	if limit > 0 {
		lim = limit
	}
	res, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions s
		WHERE s.session_type = $1
		ORDER BY s.average_rating DESC, s.num_of_reviews DESC, s.last_review_at DESC NULLS LAST, s.created_at DESC
		LIMIT $2`, kind, lim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// TopViewTotals суммирует просмотры всех пользователей по сессиям и
// возвращает limit самых просматриваемых.
func (s *Storage) TopViewTotals(ctx context.Context, limit int) ([]models.ViewTotal, error) {
	const op = "storage.TopViewTotals"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT session_id, SUM(view_count) AS total
		FROM session_views
		GROUP BY session_id
		ORDER BY total DESC, session_id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.ViewTotal{}
	for rows.Next() {
		var vt models.ViewTotal
		if err := rows.Scan(&vt.SessionID, &vt.TotalViews); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, vt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SessionsByIDs возвращает найденные сессии в произвольном порядке.
func (s *Storage) SessionsByIDs(ctx context.Context, ids []string) ([]models.Session, error) {
	const op = "storage.SessionsByIDs"
	if len(ids) == 0 {
		return []models.Session{}, nil
	}
	res, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// UpcomingLive возвращает живые программы, начинающиеся не раньше from.
// limit <= 0 означает без ограничения.
func (s *Storage) UpcomingLive(ctx context.Context, from time.Time, limit int) ([]models.Session, error) {
	const op = "storage.UpcomingLive"
	var lim any
	if limit > 0 {
		lim = limit
	}
	res, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions s
		WHERE s.session_type = $1 AND s.start_date >= $2
		ORDER BY s.start_date ASC
		LIMIT $3`, models.SessionTypeLive, from, lim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// SessionsByPathology возвращает все сессии патологии, новые первыми.
func (s *Storage) SessionsByPathology(ctx context.Context, pathologyID string) ([]models.Session, error) {
	const op = "storage.SessionsByPathology"
	res, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions s
		WHERE s.pathology_id = $1
		ORDER BY s.created_at DESC`, pathologyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// ListSessions возвращает страницу сессий вида kind (все виды, если kind пуст)
// и их общее количество.
func (s *Storage) ListSessions(ctx context.Context, kind models.SessionType, limit, offset int) ([]models.Session, int, error) {
	const op = "storage.ListSessions"
	var filter any
	if kind != "" {
		filter = kind
	}

	var total int
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE $1::text IS NULL OR session_type = $1`, filter).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions s
		WHERE $1::text IS NULL OR s.session_type = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3`, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return res, total, nil
}

// MatchingSessions возвращает сессии, у которых совпадает хотя бы один
// признак фильтра, исключая ExcludeIDs, новые первыми.
func (s *Storage) MatchingSessions(ctx context.Context, f models.RecommendFilter) ([]models.Session, error) {
	const op = "storage.MatchingSessions"
	if f.Empty() {
		return []models.Session{}, nil
	}
	var conds []string
	args := []any{nonNil(f.ExcludeIDs)}
	if len(f.PathologyIDs) > 0 {
		args = append(args, f.PathologyIDs)
		conds = append(conds, fmt.Sprintf("s.pathology_id = ANY($%d)", len(args)))
	}
	if len(f.Difficulties) > 0 {
		args = append(args, f.Difficulties)
		conds = append(conds, fmt.Sprintf("s.difficulty = ANY($%d)", len(args)))
	}
	if len(f.FacultyIDs) > 0 {
		args = append(args, f.FacultyIDs)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM session_faculty sf WHERE sf.session_id = s.id AND sf.faculty_id = ANY($%d))", len(args)))
	}
	args = append(args, max(f.Limit, 1))

	query := `SELECT ` + sessionColumns + ` FROM sessions s
		WHERE NOT (s.id::text = ANY($1)) AND (` + strings.Join(conds, " OR ") + `)
		ORDER BY s.created_at DESC
		LIMIT $` + fmt.Sprint(len(args))
	res, err := s.querySessions(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// LatestSessions возвращает limit новейших сессий любых видов, кроме excludeIDs.
func (s *Storage) LatestSessions(ctx context.Context, excludeIDs []string, limit int) ([]models.Session, error) {
	const op = "storage.LatestSessions"
	res, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions s
		WHERE NOT (s.id::text = ANY($1))
		ORDER BY s.created_at DESC LIMIT $2`, nonNil(excludeIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// RefreshRatingStats пересчитывает средний рейтинг, число отзывов и дату
// последнего отзыва сессии по таблице reviews.
func (s *Storage) RefreshRatingStats(ctx context.Context, sessionID string) (models.RatingStats, error) {
	const op = "storage.RefreshRatingStats"
	var (
		stats models.RatingStats
		last  sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, `
		UPDATE sessions s SET
			average_rating = COALESCE(r.avg, 0),
			num_of_reviews = r.cnt,
			last_review_at = r.last
		FROM (
			SELECT AVG(rating)::float8 AS avg, COUNT(*)::int AS cnt, MAX(created_at) AS last
			FROM reviews WHERE item_id = $1
		) r
		WHERE s.id = $1
		RETURNING s.average_rating, s.num_of_reviews, s.last_review_at`, sessionID,
	).Scan(&stats.AverageRating, &stats.NumOfReviews, &last)
	if err != nil {
		return models.RatingStats{}, rowErr(op, err)
	}
	if last.Valid {
		stats.LastReviewAt = &last.Time
	}
	return stats, nil
}
