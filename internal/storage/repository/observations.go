package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const observationColumns = `o.id, o.session_id, o.observation_text, o.faculty_observation, o.module, o.created_at`

func scanObservation(row scanner) (models.Observation, error) {
	var o models.Observation
	err := row.Scan(&o.ID, &o.SessionID, &o.ObservationText, &o.FacultyObservation, &o.Module, &o.CreatedAt)
	return o, err
}

// CreateObservation сохраняет наблюдение и возвращает его ID.
func (s *Storage) CreateObservation(ctx context.Context, o models.Observation) (string, error) {
	const op = "storage.CreateObservation"
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO observations (session_id, observation_text, faculty_observation, module)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		o.SessionID, o.ObservationText, o.FacultyObservation, o.Module).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// SetFacultyObservation записывает эталонный ответ преподавателя.
func (s *Storage) SetFacultyObservation(ctx context.Context, id, text string) error {
	const op = "storage.SetFacultyObservation"
	res, err := s.DB.ExecContext(ctx, `UPDATE observations SET faculty_observation = $2 WHERE id = $1`, id, text)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// GetObservation возвращает наблюдение по ID.
func (s *Storage) GetObservation(ctx context.Context, id string) (*models.Observation, error) {
	const op = "storage.GetObservation"
	o, err := scanObservation(s.DB.QueryRowContext(ctx, `SELECT `+observationColumns+`
		FROM observations o WHERE o.id = $1`, id))
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &o, nil
}

// ObservationsBySession возвращает наблюдения сессии в порядке создания.
func (s *Storage) ObservationsBySession(ctx context.Context, sessionID string) ([]models.Observation, error) {
	const op = "storage.ObservationsBySession"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+observationColumns+`
		FROM observations o WHERE o.session_id = $1 ORDER BY o.created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.Observation{}
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

const userObservationQuery = `
	SELECT uo.id, uo.observation_id, uo.user_id, uo.user_observation, o.observation_text,
		o.module, o.session_id, uo.created_at
	FROM user_observations uo
	JOIN observations o ON o.id = uo.observation_id`

func (s *Storage) queryUserObservations(ctx context.Context, where string, args ...any) ([]models.UserObservation, error) {
	rows, err := s.DB.QueryContext(ctx, userObservationQuery+" WHERE "+where+" ORDER BY uo.created_at", args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := []models.UserObservation{}
	for rows.Next() {
		var u models.UserObservation
		if err := rows.Scan(&u.ID, &u.ObservationID, &u.UserID, &u.UserObservation, &u.ObservationText,
			&u.Module, &u.SessionID, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// UpsertUserObservations сохраняет ответы пользователя в одной транзакции;
// повторный ответ на то же наблюдение заменяет предыдущий.
func (s *Storage) UpsertUserObservations(ctx context.Context, items []models.UserObservation) ([]models.UserObservation, error) {
	const op = "storage.UpsertUserObservations"
	ids := make([]string, 0, len(items))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			var id string
			err := tx.QueryRowContext(ctx, `
				INSERT INTO user_observations (observation_id, user_id, user_observation)
				VALUES ($1, $2, $3)
				ON CONFLICT (observation_id, user_id) DO UPDATE SET
					user_observation = EXCLUDED.user_observation,
					created_at = NOW()
				RETURNING id`, it.ObservationID, it.UserID, it.UserObservation).Scan(&id)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return []models.UserObservation{}, nil
	}
	res, err := s.queryUserObservations(ctx, "uo.id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// UserObservationsByObservation возвращает все ответы на наблюдение.
func (s *Storage) UserObservationsByObservation(ctx context.Context, observationID string) ([]models.UserObservation, error) {
	const op = "storage.UserObservationsByObservation"
	res, err := s.queryUserObservations(ctx, "uo.observation_id = $1", observationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// UserObservationsByUser возвращает ответы пользователя, опционально
// ограниченные сессией.
func (s *Storage) UserObservationsByUser(ctx context.Context, userID, sessionID string) ([]models.UserObservation, error) {
	const op = "storage.UserObservationsByUser"
	var filter any
	if sessionID != "" {
		filter = sessionID
	}
	res, err := s.queryUserObservations(ctx, "uo.user_id = $1 AND ($2::uuid IS NULL OR o.session_id = $2)", userID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
