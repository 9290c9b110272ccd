package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// CreateModule сохраняет модуль и возвращает его ID.
func (s *Storage) CreateModule(ctx context.Context, m models.Module) (string, error) {
	const op = "storage.CreateModule"
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO modules (module_name, description, image_url, assessment)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		m.ModuleName, m.Description, m.ImageURL, m.Assessment).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateModule перезаписывает поля модуля.
func (s *Storage) UpdateModule(ctx context.Context, m models.Module) error {
	const op = "storage.UpdateModule"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE modules SET module_name = $2, description = $3, image_url = $4, assessment = $5
		WHERE id = $1`, m.ID, m.ModuleName, m.Description, m.ImageURL, m.Assessment)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// GetModule возвращает модуль по ID.
func (s *Storage) GetModule(ctx context.Context, id string) (*models.Module, error) {
	const op = "storage.GetModule"
	var m models.Module
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, module_name, description, image_url, assessment, created_at
		FROM modules WHERE id = $1`, id,
	).Scan(&m.ID, &m.ModuleName, &m.Description, &m.ImageURL, &m.Assessment, &m.CreatedAt)
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &m, nil
}

// ListModules возвращает все модули, новые первыми.
func (s *Storage) ListModules(ctx context.Context) ([]models.Module, error) {
	const op = "storage.ListModules"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, module_name, description, image_url, assessment, created_at
		FROM modules ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.Module{}
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.ModuleName, &m.Description, &m.ImageURL, &m.Assessment, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ModuleSummaries возвращает модули с числом патологий, их названиями и
// числом сессий, новые первыми.
func (s *Storage) ModuleSummaries(ctx context.Context) ([]models.ModuleSummary, error) {
	const op = "storage.ModuleSummaries"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT m.id, m.module_name, m.image_url, m.assessment,
			COALESCE(p.cnt, 0), COALESCE(p.names, '{}'), COALESCE(ss.cnt, 0)
		FROM modules m
		LEFT JOIN (
			SELECT module_id, COUNT(*)::int AS cnt, ARRAY_AGG(pathology_name ORDER BY created_at) AS names
			FROM pathologies GROUP BY module_id
		) p ON p.module_id = m.id
		LEFT JOIN (
			SELECT module_id, COUNT(*)::int AS cnt FROM sessions
			WHERE module_id IS NOT NULL GROUP BY module_id
		) ss ON ss.module_id = m.id
		ORDER BY m.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.ModuleSummary{}
	for rows.Next() {
		var (
			m        models.ModuleSummary
			sessions int
		)
		if err := rows.Scan(&m.ID, &m.ModuleName, &m.ImageURL, &m.Assessment,
			&m.TotalPathologiesCount, s.array(&m.PathologyNames), &sessions); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m.TotalSessionsCount = &sessions
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreatePathology сохраняет патологию и возвращает её ID.
func (s *Storage) CreatePathology(ctx context.Context, p models.Pathology) (string, error) {
	const op = "storage.CreatePathology"
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO pathologies (pathology_name, description, module_id, image_url)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		p.PathologyName, p.Description, p.ModuleID, p.ImageURL).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdatePathology перезаписывает поля патологии.
func (s *Storage) UpdatePathology(ctx context.Context, p models.Pathology) error {
	const op = "storage.UpdatePathology"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE pathologies SET pathology_name = $2, description = $3, image_url = $4
		WHERE id = $1`, p.ID, p.PathologyName, p.Description, p.ImageURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// GetPathology возвращает патологию по ID.
func (s *Storage) GetPathology(ctx context.Context, id string) (*models.Pathology, error) {
	const op = "storage.GetPathology"
	var p models.Pathology
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, pathology_name, description, module_id, image_url, created_at
		FROM pathologies WHERE id = $1`, id,
	).Scan(&p.ID, &p.PathologyName, &p.Description, &p.ModuleID, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &p, nil
}

// ListPathologies возвращает патологии модуля moduleID или все, если он пуст.
func (s *Storage) ListPathologies(ctx context.Context, moduleID string) ([]models.Pathology, error) {
	const op = "storage.ListPathologies"
	var filter any
	if moduleID != "" {
		filter = moduleID
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, pathology_name, description, module_id, image_url, created_at
		FROM pathologies
		WHERE $1::uuid IS NULL OR module_id = $1
		ORDER BY created_at DESC`, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.Pathology{}
	for rows.Next() {
		var p models.Pathology
		if err := rows.Scan(&p.ID, &p.PathologyName, &p.Description, &p.ModuleID, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
