package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// CreateFaculty сохраняет преподавателя и возвращает его ID.
func (s *Storage) CreateFaculty(ctx context.Context, f models.Faculty) (string, error) {
	const op = "storage.CreateFaculty"
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO faculty (name, designation, bio, image) VALUES ($1, $2, $3, $4) RETURNING id`,
		f.Name, f.Designation, f.Bio, f.Image).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateFaculty перезаписывает поля преподавателя.
func (s *Storage) UpdateFaculty(ctx context.Context, f models.Faculty) error {
	const op = "storage.UpdateFaculty"
	res, err := s.DB.ExecContext(ctx, `
		UPDATE faculty SET name = $2, designation = $3, bio = $4, image = $5 WHERE id = $1`,
		f.ID, f.Name, f.Designation, f.Bio, f.Image)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// DeleteFaculty удаляет преподавателя и его привязки к сессиям.
func (s *Storage) DeleteFaculty(ctx context.Context, id string) error {
	const op = "storage.DeleteFaculty"
	res, err := s.DB.ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// GetFaculty возвращает преподавателя по ID.
func (s *Storage) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	const op = "storage.GetFaculty"
	var f models.Faculty
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, designation, bio, image, created_at FROM faculty WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Designation, &f.Bio, &f.Image, &f.CreatedAt)
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &f, nil
}

// ListFaculty возвращает всех преподавателей по имени.
func (s *Storage) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	const op = "storage.ListFaculty"
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, designation, bio, image, created_at FROM faculty ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.Faculty{}
	for rows.Next() {
		var f models.Faculty
		if err := rows.Scan(&f.ID, &f.Name, &f.Designation, &f.Bio, &f.Image, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountFaculty возвращает, сколько из ids существует.
func (s *Storage) CountFaculty(ctx context.Context, ids []string) (int, error) {
	const op = "storage.CountFaculty"
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM faculty WHERE id = ANY($1)`, ids).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
