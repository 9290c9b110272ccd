package repository

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const packageColumns = `id, package_name, description, features, pricing_options, is_active, created_at`

func (s *Storage) scanPackage(row scanner) (models.Package, error) {
	var (
		p       models.Package
		pricing []byte
	)
	if err := row.Scan(&p.ID, &p.PackageName, &p.Description, s.array(&p.Features), &pricing, &p.IsActive, &p.CreatedAt); err != nil {
		return models.Package{}, err
	}
	if err := json.Unmarshal(pricing, &p.PricingOptions); err != nil {
		return models.Package{}, err
	}
	return p, nil
}

// CreatePackage сохраняет пакет и возвращает его ID.
func (s *Storage) CreatePackage(ctx context.Context, p models.Package) (string, error) {
	const op = "storage.CreatePackage"
	pricing, err := json.Marshal(p.PricingOptions)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var id string
	err = s.DB.QueryRowContext(ctx, `
		INSERT INTO packages (package_name, description, features, pricing_options, is_active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.PackageName, p.Description, nonNil(p.Features), string(pricing), p.IsActive).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdatePackage перезаписывает пакет.
func (s *Storage) UpdatePackage(ctx context.Context, p models.Package) error {
	const op = "storage.UpdatePackage"
	pricing, err := json.Marshal(p.PricingOptions)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE packages SET package_name = $2, description = $3, features = $4,
			pricing_options = $5, is_active = $6
		WHERE id = $1`,
		p.ID, p.PackageName, p.Description, nonNil(p.Features), string(pricing), p.IsActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// GetPackage возвращает пакет по ID.
func (s *Storage) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	const op = "storage.GetPackage"
	p, err := s.scanPackage(s.DB.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if err != nil {
		return nil, rowErr(op, err)
	}
	return &p, nil
}

// ListPackages возвращает пакеты; activeOnly оставляет только активные.
func (s *Storage) ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error) {
	const op = "storage.ListPackages"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+packageColumns+` FROM packages
		WHERE NOT $1 OR is_active
		ORDER BY created_at`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.Package{}
	for rows.Next() {
		p, err := s.scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
