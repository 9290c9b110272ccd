package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// PathologyRepository описывает хранилище патологий.
type PathologyRepository interface {
	GetModule(ctx context.Context, id string) (*models.Module, error)
	CreatePathology(ctx context.Context, p models.Pathology) (string, error)
	UpdatePathology(ctx context.Context, p models.Pathology) error
	GetPathology(ctx context.Context, id string) (*models.Pathology, error)
	ListPathologies(ctx context.Context, moduleID string) ([]models.Pathology, error)
}

// PathologyService управляет патологиями внутри модулей.
type PathologyService struct {
	repo PathologyRepository
	log  *slog.Logger
}

// NewPathologyService создает новый экземпляр PathologyService.
func NewPathologyService(repo PathologyRepository, log *slog.Logger) *PathologyService {
	return &PathologyService{
		repo: repo,
		log:  log,
	}
}

// List возвращает все патологии.
func (s *PathologyService) List(ctx context.Context) ([]models.Pathology, error) {
	const op = "pathology.List"
	items, err := s.repo.ListPathologies(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Get возвращает патологию по ID.
func (s *PathologyService) Get(ctx context.Context, id string) (*models.Pathology, error) {
	const op = "pathology.Get"
	p, err := s.repo.GetPathology(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ByModule возвращает патологии модуля вместе с признаком аттестации модуля.
func (s *PathologyService) ByModule(ctx context.Context, moduleID string) (*models.ModulePathologies, error) {
	const op = "pathology.ByModule"
	m, err := s.repo.GetModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := s.repo.ListPathologies(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ModulePathologies{Assessment: m.Assessment, Pathologies: items}, nil
}

// Create добавляет патологию в существующий модуль.
func (s *PathologyService) Create(ctx context.Context, moduleID string, req models.DummyPathology) (*models.Pathology, error) {
	const op = "pathology.Create"
	if _, err := s.repo.GetModule(ctx, moduleID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.repo.CreatePathology(ctx, models.Pathology{
		PathologyName: req.PathologyName,
		Description:   req.Description,
		ModuleID:      moduleID,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("pathology created", slog.String("id", id), slog.String("module_id", moduleID))
	return s.Get(ctx, id)
}

// Update изменяет патологию. Пустые название и изображение оставляют прежние значения.
func (s *PathologyService) Update(ctx context.Context, id string, req models.DummyPathology) (*models.Pathology, error) {
	const op = "pathology.Update"
	p, err := s.repo.GetPathology(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.PathologyName != "" {
		p.PathologyName = req.PathologyName
	}
	p.Description = req.Description
	if req.ImageURL != "" {
		p.ImageURL = req.ImageURL
	}
	if err := s.repo.UpdatePathology(ctx, *p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
