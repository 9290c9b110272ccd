// Package services реализует справочник преподавателей.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// FacultyRepository описывает хранилище преподавателей.
type FacultyRepository interface {
	CreateFaculty(ctx context.Context, f models.Faculty) (string, error)
	UpdateFaculty(ctx context.Context, f models.Faculty) error
	DeleteFaculty(ctx context.Context, id string) error
	GetFaculty(ctx context.Context, id string) (*models.Faculty, error)
	ListFaculty(ctx context.Context) ([]models.Faculty, error)
}

type FacultyService struct {
	repo FacultyRepository
	log  *slog.Logger
}

// NewFacultyService создает новый экземпляр FacultyService.
func NewFacultyService(repo FacultyRepository, log *slog.Logger) *FacultyService {
	return &FacultyService{
		repo: repo,
		log:  log,
	}
}

func (s *FacultyService) List(ctx context.Context) ([]models.Faculty, error) {
	const op = "faculty.List"
	items, err := s.repo.ListFaculty(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	const op = "faculty.Get"
	f, err := s.repo.GetFaculty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (s *FacultyService) Create(ctx context.Context, req models.DummyFaculty) (*models.Faculty, error) {
	const op = "faculty.Create"
	id, err := s.repo.CreateFaculty(ctx, models.Faculty{
		Name:        req.Name,
		Designation: req.Designation,
		Bio:         req.Bio,
		Image:       req.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("faculty created", slog.String("id", id))
	return s.Get(ctx, id)
}

// Update изменяет данные преподавателя. Пустые имя и изображение не затирают прежние.
func (s *FacultyService) Update(ctx context.Context, id string, req models.DummyFaculty) (*models.Faculty, error) {
	const op = "faculty.Update"
	f, err := s.repo.GetFaculty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Name != "" {
		f.Name = req.Name
	}
	if req.Image != "" {
		f.Image = req.Image
	}
	f.Designation = req.Designation
	f.Bio = req.Bio
	if err := s.repo.UpdateFaculty(ctx, *f); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (s *FacultyService) Delete(ctx context.Context, id string) error {
	const op = "faculty.Delete"
	if err := s.repo.DeleteFaculty(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("faculty deleted", slog.String("id", id))
	return nil
}
