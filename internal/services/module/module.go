// Package services реализует модули и патологии учебного каталога.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const pathologyNamesWindow = 3

// ModuleRepository описывает хранилище модулей.
type ModuleRepository interface {
	CreateModule(ctx context.Context, m models.Module) (string, error)
	UpdateModule(ctx context.Context, m models.Module) error
	GetModule(ctx context.Context, id string) (*models.Module, error)
	ListModules(ctx context.Context) ([]models.Module, error)
	ModuleSummaries(ctx context.Context) ([]models.ModuleSummary, error)
}

// Rand источник случайных чисел для окна названий патологий.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ModuleService управляет модулями.
type ModuleService struct {
	repo ModuleRepository
	rnd  Rand
	log  *slog.Logger
}

// NewModuleService создает новый экземпляр ModuleService. rnd может быть nil.
func NewModuleService(repo ModuleRepository, rnd Rand, log *slog.Logger) *ModuleService {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &ModuleService{
		repo: repo,
		rnd:  rnd,
		log:  log,
	}
}

// List возвращает все модули.
func (s *ModuleService) List(ctx context.Context) ([]models.Module, error) {
	const op = "module.List"
	modules, err := s.repo.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return modules, nil
}

// Get возвращает модуль по ID.
func (s *ModuleService) Get(ctx context.Context, id string) (*models.Module, error) {
	const op = "module.Get"
	m, err := s.repo.GetModule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// Summaries возвращает модули с числом патологий и до трёх названий патологий,
// начиная со случайной позиции. withSessions добавляет число сессий модуля.
func (s *ModuleService) Summaries(ctx context.Context, withSessions bool) ([]models.ModuleSummary, error) {
	const op = "module.Summaries"
	summaries, err := s.repo.ModuleSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range summaries {
		summaries[i].RandomPathologyNames = s.window(summaries[i].PathologyNames)
		if !withSessions {
			summaries[i].TotalSessionsCount = nil
		}
	}
	return summaries, nil
}

func (s *ModuleService) window(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	start := s.rnd.IntN(len(names))
	end := min(start+pathologyNamesWindow, len(names))
	return append([]string(nil), names[start:end]...)
}

// Create создаёт модуль.
func (s *ModuleService) Create(ctx context.Context, req models.DummyModule) (*models.Module, error) {
	const op = "module.Create"
	id, err := s.repo.CreateModule(ctx, models.Module{
		ModuleName:  req.ModuleName,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Assessment:  req.Assessment,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("module created", slog.String("id", id))
	return s.Get(ctx, id)
}

// Update изменяет модуль. Пустое название оставляет прежнее.
func (s *ModuleService) Update(ctx context.Context, id string, req models.DummyModule) (*models.Module, error) {
	const op = "module.Update"
	m, err := s.repo.GetModule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.ModuleName != "" {
		m.ModuleName = req.ModuleName
	}
	m.Description = req.Description
	if req.ImageURL != "" {
		m.ImageURL = req.ImageURL
	}
	m.Assessment = req.Assessment
	if err := s.repo.UpdateModule(ctx, *m); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}
