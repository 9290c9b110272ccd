package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateModule(ctx context.Context, mod models.Module) (string, error) {
	args := m.Called(ctx, mod)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) UpdateModule(ctx context.Context, mod models.Module) error {
	return m.Called(ctx, mod).Error(0)
}

func (m *RepoMock) GetModule(ctx context.Context, id string) (*models.Module, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Module), args.Error(1)
}

func (m *RepoMock) ListModules(ctx context.Context) ([]models.Module, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Module), args.Error(1)
}

func (m *RepoMock) ModuleSummaries(ctx context.Context) ([]models.ModuleSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ModuleSummary), args.Error(1)
}

func (m *RepoMock) CreatePathology(ctx context.Context, p models.Pathology) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) UpdatePathology(ctx context.Context, p models.Pathology) error {
	return m.Called(ctx, p).Error(0)
}

func (m *RepoMock) GetPathology(ctx context.Context, id string) (*models.Pathology, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pathology), args.Error(1)
}

func (m *RepoMock) ListPathologies(ctx context.Context, moduleID string) ([]models.Pathology, error) {
	args := m.Called(ctx, moduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Pathology), args.Error(1)
}

type fixedRand int

func (r fixedRand) IntN(n int) int { return min(int(r), n-1) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSummaries_Window(t *testing.T) {
	sessions := 4
	tests := []struct {
		name  string
		start fixedRand
		names []string
		want  []string
	}{
		{"no pathologies", 0, nil, []string{}},
		{"from start", 0, []string{"a", "b", "c", "d"}, []string{"a", "b", "c"}},
		{"clipped at end", 3, []string{"a", "b", "c", "d"}, []string{"d"}},
		{"middle", 1, []string{"a", "b", "c", "d", "e"}, []string{"b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			ctx := context.Background()
			repo.On("ModuleSummaries", ctx).Return([]models.ModuleSummary{{
				ID:                    "m1",
				TotalPathologiesCount: len(tt.names),
				PathologyNames:        tt.names,
				TotalSessionsCount:    &sessions,
			}}, nil)

			got, err := NewModuleService(repo, tt.start, newNoopLogger()).Summaries(ctx, false)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].RandomPathologyNames)
			assert.Nil(t, got[0].TotalSessionsCount)
		})
	}
}

func TestSummaries_WithSessions(t *testing.T) {
	repo := new(RepoMock)
	ctx := context.Background()
	sessions := 7
	repo.On("ModuleSummaries", ctx).Return([]models.ModuleSummary{{ID: "m1", TotalSessionsCount: &sessions}}, nil)

	got, err := NewModuleService(repo, nil, newNoopLogger()).Summaries(ctx, true)
	require.NoError(t, err)
	require.NotNil(t, got[0].TotalSessionsCount)
	assert.Equal(t, 7, *got[0].TotalSessionsCount)
}

func TestModuleGet_NotFound(t *testing.T) {
	repo := new(RepoMock)
	ctx := context.Background()
	repo.On("GetModule", ctx, "m1").Return(nil, models.ErrNotFound)

	_, err := NewModuleService(repo, nil, newNoopLogger()).Get(ctx, "m1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestModuleList_StorageFailure(t *testing.T) {
	repo := new(RepoMock)
	ctx := context.Background()
	dbErr := errors.New("db down")
	repo.On("ListModules", ctx).Return(nil, dbErr)

	_, err := NewModuleService(repo, nil, newNoopLogger()).List(ctx)
	assert.ErrorIs(t, err, dbErr)
}

func TestModuleUpdate_KeepsNameWhenEmpty(t *testing.T) {
	repo := new(RepoMock)
	ctx := context.Background()
	repo.On("GetModule", ctx, "m1").Return(&models.Module{ID: "m1", ModuleName: "Neuro", ImageURL: "/img.png"}, nil)
	repo.On("UpdateModule", ctx, models.Module{ID: "m1", ModuleName: "Neuro", Description: "brain", ImageURL: "/img.png", Assessment: true}).Return(nil)

	got, err := NewModuleService(repo, nil, newNoopLogger()).Update(ctx, "m1", models.DummyModule{Description: "brain", Assessment: true})
	require.NoError(t, err)
	assert.Equal(t, "Neuro", got.ModuleName)
	repo.AssertExpectations(t)
}

func TestPathologyByModule(t *testing.T) {
	ctx := context.Background()

	t.Run("assessment flag from module", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetModule", ctx, "m1").Return(&models.Module{ID: "m1", Assessment: true}, nil)
		repo.On("ListPathologies", ctx, "m1").Return([]models.Pathology{{ID: "p1"}}, nil)

		got, err := NewPathologyService(repo, newNoopLogger()).ByModule(ctx, "m1")
		require.NoError(t, err)
		assert.True(t, got.Assessment)
		assert.Len(t, got.Pathologies, 1)
	})

	t.Run("unknown module", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetModule", ctx, "m1").Return(nil, models.ErrNotFound)

		_, err := NewPathologyService(repo, newNoopLogger()).ByModule(ctx, "m1")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPathologyCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetModule", ctx, "m1").Return(&models.Module{ID: "m1"}, nil)
		repo.On("CreatePathology", ctx, models.Pathology{PathologyName: "Glioma", ModuleID: "m1"}).Return("p1", nil)
		repo.On("GetPathology", ctx, "p1").Return(&models.Pathology{ID: "p1", PathologyName: "Glioma", ModuleID: "m1"}, nil)

		got, err := NewPathologyService(repo, newNoopLogger()).Create(ctx, "m1", models.DummyPathology{PathologyName: "Glioma"})
		require.NoError(t, err)
		assert.Equal(t, "p1", got.ID)
	})

	t.Run("module missing", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetModule", ctx, "m1").Return(nil, models.ErrNotFound)

		_, err := NewPathologyService(repo, newNoopLogger()).Create(ctx, "m1", models.DummyPathology{PathologyName: "Glioma"})
		assert.ErrorIs(t, err, models.ErrNotFound)
		repo.AssertNotCalled(t, "CreatePathology", mock.Anything, mock.Anything)
	})
}
