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

func (m *RepoMock) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *RepoMock) CreateObservation(ctx context.Context, o models.Observation) (string, error) {
	args := m.Called(ctx, o)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) SetFacultyObservation(ctx context.Context, id, text string) error {
	return m.Called(ctx, id, text).Error(0)
}

func (m *RepoMock) GetObservation(ctx context.Context, id string) (*models.Observation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Observation), args.Error(1)
}

func (m *RepoMock) ObservationsBySession(ctx context.Context, sessionID string) ([]models.Observation, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Observation), args.Error(1)
}

func (m *RepoMock) UpsertUserObservations(ctx context.Context, items []models.UserObservation) ([]models.UserObservation, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserObservation), args.Error(1)
}

func (m *RepoMock) UserObservationsByObservation(ctx context.Context, observationID string) ([]models.UserObservation, error) {
	args := m.Called(ctx, observationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserObservation), args.Error(1)
}

func (m *RepoMock) UserObservationsByUser(ctx context.Context, userID, sessionID string) ([]models.UserObservation, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserObservation), args.Error(1)
}

type TrackerMock struct{ mock.Mock }

func (m *TrackerMock) MarkCaseCompleted(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressReport), args.Error(1)
}

func newService(repo *RepoMock, tracker *TrackerMock) *ObservationService {
	return NewObservationService(repo, tracker, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	req := models.DummyObservation{SessionID: "s1", ObservationText: "Describe the lesion", Module: "Neuro"}

	t.Run("dicom session", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSession", ctx, "s1").Return(&models.Session{ID: "s1", SessionType: models.SessionTypeDicom}, nil)
		repo.On("CreateObservation", ctx, models.Observation{SessionID: "s1", ObservationText: "Describe the lesion", Module: "Neuro"}).Return("o1", nil)
		repo.On("GetObservation", ctx, "o1").Return(&models.Observation{ID: "o1", SessionID: "s1"}, nil)

		got, err := newService(repo, new(TrackerMock)).Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "o1", got.ID)
	})

	t.Run("lecture rejected", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSession", ctx, "s1").Return(&models.Session{ID: "s1", SessionType: models.SessionTypeVimeo}, nil)

		_, err := newService(repo, new(TrackerMock)).Create(ctx, req)
		assert.ErrorIs(t, err, models.ErrBadInput)
		repo.AssertNotCalled(t, "CreateObservation", mock.Anything, mock.Anything)
	})

	t.Run("missing session", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSession", ctx, "s1").Return(nil, models.ErrNotFound)

		_, err := newService(repo, new(TrackerMock)).Create(ctx, req)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestSetFaculty_NotFound(t *testing.T) {
	repo := new(RepoMock)
	ctx := context.Background()
	repo.On("SetFacultyObservation", ctx, "o1", "Glioblastoma").Return(models.ErrNotFound)

	_, err := newService(repo, new(TrackerMock)).SetFaculty(ctx, "o1", "Glioblastoma")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmitAll_MarksCasesCompleted(t *testing.T) {
	repo := new(RepoMock)
	tracker := new(TrackerMock)
	ctx := context.Background()

	repo.On("GetObservation", ctx, "o1").Return(&models.Observation{ID: "o1", SessionID: "s1"}, nil)
	repo.On("GetObservation", ctx, "o2").Return(&models.Observation{ID: "o2", SessionID: "s1"}, nil)
	repo.On("GetObservation", ctx, "o3").Return(&models.Observation{ID: "o3", SessionID: "s2"}, nil)
	repo.On("UpsertUserObservations", ctx, mock.MatchedBy(func(items []models.UserObservation) bool {
		return len(items) == 3 && items[0].UserID == "u1"
	})).Return([]models.UserObservation{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil)
	tracker.On("MarkCaseCompleted", ctx, "u1", "s1").Return(&models.ProgressReport{Status: models.StatusCompleted}, nil).Once()
	tracker.On("MarkCaseCompleted", ctx, "u1", "s2").Return(&models.ProgressReport{Status: models.StatusCompleted}, nil).Once()

	n, err := newService(repo, tracker).SubmitAll(ctx, "u1", []models.DummyUserObservation{
		{ObservationID: "o1", UserObservation: "mass"},
		{ObservationID: "o2", UserObservation: "edema"},
		{ObservationID: "o3", UserObservation: "normal"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	tracker.AssertExpectations(t)
}

func TestSubmitAll_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		_, err := newService(new(RepoMock), new(TrackerMock)).SubmitAll(ctx, "u1", nil)
		assert.ErrorIs(t, err, models.ErrBadInput)
	})

	t.Run("unknown observation", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetObservation", ctx, "o1").Return(nil, models.ErrNotFound)

		_, err := newService(repo, new(TrackerMock)).SubmitAll(ctx, "u1", []models.DummyUserObservation{{ObservationID: "o1", UserObservation: "x"}})
		assert.ErrorIs(t, err, models.ErrNotFound)
		repo.AssertNotCalled(t, "UpsertUserObservations", mock.Anything, mock.Anything)
	})

	t.Run("tracker failure", func(t *testing.T) {
		repo := new(RepoMock)
		tracker := new(TrackerMock)
		trackErr := errors.New("db down")
		repo.On("GetObservation", ctx, "o1").Return(&models.Observation{ID: "o1", SessionID: "s1"}, nil)
		repo.On("UpsertUserObservations", ctx, mock.Anything).Return([]models.UserObservation{{ID: "a"}}, nil)
		tracker.On("MarkCaseCompleted", ctx, "u1", "s1").Return(nil, trackErr)

		_, err := newService(repo, tracker).SubmitAll(ctx, "u1", []models.DummyUserObservation{{ObservationID: "o1", UserObservation: "x"}})
		assert.ErrorIs(t, err, trackErr)
	})
}

func TestCompare(t *testing.T) {
	ctx := context.Background()

	t.Run("missing answers are empty", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ObservationsBySession", ctx, "s1").Return([]models.Observation{
			{ID: "o1", ObservationText: "q1", FacultyObservation: "f1"},
			{ID: "o2", ObservationText: "q2"},
		}, nil)
		repo.On("UserObservationsByUser", ctx, "u1", "s1").Return([]models.UserObservation{
			{ObservationID: "o1", UserObservation: "mine"},
		}, nil)

		got, err := newService(repo, new(TrackerMock)).Compare(ctx, "s1", "u1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "mine", got[0].UserObservation)
		assert.Equal(t, "f1", got[0].FacultyObservation)
		assert.Empty(t, got[1].UserObservation)
	})

	t.Run("no observations", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ObservationsBySession", ctx, "s1").Return([]models.Observation{}, nil)

		_, err := newService(repo, new(TrackerMock)).Compare(ctx, "s1", "u1")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestWithResponses(t *testing.T) {
	repo := new(RepoMock)
	ctx := context.Background()
	repo.On("GetObservation", ctx, "o1").Return(&models.Observation{ID: "o1"}, nil)
	repo.On("UserObservationsByObservation", ctx, "o1").Return([]models.UserObservation{{ID: "a"}, {ID: "b"}}, nil)

	got, err := newService(repo, new(TrackerMock)).WithResponses(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", got.ID)
	assert.Len(t, got.UserResponses, 2)
}
