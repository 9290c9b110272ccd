// Package services реализует наблюдения по DICOM-кейсам: эталонные ответы
// преподавателя и ответы пользователей.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// ObservationRepository описывает хранилище наблюдений.
type ObservationRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	CreateObservation(ctx context.Context, o models.Observation) (string, error)
	SetFacultyObservation(ctx context.Context, id, text string) error
	GetObservation(ctx context.Context, id string) (*models.Observation, error)
	ObservationsBySession(ctx context.Context, sessionID string) ([]models.Observation, error)
	UpsertUserObservations(ctx context.Context, items []models.UserObservation) ([]models.UserObservation, error)
	UserObservationsByObservation(ctx context.Context, observationID string) ([]models.UserObservation, error)
	UserObservationsByUser(ctx context.Context, userID, sessionID string) ([]models.UserObservation, error)
}

// CaseTracker отмечает DICOM-кейс завершённым.
type CaseTracker interface {
	MarkCaseCompleted(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error)
}

type ObservationService struct {
	repo    ObservationRepository
	tracker CaseTracker
	log     *slog.Logger
}

// NewObservationService создает новый экземпляр ObservationService.
func NewObservationService(repo ObservationRepository, tracker CaseTracker, log *slog.Logger) *ObservationService {
	return &ObservationService{
		repo:    repo,
		tracker: tracker,
		log:     log,
	}
}

// Create добавляет наблюдение к DICOM-сессии.
func (s *ObservationService) Create(ctx context.Context, req models.DummyObservation) (*models.Observation, error) {
	const op = "observation.Create"
	sess, err := s.repo.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sess.SessionType != models.SessionTypeDicom {
		return nil, fmt.Errorf("%s: observations can only be added to dicom sessions: %w", op, models.ErrBadInput)
	}
	id, err := s.repo.CreateObservation(ctx, models.Observation{
		SessionID:       req.SessionID,
		ObservationText: req.ObservationText,
		Module:          req.Module,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("observation created", slog.String("id", id), slog.String("session_id", req.SessionID))
	return s.get(ctx, op, id)
}

func (s *ObservationService) get(ctx context.Context, op, id string) (*models.Observation, error) {
	o, err := s.repo.GetObservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// SetFaculty записывает эталонный ответ преподавателя.
func (s *ObservationService) SetFaculty(ctx context.Context, id, text string) (*models.Observation, error) {
	const op = "observation.SetFaculty"
	if err := s.repo.SetFacultyObservation(ctx, id, text); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.get(ctx, op, id)
}

// AddUserObservation сохраняет ответ пользователя на одно наблюдение.
func (s *ObservationService) AddUserObservation(ctx context.Context, userID, observationID, text string) (*models.UserObservation, error) {
	const op = "observation.AddUserObservation"
	if _, err := s.get(ctx, op, observationID); err != nil {
		return nil, err
	}
	saved, err := s.repo.UpsertUserObservations(ctx, []models.UserObservation{{
		ObservationID:   observationID,
		UserID:          userID,
		UserObservation: text,
	}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("%s: nothing saved", op)
	}
	return &saved[0], nil
}

// SubmitAll сохраняет все ответы пользователя разом и отмечает затронутые
// DICOM-кейсы завершёнными. Возвращает число сохранённых ответов.
func (s *ObservationService) SubmitAll(ctx context.Context, userID string, items []models.DummyUserObservation) (int, error) {
	const op = "observation.SubmitAll"
	if len(items) == 0 {
		return 0, fmt.Errorf("%s: no observations submitted: %w", op, models.ErrBadInput)
	}

	var (
		batch    = make([]models.UserObservation, 0, len(items))
		sessions []string
		seen     = make(map[string]bool)
	)
	for _, it := range items {
		if it.ObservationID == "" {
			return 0, fmt.Errorf("%s: observation id is required: %w", op, models.ErrBadInput)
		}
		obs, err := s.get(ctx, op, it.ObservationID)
		if err != nil {
			return 0, err
		}
		batch = append(batch, models.UserObservation{
			ObservationID:   obs.ID,
			UserID:          userID,
			UserObservation: it.UserObservation,
		})
		if !seen[obs.SessionID] {
			seen[obs.SessionID] = true
			sessions = append(sessions, obs.SessionID)
		}
	}

	saved, err := s.repo.UpsertUserObservations(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, sessionID := range sessions {
		if _, err := s.tracker.MarkCaseCompleted(ctx, userID, sessionID); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	s.log.Info("user observations submitted",
		slog.String("user_id", userID),
		slog.Int("count", len(saved)),
		slog.Int("cases", len(sessions)),
	)
	return len(saved), nil
}

// BySession возвращает наблюдения сессии.
func (s *ObservationService) BySession(ctx context.Context, sessionID string) ([]models.Observation, error) {
	const op = "observation.BySession"
	items, err := s.repo.ObservationsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// WithResponses возвращает наблюдение вместе со всеми ответами пользователей.
func (s *ObservationService) WithResponses(ctx context.Context, id string) (*models.ObservationWithResponses, error) {
	const op = "observation.WithResponses"
	obs, err := s.get(ctx, op, id)
	if err != nil {
		return nil, err
	}
	responses, err := s.repo.UserObservationsByObservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ObservationWithResponses{Observation: *obs, UserResponses: responses}, nil
}

// Compare сопоставляет ответы пользователя с эталоном по каждому наблюдению сессии.
// Отсутствующий ответ возвращается пустой строкой.
func (s *ObservationService) Compare(ctx context.Context, sessionID, userID string) ([]models.ObservationComparison, error) {
	const op = "observation.Compare"
	observations, err := s.repo.ObservationsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("%s: no observations for session: %w", op, models.ErrNotFound)
	}
	answers, err := s.repo.UserObservationsByUser(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byObservation := make(map[string]string, len(answers))
	for _, a := range answers {
		byObservation[a.ObservationID] = a.UserObservation
	}

	result := make([]models.ObservationComparison, 0, len(observations))
	for _, o := range observations {
		result = append(result, models.ObservationComparison{
			ObservationID:      o.ID,
			ObservationText:    o.ObservationText,
			Module:             o.Module,
			FacultyObservation: o.FacultyObservation,
			UserObservation:    byObservation[o.ID],
		})
	}
	return result, nil
}

// Mine возвращает все ответы пользователя.
func (s *ObservationService) Mine(ctx context.Context, userID string) ([]models.UserObservation, error) {
	const op = "observation.Mine"
	items, err := s.repo.UserObservationsByUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}
