package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// normalizeType приводит тип из запроса к хранимому виду. Zoom хранится как Live.
func normalizeType(op string, t models.SessionType) (models.SessionType, error) {
	switch models.SessionType(strings.TrimSpace(string(t))) {
	case models.SessionTypeDicom:
		return models.SessionTypeDicom, nil
	case models.SessionTypeVimeo:
		return models.SessionTypeVimeo, nil
	case models.SessionTypeZoom, models.SessionTypeLive:
		return models.SessionTypeLive, nil
	}
	return "", fmt.Errorf("%s: invalid session type %q: %w", op, t, models.ErrBadInput)
}

func validateKind(op string, sess models.Session) error {
	switch sess.SessionType {
	case models.SessionTypeDicom:
		if sess.DicomCaseID == "" {
			return fmt.Errorf("%s: dicom case id is required: %w", op, models.ErrBadInput)
		}
	case models.SessionTypeVimeo:
		if sess.VimeoVideoID == "" && sess.VideoURL == "" {
			return fmt.Errorf("%s: vimeo video id or url is required: %w", op, models.ErrBadInput)
		}
	case models.SessionTypeLive:
		if sess.StartDate == nil {
			return fmt.Errorf("%s: start date is required: %w", op, models.ErrBadInput)
		}
	}
	return nil
}

func fromDummy(req models.DummySession) models.Session {
	sess := models.Session{
		Title:             req.Title,
		Description:       req.Description,
		ModuleID:          req.ModuleID,
		ModuleName:        req.ModuleName,
		PathologyID:       req.PathologyID,
		PathologyName:     req.PathologyName,
		Difficulty:        req.Difficulty,
		IsFree:            req.IsFree,
		Sponsored:         req.Sponsored,
		ImageURL1920x1080: req.ImageURL1920x1080,
		ImageURL522x760:   req.ImageURL522x760,
		SessionType:       req.SessionType,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		ResourceLinks:     req.ResourceLinks,
		IsAssessment:      req.IsAssessment,
		DicomStudyID:      req.DicomStudyID,
		DicomCaseID:       req.DicomCaseID,
		DicomCaseVideoURL: req.DicomCaseVideoURL,
		CaseAccessType:    req.CaseAccessType,
		SessionDuration:   req.SessionDuration,
		VimeoVideoID:      req.VimeoVideoID,
		VideoURL:          req.VideoURL,
		VideoType:         req.VideoType,
		ZoomMeetingID:     req.ZoomMeetingID,
		ZoomPassword:      req.ZoomPassword,
		ZoomJoinURL:       req.ZoomJoinURL,
		ZoomBackupLink:    req.ZoomBackupLink,
		VimeoLiveURL:      req.VimeoLiveURL,
		LiveProgramType:   req.LiveProgramType,
	}
	for _, id := range req.FacultyIDs {
		sess.Faculty = append(sess.Faculty, models.FacultyRef{ID: id})
	}
	return sess
}

func (s *CatalogService) checkFaculty(ctx context.Context, op string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	n, err := s.repo.CountFaculty(ctx, unique)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n != len(unique) {
		return fmt.Errorf("%s: unknown faculty: %w", op, models.ErrBadInput)
	}
	return nil
}

func (s *CatalogService) resolvePathology(ctx context.Context, op string, sess *models.Session) error {
	if sess.PathologyID == "" {
		return nil
	}
	p, err := s.repo.GetPathology(ctx, sess.PathologyID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: unknown pathology: %w", op, models.ErrBadInput)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sess.PathologyName = p.PathologyName
	if sess.ModuleID == "" {
		sess.ModuleID = p.ModuleID
	}
	return nil
}

func (s *CatalogService) dropRecent(ctx context.Context, op string) {
	if err := s.cache.Invalidate(ctx, recentCacheKey); err != nil {
		s.log.Warn("failed to invalidate recent sessions", sl.Op(op), sl.Err(err))
	}
}

// Create создаёт сессию. Обязательные поля зависят от вида сессии.
func (s *CatalogService) Create(ctx context.Context, req models.DummySession) (*models.Session, error) {
	const op = "catalog.Create"
	kind, err := normalizeType(op, req.SessionType)
	if err != nil {
		return nil, err
	}
	sess := fromDummy(req)
	sess.SessionType = kind
	if err := validateKind(op, sess); err != nil {
		return nil, err
	}
	if err := s.resolvePathology(ctx, op, &sess); err != nil {
		return nil, err
	}
	if err := s.checkFaculty(ctx, op, req.FacultyIDs); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateSession(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.dropRecent(ctx, op)
	s.log.Info("session created", slog.String("id", id), slog.String("type", string(kind)))

	created, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *CatalogService) existing(ctx context.Context, op, id string, kind models.SessionType, fold bool) (*models.Session, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	match := sess.SessionType == kind
	if fold {
		match = strings.EqualFold(string(sess.SessionType), string(kind))
	}
	if !match {
		return nil, fmt.Errorf("%s: session type mismatch, expected %s, got %s: %w",
			op, sess.SessionType, kind, models.ErrBadInput)
	}
	return sess, nil
}

// Update перезаписывает сессию. kind должен совпадать с хранимым видом.
func (s *CatalogService) Update(ctx context.Context, id string, kind models.SessionType, req models.DummySession) (*models.Session, error) {
	const op = "catalog.Update"
	current, err := s.existing(ctx, op, id, kind, false)
	if err != nil {
		return nil, err
	}

	sess := fromDummy(req)
	sess.ID = id
	sess.SessionType = current.SessionType
	if err := validateKind(op, sess); err != nil {
		return nil, err
	}
	if err := s.resolvePathology(ctx, op, &sess); err != nil {
		return nil, err
	}
	if err := s.checkFaculty(ctx, op, req.FacultyIDs); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSession(ctx, sess, req.FacultyIDs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.dropRecent(ctx, op)

	updated, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// UpdateFaculty заменяет преподавателей сессии. Вид сравнивается без учёта регистра.
func (s *CatalogService) UpdateFaculty(ctx context.Context, id string, kind models.SessionType, facultyIDs []string) (*models.Session, error) {
	const op = "catalog.UpdateFaculty"
	if _, err := s.existing(ctx, op, id, kind, true); err != nil {
		return nil, err
	}
	if err := s.checkFaculty(ctx, op, facultyIDs); err != nil {
		return nil, err
	}
	if err := s.repo.SetSessionFaculty(ctx, id, facultyIDs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.dropRecent(ctx, op)

	updated, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Delete удаляет сессию. kind должен совпадать с хранимым видом.
func (s *CatalogService) Delete(ctx context.Context, id string, kind models.SessionType) error {
	const op = "catalog.Delete"
	if _, err := s.existing(ctx, op, id, kind, false); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.dropRecent(ctx, op)
	s.log.Info("session deleted", slog.String("id", id))
	return nil
}
