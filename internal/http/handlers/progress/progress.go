// Package progress реализует HTTP-обработчики прогресса прохождения сессий.
package progress

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/http/request"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Service описывает трекер прогресса.
type Service interface {
	UpdateLectureProgress(ctx context.Context, userID, sessionID string, currentTime, duration float64) (*models.ProgressReport, error)
	StartLecture(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error)
	TrackView(ctx context.Context, userID, sessionID string) (*models.SessionView, error)
	MarkCaseStarted(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error)
	MarkCaseCompleted(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error)
	GetProgress(ctx context.Context, userID, sessionID string) (*models.ProgressReport, error)
	InProgress(ctx context.Context, userID string) ([]models.ViewedSession, error)
	Completed(ctx context.Context, userID string) ([]models.ViewedSession, error)
	Stats(ctx context.Context, userID string) (*models.ProgressStats, error)
}

// LectureRequest — позиция воспроизведения лекции в секундах.
type LectureRequest struct {
	CurrentTime *float64 `json:"current_time" validate:"required,gte=0"`
	Duration    *float64 `json:"duration" validate:"required,gte=0"`
}

// Handler обрабатывает запросы прогресса текущего пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// sessionEvent выполняет событие над сессией из пути.
func (h *Handler) sessionEvent(w http.ResponseWriter, r *http.Request, op, msg string, event func(userID, sessionID string) (any, error)) {
	log := request.Logger(h.log, r, op)
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := event(middlewarectx.UserUIDFrom(r.Context()), id)
	if err != nil {
		response.Fail(w, r, log, err, msg)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// UpdateLecture godoc
// @Summary Обновление позиции просмотра лекции
// @Description Лекция считается пройденной с 80% длительности.
// @Tags Progress
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body LectureRequest true "Позиция"
// @Success 200 {object} response.Response
// @Router /progress/lectures/{id} [post]
func (h *Handler) UpdateLecture(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.progress.UpdateLecture")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req LectureRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.UpdateLectureProgress(r.Context(), middlewarectx.UserUIDFrom(r.Context()), id, *req.CurrentTime, *req.Duration)
	if err != nil {
		response.Fail(w, r, log, err, "could not update progress")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// StartLecture godoc
// @Summary Начало просмотра лекции
// @Tags Progress
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /progress/lectures/{id}/start [post]
func (h *Handler) StartLecture(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, "handlers.progress.StartLecture", "could not start lecture", func(u, s string) (any, error) {
		return h.service.StartLecture(r.Context(), u, s)
	})
}

// TrackView godoc
// @Summary Учёт просмотра сессии
// @Tags Progress
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /progress/sessions/{id}/view [post]
func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, "handlers.progress.TrackView", "could not track view", func(u, s string) (any, error) {
		return h.service.TrackView(r.Context(), u, s)
	})
}

// StartCase godoc
// @Summary Начало разбора DICOM-кейса
// @Tags Progress
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /progress/cases/{id}/start [post]
func (h *Handler) StartCase(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, "handlers.progress.StartCase", "could not start case", func(u, s string) (any, error) {
		return h.service.MarkCaseStarted(r.Context(), u, s)
	})
}

// CompleteCase godoc
// @Summary Завершение DICOM-кейса
// @Tags Progress
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /progress/cases/{id}/complete [post]
func (h *Handler) CompleteCase(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, "handlers.progress.CompleteCase", "could not complete case", func(u, s string) (any, error) {
		return h.service.MarkCaseCompleted(r.Context(), u, s)
	})
}

// Get godoc
// @Summary Прогресс по сессии
// @Tags Progress
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /progress/sessions/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, "handlers.progress.Get", "could not load progress", func(u, s string) (any, error) {
		return h.service.GetProgress(r.Context(), u, s)
	})
}

func (h *Handler) viewed(w http.ResponseWriter, r *http.Request, op string, fetch func(context.Context, string) ([]models.ViewedSession, error)) {
	log := request.Logger(h.log, r, op)
	res, err := fetch(r.Context(), middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not load sessions")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sessions": res,
	}))
}

// InProgress godoc
// @Summary Начатые и не завершённые сессии
// @Tags Progress
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /progress/in-progress [get]
func (h *Handler) InProgress(w http.ResponseWriter, r *http.Request) {
	h.viewed(w, r, "handlers.progress.InProgress", h.service.InProgress)
}

// Completed godoc
// @Summary Завершённые сессии
// @Tags Progress
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /progress/completed [get]
func (h *Handler) Completed(w http.ResponseWriter, r *http.Request) {
	h.viewed(w, r, "handlers.progress.Completed", h.service.Completed)
}

// Stats godoc
// @Summary Сводная статистика прогресса
// @Tags Progress
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /progress/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.progress.Stats")
	res, err := h.service.Stats(r.Context(), middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not load stats")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
