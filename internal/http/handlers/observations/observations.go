// Package observations реализует HTTP-обработчики наблюдений к DICOM-кейсам.
package observations

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

// Service описывает операции над наблюдениями и ответами пользователей.
type Service interface {
	Create(ctx context.Context, req models.DummyObservation) (*models.Observation, error)
	SetFaculty(ctx context.Context, id, text string) (*models.Observation, error)
	AddUserObservation(ctx context.Context, userID, observationID, text string) (*models.UserObservation, error)
	SubmitAll(ctx context.Context, userID string, items []models.DummyUserObservation) (int, error)
	BySession(ctx context.Context, sessionID string) ([]models.Observation, error)
	WithResponses(ctx context.Context, id string) (*models.ObservationWithResponses, error)
	Compare(ctx context.Context, sessionID, userID string) ([]models.ObservationComparison, error)
	Mine(ctx context.Context, userID string) ([]models.UserObservation, error)
}

// FacultyRequest — эталонный ответ преподавателя.
type FacultyRequest struct {
	FacultyObservation string `json:"faculty_observation" validate:"required"`
}

// ResponseRequest — ответ пользователя на одно наблюдение.
type ResponseRequest struct {
	UserObservation string `json:"user_observation" validate:"required"`
}

// SubmitRequest — все ответы пользователя по кейсу.
type SubmitRequest struct {
	Observations []models.DummyUserObservation `json:"observations" validate:"required,min=1,dive"`
}

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

// Create godoc
// @Summary Новое наблюдение к DICOM-кейсу
// @Tags Observations
// @Security BearerAuth
// @Accept json
// @Param request body models.DummyObservation true "Наблюдение"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/observations [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.Create")
	var req models.DummyObservation
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.Create(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create observation")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}

// SetFaculty godoc
// @Summary Эталонный ответ преподавателя
// @Tags Observations
// @Security BearerAuth
// @Param id path string true "ID наблюдения"
// @Param request body FacultyRequest true "Ответ"
// @Success 200 {object} response.Response
// @Router /admin/observations/{id}/faculty [put]
func (h *Handler) SetFaculty(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.SetFaculty")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req FacultyRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.SetFaculty(r.Context(), id, req.FacultyObservation)
	if err != nil {
		response.Fail(w, r, log, err, "could not update observation")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// WithResponses godoc
// @Summary Наблюдение с ответами пользователей
// @Tags Observations
// @Security BearerAuth
// @Param id path string true "ID наблюдения"
// @Success 200 {object} response.Response
// @Router /admin/observations/{id} [get]
func (h *Handler) WithResponses(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.WithResponses")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.service.WithResponses(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err, "observation not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// BySession godoc
// @Summary Наблюдения сессии
// @Tags Observations
// @Security BearerAuth
// @Param sessionID path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /observations/session/{sessionID} [get]
func (h *Handler) BySession(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.BySession")
	sessionID, ok := request.ID(w, r, log, "sessionID")
	if !ok {
		return
	}
	res, err := h.service.BySession(r.Context(), sessionID)
	if err != nil {
		response.Fail(w, r, log, err, "could not load observations")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"observations": res,
	}))
}

// Compare godoc
// @Summary Сравнение ответов пользователя с эталоном
// @Tags Observations
// @Security BearerAuth
// @Param sessionID path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /observations/session/{sessionID}/compare [get]
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.Compare")
	sessionID, ok := request.ID(w, r, log, "sessionID")
	if !ok {
		return
	}
	res, err := h.service.Compare(r.Context(), sessionID, middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not compare observations")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"comparisons": res,
	}))
}

// Respond godoc
// @Summary Ответ пользователя на наблюдение
// @Tags Observations
// @Security BearerAuth
// @Param id path string true "ID наблюдения"
// @Param request body ResponseRequest true "Ответ"
// @Success 200 {object} response.Response
// @Router /observations/{id}/responses [post]
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.Respond")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req ResponseRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.AddUserObservation(r.Context(), middlewarectx.UserUIDFrom(r.Context()), id, req.UserObservation)
	if err != nil {
		response.Fail(w, r, log, err, "could not save response")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Submit godoc
// @Summary Отправка всех ответов по кейсу
// @Description Сохраняет ответы и отмечает затронутые DICOM-кейсы завершёнными.
// @Tags Observations
// @Security BearerAuth
// @Param request body SubmitRequest true "Ответы"
// @Success 200 {object} response.Response
// @Router /observations/submit [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.Submit")
	var req SubmitRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	n, err := h.service.SubmitAll(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req.Observations)
	if err != nil {
		response.Fail(w, r, log, err, "could not submit observations")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"saved": n,
	}))
}

// Mine godoc
// @Summary Ответы текущего пользователя
// @Tags Observations
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /observations/mine [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.observations.Mine")
	res, err := h.service.Mine(r.Context(), middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not load observations")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"observations": res,
	}))
}
