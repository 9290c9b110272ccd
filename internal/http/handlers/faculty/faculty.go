// Package faculty реализует HTTP-обработчики преподавателей.
package faculty

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medical-education/internal/http/request"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Service описывает CRUD преподавателей.
type Service interface {
	List(ctx context.Context) ([]models.Faculty, error)
	Get(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, req models.DummyFaculty) (*models.Faculty, error)
	Update(ctx context.Context, id string, req models.DummyFaculty) (*models.Faculty, error)
	Delete(ctx context.Context, id string) error
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

// List godoc
// @Summary Список преподавателей
// @Tags Faculty
// @Success 200 {object} response.Response
// @Router /faculty [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.faculty.List")
	res, err := h.service.List(r.Context())
	if err != nil {
		response.Fail(w, r, log, err, "could not load faculty")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"faculty": res,
	}))
}

// Get godoc
// @Summary Преподаватель по ID
// @Tags Faculty
// @Param id path string true "ID преподавателя"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /faculty/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.faculty.Get")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err, "faculty not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Create godoc
// @Summary Добавление преподавателя
// @Tags Faculty
// @Security BearerAuth
// @Param request body models.DummyFaculty true "Преподаватель"
// @Success 201 {object} response.Response
// @Router /admin/faculty [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.faculty.Create")
	var req models.DummyFaculty
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.Create(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create faculty")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Update godoc
// @Summary Изменение преподавателя
// @Tags Faculty
// @Security BearerAuth
// @Param id path string true "ID преподавателя"
// @Param request body models.DummyFaculty true "Преподаватель"
// @Success 200 {object} response.Response
// @Router /admin/faculty/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.faculty.Update")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyFaculty
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err, "could not update faculty")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Delete godoc
// @Summary Удаление преподавателя
// @Tags Faculty
// @Security BearerAuth
// @Param id path string true "ID преподавателя"
// @Success 200 {object} response.Response
// @Router /admin/faculty/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.faculty.Delete")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.Fail(w, r, log, err, "could not delete faculty")
		return
	}
	log.Info("faculty deleted", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": id,
	}))
}
