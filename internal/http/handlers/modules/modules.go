// Package modules реализует HTTP-обработчики модулей и патологий.
package modules

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medical-education/internal/http/request"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// ModuleService описывает операции над модулями.
type ModuleService interface {
	List(ctx context.Context) ([]models.Module, error)
	Get(ctx context.Context, id string) (*models.Module, error)
	Summaries(ctx context.Context, withSessions bool) ([]models.ModuleSummary, error)
	Create(ctx context.Context, req models.DummyModule) (*models.Module, error)
	Update(ctx context.Context, id string, req models.DummyModule) (*models.Module, error)
}

// PathologyService описывает операции над патологиями.
type PathologyService interface {
	List(ctx context.Context) ([]models.Pathology, error)
	Get(ctx context.Context, id string) (*models.Pathology, error)
	ByModule(ctx context.Context, moduleID string) (*models.ModulePathologies, error)
	Create(ctx context.Context, moduleID string, req models.DummyPathology) (*models.Pathology, error)
	Update(ctx context.Context, id string, req models.DummyPathology) (*models.Pathology, error)
}

// Handler обслуживает маршруты /modules и /pathologies.
type Handler struct {
	log         *slog.Logger
	modules     ModuleService
	pathologies PathologyService
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, modules ModuleService, pathologies PathologyService) *Handler {
	return &Handler{
		log:         log,
		modules:     modules,
		pathologies: pathologies,
		validate:    validator.New(),
	}
}

// List godoc
// @Summary Список модулей
// @Tags Modules
// @Produce json
// @Success 200 {object} response.Response
// @Router /modules [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.List")
	res, err := h.modules.List(r.Context())
	if err != nil {
		response.Fail(w, r, log, err, "could not load modules")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"modules": res,
	}))
}

// Summaries godoc
// @Summary Модули со счётчиками патологий
// @Description При with_sessions=true добавляется число сессий модуля.
// @Tags Modules
// @Produce json
// @Param with_sessions query bool false "Считать сессии"
// @Success 200 {object} response.Response
// @Router /modules/summary [get]
func (h *Handler) Summaries(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.Summaries")
	withSessions, _ := strconv.ParseBool(r.URL.Query().Get("with_sessions"))
	res, err := h.modules.Summaries(r.Context(), withSessions)
	if err != nil {
		response.Fail(w, r, log, err, "could not load modules")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"modules": res,
	}))
}

// Get godoc
// @Summary Модуль по ID
// @Tags Modules
// @Param id path string true "ID модуля"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /modules/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.Get")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.modules.Get(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err, "module not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Create godoc
// @Summary Создание модуля
// @Tags Modules
// @Security BearerAuth
// @Accept json
// @Param request body models.DummyModule true "Модуль"
// @Success 201 {object} response.Response
// @Router /admin/modules [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.Create")
	var req models.DummyModule
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.modules.Create(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create module")
		return
	}
	log.Info("module created", slog.String("id", res.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Update godoc
// @Summary Изменение модуля
// @Tags Modules
// @Security BearerAuth
// @Accept json
// @Param id path string true "ID модуля"
// @Param request body models.DummyModule true "Модуль"
// @Success 200 {object} response.Response
// @Router /admin/modules/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.Update")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyModule
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.modules.Update(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err, "could not update module")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Pathologies godoc
// @Summary Патологии модуля
// @Description Возвращает флаг assessment модуля вместе с патологиями.
// @Tags Pathologies
// @Param id path string true "ID модуля"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /modules/{id}/pathologies [get]
func (h *Handler) Pathologies(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.Pathologies")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.pathologies.ByModule(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err, "module not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// ListPathologies godoc
// @Summary Все патологии
// @Tags Pathologies
// @Success 200 {object} response.Response
// @Router /pathologies [get]
func (h *Handler) ListPathologies(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.ListPathologies")
	res, err := h.pathologies.List(r.Context())
	if err != nil {
		response.Fail(w, r, log, err, "could not load pathologies")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"pathologies": res,
	}))
}

// GetPathology godoc
// @Summary Патология по ID
// @Tags Pathologies
// @Param id path string true "ID патологии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /pathologies/{id} [get]
func (h *Handler) GetPathology(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.GetPathology")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.pathologies.Get(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err, "pathology not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// CreatePathology godoc
// @Summary Создание патологии в модуле
// @Tags Pathologies
// @Security BearerAuth
// @Param id path string true "ID модуля"
// @Param request body models.DummyPathology true "Патология"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/modules/{id}/pathologies [post]
func (h *Handler) CreatePathology(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.CreatePathology")
	moduleID, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyPathology
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.pathologies.Create(r.Context(), moduleID, req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create pathology")
		return
	}
	log.Info("pathology created", slog.String("id", res.ID), slog.String("module_id", moduleID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}

// UpdatePathology godoc
// @Summary Изменение патологии
// @Tags Pathologies
// @Security BearerAuth
// @Param id path string true "ID патологии"
// @Param request body models.DummyPathology true "Патология"
// @Success 200 {object} response.Response
// @Router /admin/pathologies/{id} [put]
func (h *Handler) UpdatePathology(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.modules.UpdatePathology")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyPathology
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.pathologies.Update(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err, "could not update pathology")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
