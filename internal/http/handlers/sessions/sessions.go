// Package sessions реализует HTTP-обработчики каталога сессий: подборки
// для витрины, сессии патологии, рекомендации, история просмотров и
// административное управление сессиями.
package sessions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/http/request"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Service описывает бизнес-логику каталога.
type Service interface {
	Recent(ctx context.Context, viewer models.ViewerAccess) ([]models.ControlledSession, error)
	TopRatedLectures(ctx context.Context, viewer models.ViewerAccess) ([]models.ControlledSession, error)
	TopRatedCases(ctx context.Context, limit int, viewer models.ViewerAccess) ([]models.ControlledSession, error)
	TopWatched(ctx context.Context, viewer models.ViewerAccess) ([]models.ControlledSession, error)
	UpcomingLive(ctx context.Context, limit int, viewer models.ViewerAccess) ([]models.ControlledSession, error)
	ByPathology(ctx context.Context, pathologyID string, page, limit int, viewer models.ViewerAccess) (*models.ControlledPage, error)
	Recommended(ctx context.Context, userID string, viewer models.ViewerAccess) ([]models.ControlledSession, error)
	Get(ctx context.Context, id string, viewer models.ViewerAccess) (*models.ControlledSession, error)
	Watched(ctx context.Context, userID, kind string, limit int) ([]models.WatchedSession, error)
}

// Handler обрабатывает публичные запросы каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op string, fetch func(models.ViewerAccess) ([]models.ControlledSession, error)) {
	log := request.Logger(h.log, r, op)
	res, err := fetch(middlewarectx.ViewerFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not load sessions")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sessions": res,
	}))
}

// Recent godoc
// @Summary Новые сессии всех видов
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Response
// @Router /sessions/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.sessions.Recent", func(v models.ViewerAccess) ([]models.ControlledSession, error) {
		return h.service.Recent(r.Context(), v)
	})
}

// TopRatedLectures godoc
// @Summary Лучшие видеолекции по рейтингу
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Response
// @Router /sessions/top-rated/lectures [get]
func (h *Handler) TopRatedLectures(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.sessions.TopRatedLectures", func(v models.ViewerAccess) ([]models.ControlledSession, error) {
		return h.service.TopRatedLectures(r.Context(), v)
	})
}

// TopRatedCases godoc
// @Summary Лучшие DICOM-кейсы по рейтингу
// @Tags Sessions
// @Produce json
// @Param limit query int false "Количество, 0 — все"
// @Success 200 {object} response.Response
// @Router /sessions/top-rated/cases [get]
func (h *Handler) TopRatedCases(w http.ResponseWriter, r *http.Request) {
	limit := request.Int(r, "limit", 0)
	h.list(w, r, "handlers.sessions.TopRatedCases", func(v models.ViewerAccess) ([]models.ControlledSession, error) {
		return h.service.TopRatedCases(r.Context(), limit, v)
	})
}

// TopWatched godoc
// @Summary Самые просматриваемые сессии
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Response
// @Router /sessions/top-watched [get]
func (h *Handler) TopWatched(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.sessions.TopWatched", func(v models.ViewerAccess) ([]models.ControlledSession, error) {
		return h.service.TopWatched(r.Context(), v)
	})
}

// UpcomingLive godoc
// @Summary Предстоящие живые программы
// @Tags Sessions
// @Produce json
// @Param limit query int false "Количество"
// @Success 200 {object} response.Response
// @Router /sessions/upcoming-live [get]
func (h *Handler) UpcomingLive(w http.ResponseWriter, r *http.Request) {
	limit := request.Int(r, "limit", 0)
	h.list(w, r, "handlers.sessions.UpcomingLive", func(v models.ViewerAccess) ([]models.ControlledSession, error) {
		return h.service.UpcomingLive(r.Context(), limit, v)
	})
}

// Recommended godoc
// @Summary Рекомендации по истории просмотров
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Response
// @Router /sessions/recommended [get]
func (h *Handler) Recommended(w http.ResponseWriter, r *http.Request) {
	userID := middlewarectx.UserUIDFrom(r.Context())
	h.list(w, r, "handlers.sessions.Recommended", func(v models.ViewerAccess) ([]models.ControlledSession, error) {
		return h.service.Recommended(r.Context(), userID, v)
	})
}

// ByPathology godoc
// @Summary Сессии патологии с разбивкой по видам
// @Tags Sessions
// @Produce json
// @Param id path string true "ID патологии"
// @Param page query int false "Страница"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /pathologies/{id}/sessions [get]
func (h *Handler) ByPathology(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.ByPathology")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	page, limit := request.Page(r)
	res, err := h.service.ByPathology(r.Context(), id, page, limit, middlewarectx.ViewerFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not load pathology sessions")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Get godoc
// @Summary Сессия по ID
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /sessions/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.Get")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.service.Get(r.Context(), id, middlewarectx.ViewerFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "session not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Watched godoc
// @Summary История просмотров пользователя
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Param type query string false "Вид сессии или All"
// @Param limit query int false "Количество"
// @Success 200 {object} response.Response
// @Router /sessions/watched [get]
func (h *Handler) Watched(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.Watched")
	res, err := h.service.Watched(r.Context(), middlewarectx.UserUIDFrom(r.Context()),
		r.URL.Query().Get("type"), request.Int(r, "limit", 0))
	if err != nil {
		response.Fail(w, r, log, err, "could not load watched sessions")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sessions": res,
	}))
}

// AdminService описывает административные операции с сессиями.
type AdminService interface {
	List(ctx context.Context, kind string, page, limit int) (*models.SessionPage, error)
	Create(ctx context.Context, req models.DummySession) (*models.Session, error)
	Update(ctx context.Context, id string, kind models.SessionType, req models.DummySession) (*models.Session, error)
	UpdateFaculty(ctx context.Context, id string, kind models.SessionType, facultyIDs []string) (*models.Session, error)
	Delete(ctx context.Context, id string, kind models.SessionType) error
}

// AdminHandler обрабатывает административные запросы.
type AdminHandler struct {
	log      *slog.Logger
	admin    AdminService
	validate *validator.Validate
}

// NewAdmin создает новый экземпляр AdminHandler.
func NewAdmin(log *slog.Logger, admin AdminService) *AdminHandler {
	return &AdminHandler{
		log:      log,
		admin:    admin,
		validate: validator.New(),
	}
}

func kindParam(r *http.Request) models.SessionType {
	return models.SessionType(chi.URLParam(r, "type"))
}

// FacultyRequest — новый список преподавателей сессии.
type FacultyRequest struct {
	FacultyIDs []string `json:"faculty_ids" validate:"dive,uuid"`
}

// List godoc
// @Summary Список сессий для администратора
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param type query string false "Вид сессии или All"
// @Success 200 {object} response.Response
// @Router /admin/sessions [get]
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.List")
	page, limit := request.Page(r)
	res, err := h.admin.List(r.Context(), r.URL.Query().Get("type"), page, limit)
	if err != nil {
		response.Fail(w, r, log, err, "could not list sessions")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Create godoc
// @Summary Создание сессии
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.DummySession true "Сессия"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/sessions [post]
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.Create")
	var req models.DummySession
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.admin.Create(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create session")
		return
	}
	log.Info("session created", slog.String("id", res.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Update godoc
// @Summary Обновление сессии
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param type path string true "Вид сессии"
// @Param id path string true "ID сессии"
// @Param request body models.DummySession true "Сессия"
// @Success 200 {object} response.Response
// @Router /admin/sessions/{type}/{id} [put]
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.Update")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummySession
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.admin.Update(r.Context(), id, kindParam(r), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not update session")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// UpdateFaculty godoc
// @Summary Замена преподавателей сессии
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param type path string true "Вид сессии"
// @Param id path string true "ID сессии"
// @Param request body FacultyRequest true "Преподаватели"
// @Success 200 {object} response.Response
// @Router /admin/sessions/{type}/{id}/faculty [put]
func (h *AdminHandler) UpdateFaculty(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.UpdateFaculty")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req FacultyRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.admin.UpdateFaculty(r.Context(), id, kindParam(r), req.FacultyIDs)
	if err != nil {
		response.Fail(w, r, log, err, "could not update session faculty")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Delete godoc
// @Summary Удаление сессии
// @Tags Admin
// @Security BearerAuth
// @Param type path string true "Вид сессии"
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /admin/sessions/{type}/{id} [delete]
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.sessions.Delete")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.admin.Delete(r.Context(), id, kindParam(r)); err != nil {
		response.Fail(w, r, log, err, "could not delete session")
		return
	}
	log.Info("session deleted", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": id,
	}))
}
