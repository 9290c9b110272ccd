// Package reviews реализует HTTP-обработчики отзывов о сессиях.
package reviews

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

// Service описывает операции над отзывами.
type Service interface {
	Latest(ctx context.Context, itemID string) ([]models.Review, error)
	Mine(ctx context.Context, userID, itemID string) (*models.Review, error)
	Create(ctx context.Context, userID string, req models.DummyReview) (*models.Review, error)
	Update(ctx context.Context, userID, reviewID string, patch models.ReviewPatch) (*models.Review, error)
	Delete(ctx context.Context, userID, reviewID string) error
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

// Latest godoc
// @Summary Последние отзывы о сессии
// @Tags Reviews
// @Param itemID path string true "ID сессии"
// @Success 200 {object} response.Response
// @Router /reviews/item/{itemID} [get]
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.reviews.Latest")
	itemID, ok := request.ID(w, r, log, "itemID")
	if !ok {
		return
	}
	res, err := h.service.Latest(r.Context(), itemID)
	if err != nil {
		response.Fail(w, r, log, err, "could not load reviews")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"reviews": res,
	}))
}

// Mine godoc
// @Summary Отзыв текущего пользователя о сессии
// @Tags Reviews
// @Security BearerAuth
// @Param itemID path string true "ID сессии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /reviews/item/{itemID}/mine [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.reviews.Mine")
	itemID, ok := request.ID(w, r, log, "itemID")
	if !ok {
		return
	}
	res, err := h.service.Mine(r.Context(), middlewarectx.UserUIDFrom(r.Context()), itemID)
	if err != nil {
		response.Fail(w, r, log, err, "review not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Create godoc
// @Summary Новый отзыв
// @Description Один отзыв на сессию от пользователя, оценка от 1 до 5.
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Param request body models.DummyReview true "Отзыв"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /reviews [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.reviews.Create")
	var req models.DummyReview
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.Create(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create review")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Update godoc
// @Summary Изменение своего отзыва
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Param id path string true "ID отзыва"
// @Param request body models.ReviewPatch true "Изменения"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /reviews/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.reviews.Update")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var patch models.ReviewPatch
	if !request.Bind(w, r, log, h.validate, &patch) {
		return
	}
	res, err := h.service.Update(r.Context(), middlewarectx.UserUIDFrom(r.Context()), id, patch)
	if err != nil {
		response.Fail(w, r, log, err, "could not update review")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Delete godoc
// @Summary Удаление своего отзыва
// @Tags Reviews
// @Security BearerAuth
// @Param id path string true "ID отзыва"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /reviews/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.reviews.Delete")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), middlewarectx.UserUIDFrom(r.Context()), id); err != nil {
		response.Fail(w, r, log, err, "could not delete review")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": id,
	}))
}
