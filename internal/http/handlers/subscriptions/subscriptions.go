// Package subscriptions реализует HTTP-обработчики подписок пользователя.
package subscriptions

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

// Service описывает операции над подписками.
type Service interface {
	Active(ctx context.Context, userID string) ([]models.Subscription, error)
	History(ctx context.Context, userID string) ([]models.Subscription, error)
	Cancel(ctx context.Context, userID, id string) (*models.Subscription, error)
	SetAutoRenew(ctx context.Context, userID, id string, autoRenew bool) (*models.Subscription, error)
	Stats(ctx context.Context) ([]models.SubscriptionStat, error)
}

// AutoRenewRequest — новое значение флага автопродления.
type AutoRenewRequest struct {
	AutoRenew *bool `json:"auto_renew" validate:"required"`
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

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op string, fetch func(context.Context, string) ([]models.Subscription, error)) {
	log := request.Logger(h.log, r, op)
	res, err := fetch(r.Context(), middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not load subscriptions")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscriptions": res,
	}))
}

// Active godoc
// @Summary Активные подписки
// @Tags Subscriptions
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /subscriptions/active [get]
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.subscriptions.Active", h.service.Active)
}

// History godoc
// @Summary История подписок
// @Tags Subscriptions
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /subscriptions/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "handlers.subscriptions.History", h.service.History)
}

// Cancel godoc
// @Summary Отмена подписки
// @Tags Subscriptions
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /subscriptions/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.subscriptions.Cancel")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.service.Cancel(r.Context(), middlewarectx.UserUIDFrom(r.Context()), id)
	if err != nil {
		response.Fail(w, r, log, err, "could not cancel subscription")
		return
	}
	log.Info("subscription cancelled", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(res))
}

// AutoRenew godoc
// @Summary Включение и выключение автопродления
// @Tags Subscriptions
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Param request body AutoRenewRequest true "Флаг"
// @Success 200 {object} response.Response
// @Router /subscriptions/{id}/auto-renew [put]
func (h *Handler) AutoRenew(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.subscriptions.AutoRenew")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req AutoRenewRequest
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.SetAutoRenew(r.Context(), middlewarectx.UserUIDFrom(r.Context()), id, *req.AutoRenew)
	if err != nil {
		response.Fail(w, r, log, err, "could not update subscription")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// Stats godoc
// @Summary Статистика подписок по статусам
// @Tags Subscriptions
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/subscriptions/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.subscriptions.Stats")
	res, err := h.service.Stats(r.Context())
	if err != nil {
		response.Fail(w, r, log, err, "could not load stats")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"stats": res,
	}))
}
