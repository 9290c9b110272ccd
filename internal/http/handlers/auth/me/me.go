// Package me возвращает профиль текущего пользователя и его уровень доступа.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Service возвращает пользователя по идентификатору.
type Service interface {
	Me(ctx context.Context, userUID string) (*models.User, error)
}

// Handler отдаёт профиль.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Tags Auth
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, err := h.service.Me(r.Context(), middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.Fail(w, r, log, err, "could not load profile")
		return
	}
	viewer := middlewarectx.ViewerFrom(r.Context())
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid":      user.UUID,
		"email":         user.Email,
		"username":      user.Username,
		"role":          user.Role,
		"is_subscribed": viewer.IsSubscribed,
	}))
}
