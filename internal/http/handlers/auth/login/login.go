// Package login реализует HTTP-обработчик входа пользователя.
//
// Проверяет учетные данные через сервис аутентификации и возвращает JWT
// в теле ответа, дублируя его в http-only cookie для браузерного клиента.
package login

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/http/request"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Request — структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// Cookie настраивает cookie с токеном.
type Cookie struct {
	TTL    time.Duration
	Secure bool
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log        *slog.Logger
	authClient Service
	cookie     Cookie
	validate   *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authClient Service, cookie Cookie) *Handler {
	return &Handler{
		log:        log,
		authClient: authClient,
		cookie:     cookie,
		validate:   validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по email и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	token, user, err := h.authClient.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(w, r, log, err, "invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("login success", slog.String("user", user.UUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":    token,
		"user_uid": user.UUID,
		"username": user.Username,
		"role":     user.Role,
	}))
}
