// Package logout реализует HTTP-обработчик выхода: удаляет cookie с токеном.
package logout

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
)

// Handler очищает cookie с токеном.
type Handler struct {
	secure bool
}

// New создает новый экземпляр Handler.
func New(secure bool) *Handler {
	return &Handler{secure: secure}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Tags Auth
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"message": "logged out"}))
}
