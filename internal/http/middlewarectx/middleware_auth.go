// Package middlewarectx содержит HTTP middleware аутентификации, уровня доступа
// зрителя и ограничения частоты запросов, а также доступ к значениям,
// которые они кладут в контекст запроса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// Viewer — ключ для уровня доступа зрителя в контексте
	Viewer Key = "viewer"
)

// CookieName — cookie, в которой браузер хранит токен доступа.
const CookieName = "jwt"

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// tokenFrom достаёт токен из заголовка Authorization или из cookie.
func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func withUser(ctx context.Context, u *models.User) context.Context {
	ctx = context.WithValue(ctx, UserUID, u.UUID)
	ctx = context.WithValue(ctx, User, u.Username)
	return context.WithValue(ctx, Role, u.Role)
}

// JWTMiddleware требует действительный токен. Пользователь из токена
// кладётся в контекст, иначе ответ 401.
func JWTMiddleware(authClient Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := tokenFrom(r)
			if token == "" {
				log.Warn("missing authorization token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			user, err := authClient.ValidateToken(r.Context(), token)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// OptionalAuth кладёт пользователя в контекст, если токен действителен.
// Отсутствующий или просроченный токен оставляет запрос гостевым.
func OptionalAuth(authClient Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := authClient.ValidateToken(r.Context(), token)
			if err != nil {
				log.Debug("ignoring invalid token", slog.String("request_id", middleware.GetReqID(r.Context())), sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// AdminOnly пропускает только пользователей с ролью admin.
// Должен стоять после JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFrom(r.Context()) != models.RoleAdmin {
				log.Warn("admin access denied",
					slog.String("user", UserUIDFrom(r.Context())),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserUIDFrom возвращает идентификатор пользователя из контекста или "".
func UserUIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(UserUID).(string)
	return v
}

// RoleFrom возвращает роль пользователя из контекста или "".
func RoleFrom(ctx context.Context) string {
	v, _ := ctx.Value(Role).(string)
	return v
}

// ViewerFrom возвращает уровень доступа зрителя. Без ViewerAccess
// middleware зритель считается гостем.
func ViewerFrom(ctx context.Context) models.ViewerAccess {
	v, _ := ctx.Value(Viewer).(models.ViewerAccess)
	return v
}
