package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// ViewerResolver строит уровень доступа пользователя.
type ViewerResolver interface {
	ResolveViewer(ctx context.Context, userID string) (models.ViewerAccess, error)
}

// ViewerAccess кладёт в контекст уровень доступа зрителя по пользователю,
// найденному OptionalAuth или JWTMiddleware. Ошибка хранилища не прерывает
// запрос: зритель получает доступ, который удалось определить.
func ViewerAccess(resolver ViewerResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := resolver.ResolveViewer(r.Context(), UserUIDFrom(r.Context()))
			if err != nil {
				log.Error("failed to resolve viewer access",
					slog.String("request_id", middleware.GetReqID(r.Context())), sl.Err(err))
			}
			ctx := context.WithValue(r.Context(), Viewer, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
