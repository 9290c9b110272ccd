// Package health отдаёт состояние сервиса для проб оркестратора.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
)

// Pinger — зависимость, доступность которой проверяется.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log     *slog.Logger
	deps    map[string]Pinger
	timeout time.Duration
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, deps map[string]Pinger) *Handler {
	return &Handler{
		log:     log,
		deps:    deps,
		timeout: 2 * time.Second,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Warn("dependency is down", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response.StatusOKWithData(status))
}
