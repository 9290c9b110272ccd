// Package request разбирает тела и параметры HTTP-запросов.
package request

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
)

// Logger добавляет к log имя операции и ID запроса.
func Logger(log *slog.Logger, r *http.Request, op string) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Bind декодирует JSON-тело в dst и валидирует его. При ошибке пишет ответ
// 400 и возвращает false.
func Bind(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Warn("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Warn("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return false
		}
		log.Warn("failed to validate request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return false
	}
	return true
}

// Int читает целый query-параметр name. Отсутствующее или нечисловое
// значение заменяется на def.
func Int(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

// Page читает параметры page и limit. Нули означают значения по умолчанию
// сервиса.
func Page(r *http.Request) (page, limit int) {
	return Int(r, "page", 0), Int(r, "limit", 0)
}

// ID читает параметр пути name и проверяет, что это UUID. При ошибке пишет
// ответ 400 и возвращает false.
func ID(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid id in url", slog.String(name, raw), sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid "+name))
		return "", false
	}
	return id.String(), true
}
