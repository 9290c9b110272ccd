// Package payments реализует HTTP-обработчики оплаты подписок и пакетов.
package payments

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

// Service описывает оплату и управление пакетами.
type Service interface {
	CreateOrder(ctx context.Context, userID string, req models.DummyOrder) (*models.Order, error)
	Verify(ctx context.Context, userID string, req models.PaymentVerification) (*models.Subscription, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error)
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	CreatePackage(ctx context.Context, req models.DummyPackage) (*models.Package, error)
	UpdatePackage(ctx context.Context, id string, req models.DummyPackage) (*models.Package, error)
}

// OrderResponse — заказ вместе с публичным ключом шлюза для checkout-формы.
type OrderResponse struct {
	*models.Order
	KeyID string `json:"key_id"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	keyID    string
	validate *validator.Validate
}

// New создает новый экземпляр Handler. keyID отдаётся клиенту вместе с заказом.
func New(log *slog.Logger, service Service, keyID string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		keyID:    keyID,
		validate: validator.New(),
	}
}

// CreateOrder godoc
// @Summary Создание заказа на оплату пакета
// @Description Создаёт заказ у шлюза и ожидающую оплаты подписку.
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.DummyOrder true "Пакет и период"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /payments/orders [post]
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.payments.CreateOrder")
	var req models.DummyOrder
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	order, err := h.service.CreateOrder(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create order")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(OrderResponse{Order: order, KeyID: h.keyID}))
}

// Verify godoc
// @Summary Подтверждение оплаты
// @Description Проверяет подпись шлюза и активирует подписку.
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Param request body models.PaymentVerification true "Данные оплаты"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /payments/verify [post]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.payments.Verify")
	var req models.PaymentVerification
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	sub, err := h.service.Verify(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req)
	if err != nil {
		response.Fail(w, r, log, err, "payment verification failed")
		return
	}
	log.Info("subscription activated", slog.String("subscription_id", sub.ID))
	render.JSON(w, r, response.StatusOKWithData(sub))
}

// Packages godoc
// @Summary Доступные пакеты подписки
// @Tags Packages
// @Success 200 {object} response.Response
// @Router /packages [get]
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	h.packages(w, r, "handlers.payments.Packages", true)
}

// AllPackages godoc
// @Summary Все пакеты, включая неактивные
// @Tags Packages
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/packages [get]
func (h *Handler) AllPackages(w http.ResponseWriter, r *http.Request) {
	h.packages(w, r, "handlers.payments.AllPackages", false)
}

func (h *Handler) packages(w http.ResponseWriter, r *http.Request, op string, activeOnly bool) {
	log := request.Logger(h.log, r, op)
	res, err := h.service.ListPackages(r.Context(), activeOnly)
	if err != nil {
		response.Fail(w, r, log, err, "could not load packages")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"packages": res,
	}))
}

// Package godoc
// @Summary Пакет по ID
// @Tags Packages
// @Param id path string true "ID пакета"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /packages/{id} [get]
func (h *Handler) Package(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.payments.Package")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	res, err := h.service.GetPackage(r.Context(), id)
	if err != nil {
		response.Fail(w, r, log, err, "package not found")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}

// CreatePackage godoc
// @Summary Создание пакета
// @Tags Packages
// @Security BearerAuth
// @Param request body models.DummyPackage true "Пакет"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/packages [post]
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.payments.CreatePackage")
	var req models.DummyPackage
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.CreatePackage(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err, "could not create package")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}

// UpdatePackage godoc
// @Summary Изменение пакета
// @Tags Packages
// @Security BearerAuth
// @Param id path string true "ID пакета"
// @Param request body models.DummyPackage true "Пакет"
// @Success 200 {object} response.Response
// @Router /admin/packages/{id} [put]
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.payments.UpdatePackage")
	id, ok := request.ID(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyPackage
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	res, err := h.service.UpdatePackage(r.Context(), id, req)
	if err != nil {
		response.Fail(w, r, log, err, "could not update package")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
