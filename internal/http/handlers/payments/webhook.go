package payments

import (
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/medical-education/internal/http/request"
	"github.com/magabrotheeeer/medical-education/internal/http/response"
	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
)

// SignatureHeader — заголовок с HMAC-подписью тела уведомления.
const SignatureHeader = "X-Razorpay-Signature"

const maxWebhookBody = 1 << 20

// Webhook godoc
// @Summary Уведомление платёжного шлюза
// @Description Тело подписано HMAC-SHA256 секретом вебхука.
// @Tags Payments
// @Accept json
// @Param X-Razorpay-Signature header string true "Подпись"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /payments/webhook [post]
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := request.Logger(h.log, r, "handlers.payments.Webhook")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}
	defer r.Body.Close()

	if err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(SignatureHeader)); err != nil {
		response.Fail(w, r, log, err, "webhook rejected")
		return
	}
	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
