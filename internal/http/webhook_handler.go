package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/repository"
)

const maxWebhookBodySize = 1 << 20 // 1MB

// PaymentMarker performs the idempotent Created -> Paid transition.
type PaymentMarker interface {
	MarkPaid(ctx context.Context, id uuid.UUID, reference string) error
}

// WebhookHandler consumes asynchronous payment events from the gateway.
// Every delivery is untrusted, possibly duplicated, and possibly out of
// order; nothing but the verified raw body is believed.
type WebhookHandler struct {
	secret string
	orders PaymentMarker
	logger *zap.Logger
}

func NewWebhookHandler(secret string, orders PaymentMarker, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret: secret,
		orders: orders,
		logger: logger,
	}
}

// Handle responds with a bare status code only: 200 acknowledges, 400 tells
// the gateway to redeliver (also used when the order is not yet visible).
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	completed, err := payment.VerifyEvent(body, r.Header.Get("Stripe-Signature"), h.secret)
	if errors.Is(err, payment.ErrSignature) || errors.Is(err, payment.ErrPayload) {
		h.logger.Warn("rejected webhook delivery", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("webhook verification failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if completed == nil {
		// authentic but irrelevant event type or mode
		w.WriteHeader(http.StatusOK)
		return
	}

	err = h.orders.MarkPaid(r.Context(), completed.OrderID, completed.PaymentReference)
	if errors.Is(err, repository.ErrOrderNotFound) {
		// the order write may not be visible yet; a client error invites
		// the gateway's automatic retry
		h.logger.Warn("webhook for unknown order",
			zap.String("order_id", completed.OrderID.String()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to mark order paid",
			zap.String("order_id", completed.OrderID.String()),
			zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
