package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/repository"
)

// OrderGetter fetches a durable order by id.
type OrderGetter interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// SessionCreator turns an order into a gateway-hosted payment session.
type SessionCreator interface {
	CreateSession(ctx context.Context, order *domain.Order, successURL, cancelURL string) (string, error)
}

type PaymentHandler struct {
	orders     OrderGetter
	gateway    SessionCreator
	successURL string
	cancelURL  string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewPaymentHandler(orders OrderGetter, gateway SessionCreator, successURL, cancelURL string, timeout time.Duration, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		orders:     orders,
		gateway:    gateway,
		successURL: successURL,
		cancelURL:  cancelURL,
		timeout:    timeout,
		logger:     logger,
	}
}

type PaymentSessionDTO struct {
	URL string `json:"url"`
}

func (h *PaymentHandler) CreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order_not_found", "order does not exist")
		return
	}
	if err != nil {
		h.logger.Error("failed to load order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	if order.Paid {
		respondError(w, http.StatusConflict, "order_paid", "order is already paid")
		return
	}

	url, err := h.gateway.CreateSession(ctx, order, h.successURL, h.cancelURL)
	if errors.Is(err, payment.ErrGateway) {
		h.logger.Error("gateway rejected session creation",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		respondError(w, http.StatusBadGateway, "gateway_error", "payment provider is unavailable")
		return
	}
	if err != nil {
		h.logger.Error("failed to create payment session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create payment session")
		return
	}

	respondJSON(w, http.StatusOK, PaymentSessionDTO{URL: url})
}
