package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
)

// OrderCreator freezes a cart into a durable order.
type OrderCreator interface {
	CreateFromCart(ctx context.Context, customer domain.CustomerInfo, lines []domain.CartLine, coupon *domain.Coupon) (*domain.Order, error)
}

type OrderHandler struct {
	store   cart.Store
	catalog ProductCatalog
	coupons CouponResolver
	orders  OrderCreator
	timeout time.Duration
	logger  *zap.Logger
}

func NewOrderHandler(store cart.Store, catalog ProductCatalog, coupons CouponResolver, orders OrderCreator, timeout time.Duration, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		store:   store,
		catalog: catalog,
		coupons: coupons,
		orders:  orders,
		timeout: timeout,
		logger:  logger,
	}
}

type CreateOrderRequestDTO struct {
	FirstName  string `json:"first_name" validate:"required,max=50"`
	LastName   string `json:"last_name" validate:"required,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"address" validate:"required,max=250"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	City       string `json:"city" validate:"required,max=100"`
}

type OrderCreatedDTO struct {
	OrderID             string `json:"order_id"`
	TotalBeforeDiscount string `json:"total_before_discount"`
	DiscountPercent     int    `json:"discount_percent"`
	Discount            string `json:"discount"`
	Total               string `json:"total"`
}

// CreateOrder persists the order from the session cart, clears the cart and
// enqueues the confirmation notification. The returned order id starts the
// payment flow.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	c, err := cart.Load(ctx, h.store, sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	lines, err := c.Items(ctx, h.catalog)
	if err != nil {
		h.logger.Error("failed to enrich cart items", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart items")
		return
	}

	coupon, err := h.coupons.Resolve(ctx, c.CouponID())
	if err != nil {
		h.logger.Error("failed to resolve coupon", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to resolve coupon")
		return
	}

	order, err := h.orders.CreateFromCart(ctx, domain.CustomerInfo{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		City:       req.City,
	}, lines, coupon)
	if errors.Is(err, service.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "empty_cart", "cart has no purchasable items")
		return
	}
	if err != nil {
		h.logger.Error("failed to create order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create order")
		return
	}

	if err := c.Clear(ctx); err != nil {
		// order is durable already; a stale cart is an inconvenience, not a failure
		h.logger.Error("failed to clear cart after order creation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}

	respondJSON(w, http.StatusCreated, OrderCreatedDTO{
		OrderID:             order.ID.String(),
		TotalBeforeDiscount: order.TotalBeforeDiscount().StringFixed(2),
		DiscountPercent:     order.Discount,
		Discount:            order.DiscountAmount().StringFixed(2),
		Total:               order.TotalAfterDiscount().StringFixed(2),
	})
}
