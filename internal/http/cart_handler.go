package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

var validate = validator.New()

// ProductCatalog is the read-only catalog lookup the cart endpoints use.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []int64) ([]*domain.Product, error)
}

// CouponResolver validates codes and re-resolves attached coupons live.
type CouponResolver interface {
	Apply(ctx context.Context, c *cart.Cart, code string) (*domain.Coupon, error)
	Resolve(ctx context.Context, id *int64) (*domain.Coupon, error)
}

type CartHandler struct {
	store   cart.Store
	catalog ProductCatalog
	coupons CouponResolver
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(store cart.Store, catalog ProductCatalog, coupons CouponResolver, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		store:   store,
		catalog: catalog,
		coupons: coupons,
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1,max=20"`
	Override  bool  `json:"override"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code" validate:"required,max=50"`
}

type CartViewDTO struct {
	Items     []domain.CartLine `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  string            `json:"subtotal"`
	Discount  string            `json:"discount"`
	Total     string            `json:"total"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "product does not exist")
		return
	}
	if err != nil {
		h.logger.Error("catalog lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to look up product")
		return
	}

	c, err := cart.Load(ctx, h.store, sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	if err := c.Add(product, req.Quantity, req.Override); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	}
	if err := c.Save(ctx); err != nil {
		h.logger.Error("failed to save cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save cart")
		return
	}

	h.respondCartView(ctx, w, http.StatusCreated, c)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	c, err := cart.Load(ctx, h.store, sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	c.Remove(productID)
	if err := c.Save(ctx); err != nil {
		h.logger.Error("failed to save cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save cart")
		return
	}

	h.respondCartView(ctx, w, http.StatusOK, c)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	c, err := cart.Load(ctx, h.store, sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	h.respondCartView(ctx, w, http.StatusOK, c)
}

// ApplyCoupon always succeeds at the protocol level: a code that does not
// resolve simply clears the attached coupon and the view shows no discount.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	c, err := cart.Load(ctx, h.store, sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	if _, err := h.coupons.Apply(ctx, c, req.Code); err != nil {
		h.logger.Error("coupon lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to apply coupon")
		return
	}
	if err := c.Save(ctx); err != nil {
		h.logger.Error("failed to save cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save cart")
		return
	}

	h.respondCartView(ctx, w, http.StatusOK, c)
}

func (h *CartHandler) respondCartView(ctx context.Context, w http.ResponseWriter, status int, c *cart.Cart) {
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

	respondJSON(w, status, CartViewDTO{
		Items:     lines,
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal().StringFixed(2),
		Discount:  c.Discount(coupon).StringFixed(2),
		Total:     c.Total(coupon).StringFixed(2),
	})
}
