package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// CouponResolver validates user-supplied codes and re-resolves attached
// coupons against live coupon state on every read.
type CouponResolver struct {
	repo   repository.CouponRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewCouponResolver(repo repository.CouponRepository, logger *zap.Logger) *CouponResolver {
	return &CouponResolver{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// Apply attaches the coupon matching the code to the cart. A code that does
// not resolve (no match, inactive, outside its window) clears any previously
// attached coupon instead of failing: the user-visible effect is simply "no
// discount applied".
func (r *CouponResolver) Apply(ctx context.Context, c *cart.Cart, code string) (*domain.Coupon, error) {
	coupon, err := r.repo.GetCouponByCode(ctx, code, r.now())
	if errors.Is(err, repository.ErrCouponNotFound) {
		c.SetCoupon(nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	id := coupon.ID
	c.SetCoupon(&id)
	return coupon, nil
}

// Resolve re-fetches the coupon live. A coupon deleted or deactivated
// mid-session stops applying on the next computation; this is deliberately
// different from the order's creation-time snapshot.
func (r *CouponResolver) Resolve(ctx context.Context, id *int64) (*domain.Coupon, error) {
	if id == nil {
		return nil, nil
	}

	coupon, err := r.repo.GetCouponByID(ctx, *id)
	if errors.Is(err, repository.ErrCouponNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !coupon.ValidAt(r.now()) {
		return nil, nil
	}
	return coupon, nil
}
