package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

// GetCouponByCode looks up the unique active coupon whose code matches
// case-insensitively and whose validity window contains the given moment.
func (r *Repository) GetCouponByCode(ctx context.Context, code string, at time.Time) (*domain.Coupon, error) {
	query := `SELECT id, code, valid_from, valid_to, discount, active
	          FROM coupons
	          WHERE LOWER(code) = LOWER($1)
	            AND active = true
	            AND valid_from <= $2
	            AND valid_to >= $2`

	var coupon domain.Coupon
	err := scanCoupon(r.db.QueryRowContext(ctx, query, code, at), &coupon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query coupon by code: %w", err)
	}
	return &coupon, nil
}

func (r *Repository) GetCouponByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	query := `SELECT id, code, valid_from, valid_to, discount, active
	          FROM coupons WHERE id = $1`

	var coupon domain.Coupon
	err := scanCoupon(r.db.QueryRowContext(ctx, query, id), &coupon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query coupon by id: %w", err)
	}
	return &coupon, nil
}

func scanCoupon(row *sql.Row, coupon *domain.Coupon) error {
	return row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.ValidFrom,
		&coupon.ValidTo,
		&coupon.Discount,
		&coupon.Active,
	)
}
