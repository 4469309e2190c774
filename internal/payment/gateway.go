package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/fjod/go_shop/internal/domain"
)

// ErrGateway wraps any transport or validation failure from the payment
// provider. The order is never mutated on this path.
var ErrGateway = errors.New("payment gateway failure")

// Gateway translates an order into a provider-hosted payment session and
// returns the redirect target.
type Gateway struct {
	api      *client.API
	breaker  *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	currency string
	timeout  time.Duration
}

func NewGateway(apiKey, currency string, timeout time.Duration) *Gateway {
	return &Gateway{
		api: client.New(apiKey, nil),
		breaker: gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
			Name:    "stripe-checkout",
			Timeout: 30 * time.Second,
		}),
		currency: currency,
		timeout:  timeout,
	}
}

// CreateSession builds a one-time payment session for the order: one line
// item per order item in minor currency units, client_reference_id set to
// the order id, and a one-time provider-side coupon mirroring a non-zero
// discount. The call is bounded by a timeout and a circuit breaker.
func (g *Gateway) CreateSession(ctx context.Context, order *domain.Order, successURL, cancelURL string) (string, error) {
	params := buildSessionParams(order, g.currency, successURL, cancelURL)

	session, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		couponID := ""
		if order.Discount > 0 {
			couponParams := &stripe.CouponParams{
				Name:       stripe.String(fmt.Sprintf("Order %s discount", order.ID)),
				PercentOff: stripe.Float64(float64(order.Discount)),
				Duration:   stripe.String(string(stripe.CouponDurationOnce)),
			}
			couponParams.Context = callCtx
			gatewayCoupon, err := g.api.Coupons.New(couponParams)
			if err != nil {
				return nil, fmt.Errorf("create coupon: %w", err)
			}
			couponID = gatewayCoupon.ID
			params.Discounts = []*stripe.CheckoutSessionDiscountParams{
				{Coupon: stripe.String(couponID)},
			}
		}

		params.Context = callCtx
		session, err := g.api.CheckoutSessions.New(params)
		if err != nil {
			if couponID != "" {
				g.deleteCoupon(ctx, couponID)
			}
			return nil, err
		}
		return session, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: create session: %v", ErrGateway, err)
	}

	return session.URL, nil
}

// deleteCoupon removes a provider-side coupon whose session never
// materialized. Best effort: an orphaned one-time coupon is harmless, just
// clutter.
func (g *Gateway) deleteCoupon(ctx context.Context, id string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	params := &stripe.CouponParams{}
	params.Context = cleanupCtx
	_, _ = g.api.Coupons.Del(id, params)
}

func buildSessionParams(order *domain.Order, currency, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(order.ID.String()),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
	}

	for _, item := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(minorUnits(item.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	return params
}

// minorUnits converts a decimal amount to integer minor currency units with
// round-half-up, so the internal decimal total and the provider's integer
// representation cannot drift by a penny.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
