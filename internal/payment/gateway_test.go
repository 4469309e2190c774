package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/domain"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"10.00", 1000},
		{"0.01", 1},
		{"19.99", 1999},
		{"10.005", 1001}, // half rounds up
		{"10.004", 1000},
		{"0", 0},
	}

	for _, tc := range cases {
		got := minorUnits(decimal.RequireFromString(tc.amount))
		assert.Equal(t, tc.want, got, "amount %s", tc.amount)
	}
}

func TestBuildSessionParams(t *testing.T) {
	order := &domain.Order{
		ID: uuid.New(),
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Keyboard", Price: decimal.RequireFromString("50.00"), Quantity: 2},
			{ProductID: 2, ProductName: "Mouse", Price: decimal.RequireFromString("29.99"), Quantity: 1},
		},
	}

	params := buildSessionParams(order, "eur", "https://shop.test/ok", "https://shop.test/cancel")

	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, order.ID.String(), *params.ClientReferenceID)
	assert.Equal(t, "https://shop.test/ok", *params.SuccessURL)
	assert.Equal(t, "https://shop.test/cancel", *params.CancelURL)

	require.Len(t, params.LineItems, 2)

	first := params.LineItems[0]
	assert.Equal(t, "eur", *first.PriceData.Currency)
	assert.Equal(t, int64(5000), *first.PriceData.UnitAmount)
	assert.Equal(t, "Keyboard", *first.PriceData.ProductData.Name)
	assert.Equal(t, int64(2), *first.Quantity)

	second := params.LineItems[1]
	assert.Equal(t, int64(2999), *second.PriceData.UnitAmount)
	assert.Equal(t, int64(1), *second.Quantity)
}

func TestCreateSessionCouponFailureTripsBreaker(t *testing.T) {
	g := NewGateway("sk_test_dummy", "usd", time.Second)

	// a canceled context fails the provider call before any network I/O;
	// the discounted order makes the coupon call the first thing to fail
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	order := &domain.Order{
		ID:       uuid.New(),
		Discount: 10,
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Keyboard", Price: decimal.RequireFromString("50.00"), Quantity: 1},
		},
	}

	for i := 0; i < 6; i++ {
		_, err := g.CreateSession(ctx, order, "https://shop.test/ok", "https://shop.test/cancel")
		require.ErrorIs(t, err, ErrGateway)
	}

	assert.Equal(t, gobreaker.StateOpen, g.breaker.State(),
		"coupon creation failures must count against the breaker")
}
