package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerInfo holds the already-validated customer fields of a checkout.
type CustomerInfo struct {
	FirstName  string
	LastName   string
	Email      string
	Address    string
	PostalCode string
	City       string
}

type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"` // unit price snapshot at order creation
	Quantity    int             `json:"quantity"`
}

// Cost is the item's unit price times its quantity.
func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the durable record of a checkout. Its price and discount fields
// are a snapshot frozen at creation time; they are never recomputed from
// live catalog or coupon state.
type Order struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	Address          string
	PostalCode       string
	City             string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Paid             bool
	PaymentReference string
	CouponID         *int64 // set to null if the coupon is later deleted
	Discount         int    // percent copied from the coupon at creation
	Items            []OrderItem
}

func (o *Order) TotalBeforeDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Cost())
	}
	return total
}

func (o *Order) DiscountAmount() decimal.Decimal {
	if o.Discount == 0 {
		return decimal.Zero
	}
	return o.TotalBeforeDiscount().
		Mul(decimal.NewFromInt(int64(o.Discount))).
		Div(decimal.NewFromInt(100))
}

func (o *Order) TotalAfterDiscount() decimal.Decimal {
	total := o.TotalBeforeDiscount().Sub(o.DiscountAmount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
