package domain

import "github.com/shopspring/decimal"

// CartItem is one entry of a session cart. UnitPrice is snapshotted from the
// catalog when the product is first added and is not re-read on later views.
type CartItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CartState is the serialized cart as kept in the session store. The coupon
// is referenced by id only; it is resolved against live coupon state on
// every read.
type CartState struct {
	Items    map[int64]CartItem `json:"items"`
	CouponID *int64             `json:"coupon_id,omitempty"`
}

// CartLine is a cart entry enriched with its catalog product.
type CartLine struct {
	Product    Product         `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}
