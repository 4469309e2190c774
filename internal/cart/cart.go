package cart

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// ProductLookup is the read-only catalog collaborator used to enrich cart
// entries. Absent ids are omitted, not errors.
type ProductLookup interface {
	GetProducts(ctx context.Context, ids []int64) ([]*domain.Product, error)
}

// Cart wraps one session's cart state. Mutations mark it dirty; nothing is
// written back to the session store until Save.
type Cart struct {
	sessionID string
	store     Store
	state     *domain.CartState
	modified  bool
}

// Load fetches the session's cart, creating an empty one on first access.
func Load(ctx context.Context, store Store, sessionID string) (*Cart, error) {
	state, err := store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		state = &domain.CartState{Items: make(map[int64]domain.CartItem)}
	} else if err != nil {
		return nil, err
	}
	if state.Items == nil {
		state.Items = make(map[int64]domain.CartItem)
	}

	return &Cart{
		sessionID: sessionID,
		store:     store,
		state:     state,
	}, nil
}

// Add puts the product in the cart or updates its quantity. A product new to
// the cart gets its unit price snapshotted from the catalog product passed
// in; the snapshot is kept on later adds even if the catalog price changed.
func (c *Cart) Add(product *domain.Product, quantity int, override bool) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	item, ok := c.state.Items[product.ID]
	if !ok {
		item = domain.CartItem{
			ProductID: product.ID,
			Quantity:  0,
			UnitPrice: product.Price,
		}
	}

	if override {
		item.Quantity = quantity
	} else {
		item.Quantity += quantity
	}

	c.state.Items[product.ID] = item
	c.modified = true
	return nil
}

// Remove deletes the entry if present; removing an absent product is not an
// error.
func (c *Cart) Remove(productID int64) {
	if _, ok := c.state.Items[productID]; !ok {
		return
	}
	delete(c.state.Items, productID)
	c.modified = true
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.state.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.state.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Discount computes the coupon's share of the subtotal. The caller resolves
// the attached coupon id against live coupon state first; nil means no
// discount and yields a proper decimal zero.
func (c *Cart) Discount(coupon *domain.Coupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	return c.Subtotal().
		Mul(decimal.NewFromInt(int64(coupon.Discount))).
		Div(decimal.NewFromInt(100))
}

func (c *Cart) Total(coupon *domain.Coupon) decimal.Decimal {
	total := c.Subtotal().Sub(c.Discount(coupon))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func (c *Cart) CouponID() *int64 {
	return c.state.CouponID
}

func (c *Cart) SetCoupon(id *int64) {
	c.state.CouponID = id
	c.modified = true
}

// Items resolves the cart's entries against the catalog in one batch lookup
// and returns them enriched, ordered by product id. Entries whose product no
// longer exists are silently skipped.
func (c *Cart) Items(ctx context.Context, catalog ProductLookup) ([]domain.CartLine, error) {
	if len(c.state.Items) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(c.state.Items))
	for id := range c.state.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]domain.CartLine, 0, len(ids))
	for _, id := range ids {
		product, ok := byID[id]
		if !ok {
			continue
		}
		item := c.state.Items[id]
		lines = append(lines, domain.CartLine{
			Product:    *product,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	return lines, nil
}

// Clear discards the whole session cart.
func (c *Cart) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.sessionID); err != nil {
		return err
	}
	c.state = &domain.CartState{Items: make(map[int64]domain.CartItem)}
	c.modified = false
	return nil
}

// Save writes the cart back to the session store, but only when a mutation
// marked it modified.
func (c *Cart) Save(ctx context.Context) error {
	if !c.modified {
		return nil
	}
	if err := c.store.Set(ctx, c.sessionID, c.state); err != nil {
		return err
	}
	c.modified = false
	return nil
}
