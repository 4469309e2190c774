package http

import (
	"context"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

type fakeStore struct {
	states map[string]*domain.CartState
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]*domain.CartState)}
}

func (s *fakeStore) Get(_ context.Context, sessionID string) (*domain.CartState, error) {
	state, ok := s.states[sessionID]
	if !ok {
		return nil, cart.ErrSessionNotFound
	}
	return state, nil
}

func (s *fakeStore) Set(_ context.Context, sessionID string, state *domain.CartState) error {
	s.states[sessionID] = state
	return nil
}

func (s *fakeStore) Delete(_ context.Context, sessionID string) error {
	delete(s.states, sessionID)
	return nil
}

type fakeCatalog struct {
	products map[int64]*domain.Product
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if p, ok := c.products[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProductNotFound
}

func (c *fakeCatalog) GetProducts(_ context.Context, ids []int64) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeCoupons resolves a single coupon by code and id.
type fakeCoupons struct {
	coupon *domain.Coupon
}

func (f *fakeCoupons) Apply(_ context.Context, c *cart.Cart, code string) (*domain.Coupon, error) {
	if f.coupon != nil && f.coupon.Code == code {
		id := f.coupon.ID
		c.SetCoupon(&id)
		return f.coupon, nil
	}
	c.SetCoupon(nil)
	return nil, nil
}

func (f *fakeCoupons) Resolve(_ context.Context, id *int64) (*domain.Coupon, error) {
	if id == nil || f.coupon == nil || f.coupon.ID != *id {
		return nil, nil
	}
	return f.coupon, nil
}

type fakeOrders struct {
	orders map[uuid.UUID]*domain.Order

	createErr error
	markPaid  []struct {
		ID        uuid.UUID
		Reference string
	}
	markPaidErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[uuid.UUID]*domain.Order)}
}

func (f *fakeOrders) CreateFromCart(_ context.Context, customer domain.CustomerInfo, lines []domain.CartLine, coupon *domain.Coupon) (*domain.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	order := &domain.Order{
		ID:         uuid.New(),
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
		Email:      customer.Email,
		Address:    customer.Address,
		PostalCode: customer.PostalCode,
		City:       customer.City,
	}
	if coupon != nil {
		id := coupon.ID
		order.CouponID = &id
		order.Discount = coupon.Discount
	}
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Price:       line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (f *fakeOrders) MarkPaid(_ context.Context, id uuid.UUID, reference string) error {
	if f.markPaidErr != nil {
		return f.markPaidErr
	}
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if !o.Paid {
		o.Paid = true
		o.PaymentReference = reference
	}
	f.markPaid = append(f.markPaid, struct {
		ID        uuid.UUID
		Reference string
	}{id, reference})
	return nil
}

type fakeGateway struct {
	url string
	err error
}

func (f *fakeGateway) CreateSession(_ context.Context, _ *domain.Order, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}
