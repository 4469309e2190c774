package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

type mockProductRepo struct {
	products map[int64]*domain.Product
	calls    int
}

func (m *mockProductRepo) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepo) GetProducts(_ context.Context, ids []int64) ([]*domain.Product, error) {
	m.calls++
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockCouponRepo struct {
	coupons map[int64]*domain.Coupon
	err     error
}

func (m *mockCouponRepo) GetCouponByCode(_ context.Context, code string, at time.Time) (*domain.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.coupons {
		if strings.EqualFold(c.Code, code) && c.ValidAt(at) {
			return c, nil
		}
	}
	return nil, repository.ErrCouponNotFound
}

func (m *mockCouponRepo) GetCouponByID(_ context.Context, id int64) (*domain.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.coupons[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCouponNotFound
}

type mockOrderRepo struct {
	orders map[uuid.UUID]*domain.Order

	createErr error
	// markPaidResult overrides the default CAS behavior when set
	markPaidHook func() (bool, error)
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepo) MarkOrderPaid(_ context.Context, id uuid.UUID, reference string) (bool, error) {
	if m.markPaidHook != nil {
		return m.markPaidHook()
	}
	o, ok := m.orders[id]
	if !ok {
		return false, repository.ErrOrderNotFound
	}
	if o.Paid {
		return false, nil
	}
	o.Paid = true
	o.PaymentReference = reference
	return true, nil
}

func (m *mockOrderRepo) GetUnprocessedEvents(_ context.Context, _ int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkEventAsProcessed(_ context.Context, _ int64) error {
	return nil
}

func (m *mockOrderRepo) RecordNotification(_ context.Context, _ uuid.UUID, _ string) (bool, error) {
	return true, nil
}

func (m *mockOrderRepo) ReleaseNotification(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}
