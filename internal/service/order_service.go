package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// OrderService owns the durable order ledger.
type OrderService struct {
	repo   repository.OrderRepository
	logger *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{repo: repo, logger: logger}
}

// CreateFromCart freezes the cart into a durable order: one item per cart
// line using the cart's price snapshots, and the coupon's current percent
// copied exactly once. The order's totals never depend on live coupon or
// catalog state afterwards.
func (s *OrderService) CreateFromCart(
	ctx context.Context,
	customer domain.CustomerInfo,
	lines []domain.CartLine,
	coupon *domain.Coupon,
) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
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

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.Int("discount_percent", order.Discount))
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// MarkPaid transitions the order to paid, idempotently. Re-delivery with the
// same reference is a no-op success. A delivery carrying a different
// reference for an already-paid order is a data-integrity signal: it is
// logged and the original reference kept, never overwritten.
func (s *OrderService) MarkPaid(ctx context.Context, id uuid.UUID, reference string) error {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}

	if order.Paid {
		if order.PaymentReference != reference {
			s.logger.Error("paid order observed with conflicting payment reference",
				zap.String("order_id", id.String()),
				zap.String("existing_reference", order.PaymentReference),
				zap.String("delivered_reference", reference))
		}
		return nil
	}

	transitioned, err := s.repo.MarkOrderPaid(ctx, id, reference)
	if err != nil {
		return err
	}
	if transitioned {
		s.logger.Info("order paid",
			zap.String("order_id", id.String()),
			zap.String("payment_reference", reference))
		return nil
	}

	// lost the race to a concurrent delivery; verify the winner agrees
	current, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if current.PaymentReference != reference {
		s.logger.Error("paid order observed with conflicting payment reference",
			zap.String("order_id", id.String()),
			zap.String("existing_reference", current.PaymentReference),
			zap.String("delivered_reference", reference))
	}
	return nil
}
