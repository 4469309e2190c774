package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// Mailer delivers the two customer-facing notifications.
type Mailer interface {
	SendOrderConfirmation(order *domain.Order) error
	SendInvoice(order *domain.Order, invoice []byte) error
}

// InvoiceRenderer is the document rendering collaborator: it turns an order
// snapshot into a byte stream.
type InvoiceRenderer interface {
	Render(order *domain.Order) ([]byte, error)
}

// OrderSource is the slice of the repository the consumer needs. The order
// is always re-fetched by id; nothing carried in the event is trusted
// beyond the id itself.
type OrderSource interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	RecordNotification(ctx context.Context, orderID uuid.UUID, kind string) (bool, error)
	ReleaseNotification(ctx context.Context, orderID uuid.UUID, kind string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Consumer struct {
	orders    OrderSource
	mailer    Mailer
	invoices  InvoiceRenderer
	reader    messageReader
	readRetry time.Duration
	logger    *zap.Logger
}

func NewConsumer(orders OrderSource, mailer Mailer, invoices InvoiceRenderer, logger *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  "notifier",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		orders:    orders,
		mailer:    mailer,
		invoices:  invoices,
		reader:    reader,
		readRetry: time.Second,
		logger:    logger,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	r, ok := c.reader.(*kafka.Reader)
	if !ok {
		return
	}
	if err := r.Close(); err != nil {
		c.logger.Error("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("error reading message", zap.Error(err))
		// an unreachable broker fails fast; wait before the next attempt
		select {
		case <-time.After(c.readRetry):
		case <-ctx.Done():
		}
		return
	}

	var event domain.NotificationEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Error("error parsing message", zap.Error(err))
		return
	}

	if err := c.handleEvent(ctx, &event); err != nil {
		c.logger.Error("failed to handle notification event",
			zap.String("order_id", event.OrderID.String()),
			zap.String("event_type", event.EventType),
			zap.Error(err))
	}
}

// handleEvent performs the side effect for one delivery. The dedup key is
// claimed before sending so a redelivered event cannot produce a second
// email; a failed send releases the claim again, keeping the transition
// retryable on the next delivery.
func (c *Consumer) handleEvent(ctx context.Context, event *domain.NotificationEvent) error {
	switch event.EventType {
	case domain.NotificationOrderCreated, domain.NotificationPaymentCompleted:
	default:
		c.logger.Info("ignoring unknown notification event",
			zap.String("event_type", event.EventType))
		return nil
	}

	order, err := c.orders.GetOrderByID(ctx, event.OrderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return fmt.Errorf("order %s not found", event.OrderID)
	}
	if err != nil {
		return err
	}

	fresh, err := c.orders.RecordNotification(ctx, event.OrderID, event.EventType)
	if err != nil {
		return err
	}
	if !fresh {
		c.logger.Info("notification already sent, skipping",
			zap.String("order_id", event.OrderID.String()),
			zap.String("event_type", event.EventType))
		return nil
	}

	var sendErr error
	switch event.EventType {
	case domain.NotificationOrderCreated:
		sendErr = c.mailer.SendOrderConfirmation(order)
	case domain.NotificationPaymentCompleted:
		invoice, err := c.invoices.Render(order)
		if err != nil {
			sendErr = fmt.Errorf("render invoice: %w", err)
		} else {
			sendErr = c.mailer.SendInvoice(order, invoice)
		}
	}
	if sendErr != nil {
		// give the claim back so a redelivered event can retry the send
		if relErr := c.orders.ReleaseNotification(ctx, event.OrderID, event.EventType); relErr != nil {
			c.logger.Error("failed to release notification claim",
				zap.String("order_id", event.OrderID.String()),
				zap.String("event_type", event.EventType),
				zap.Error(relErr))
		}
		return sendErr
	}
	return nil
}
