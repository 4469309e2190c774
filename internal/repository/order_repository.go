package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
)

// CreateOrder persists the order, its items and the order_created outbox
// event in a single transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (id, first_name, last_name, email, address, postal_code, city,
	                              paid, payment_reference, coupon_id, discount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, false, '', $8, $9, NOW(), NOW())`

	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.FirstName,
		order.LastName,
		order.Email,
		order.Address,
		order.PostalCode,
		order.City,
		order.CouponID,
		order.Discount)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
	              VALUES ($1, $2, $3, $4, $5)`
	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			order.ID,
			item.ProductID,
			item.ProductName,
			item.Price,
			item.Quantity,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := insertOutboxEvent(ctx, tx, order.ID, domain.NotificationOrderCreated); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, first_name, last_name, email, address, postal_code, city,
	                 paid, payment_reference, coupon_id, discount, created_at, updated_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	var couponID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.FirstName,
		&order.LastName,
		&order.Email,
		&order.Address,
		&order.PostalCode,
		&order.City,
		&order.Paid,
		&order.PaymentReference,
		&couponID,
		&order.Discount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	if couponID.Valid {
		order.CouponID = &couponID.Int64
	}

	itemQuery := `SELECT product_id, product_name, price, quantity
	              FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, itemQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &order, nil
}

// MarkOrderPaid is a compare-and-set on the paid flag. It returns true only
// when this call performed the Created -> Paid transition; the matching
// payment_completed outbox event is written in the same transaction, so a
// lost race can never enqueue a second one.
func (r *Repository) MarkOrderPaid(ctx context.Context, id uuid.UUID, reference string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE orders
	          SET paid = true, payment_reference = $2, updated_at = NOW()
	          WHERE id = $1 AND paid = false`

	res, err := tx.ExecContext(ctx, query, id, reference)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := insertOutboxEvent(ctx, tx, id, domain.NotificationPaymentCompleted); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit paid transition: %w", err)
	}
	return true, nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, eventType string) error {
	payload, err := json.Marshal(domain.NotificationEvent{
		OrderID:    orderID,
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	query := `INSERT INTO notification_outbox (order_id, event_type, payload, processed, created_at)
	          VALUES ($1, $2, $3, false, NOW())`
	if _, err := tx.ExecContext(ctx, query, orderID, eventType, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, order_id, event_type, payload, created_at
	          FROM notification_outbox
	          WHERE processed = false
	          ORDER BY id
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		if err := rows.Scan(&event.ID, &event.OrderID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	query := `UPDATE notification_outbox SET processed = true WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

// RecordNotification claims the (order, kind) dedup key. It returns true
// when this call inserted the row, i.e. the side effect has not been
// performed before.
func (r *Repository) RecordNotification(ctx context.Context, orderID uuid.UUID, kind string) (bool, error) {
	query := `INSERT INTO notification_log (order_id, kind, sent_at)
	          VALUES ($1, $2, NOW())
	          ON CONFLICT (order_id, kind) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, orderID, kind)
	if err != nil {
		return false, fmt.Errorf("record notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ReleaseNotification drops a previously claimed dedup key. Called when the
// side effect behind the claim failed, so a redelivered event can retry.
func (r *Repository) ReleaseNotification(ctx context.Context, orderID uuid.UUID, kind string) error {
	query := `DELETE FROM notification_log WHERE order_id = $1 AND kind = $2`
	if _, err := r.db.ExecContext(ctx, query, orderID, kind); err != nil {
		return fmt.Errorf("release notification: %w", err)
	}
	return nil
}
