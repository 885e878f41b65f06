package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradepost-market-service/internal/domain/settlement"

	"github.com/google/uuid"
)

// SettlementRepository implements the settlement outbox. Orders are inserted
// by the auction close and request award transactions via
// insertSettlementOrder; this repository only serves the dispatcher.
type SettlementRepository struct {
	conn *Connection
}

// NewSettlementRepository creates a new settlement outbox repository
func NewSettlementRepository(conn *Connection) *SettlementRepository {
	return &SettlementRepository{conn: conn}
}

// insertSettlementOrder enqueues a settlement order inside the caller's
// transaction so the intent is durable iff the producing transition commits.
func insertSettlementOrder(ctx context.Context, tx *sql.Tx, order *settlement.Order) error {
	query := `
		INSERT INTO settlement_orders (id, buyer_id, seller_id, item_type, item_id, price, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.ExecContext(ctx, query,
		order.ID,
		order.BuyerID,
		order.SellerID,
		order.ItemType,
		order.ItemID,
		order.Price,
		order.Status,
		order.Attempts,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue settlement order: %w", err)
	}

	return nil
}

// ListPending retrieves undelivered settlement orders, oldest first
func (r *SettlementRepository) ListPending(ctx context.Context, limit int) ([]*settlement.Order, error) {
	query := `
		SELECT id, buyer_id, seller_id, item_type, item_id, price, status, attempts, created_at, delivered_at
		FROM settlement_orders
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending settlement orders: %w", err)
	}
	defer rows.Close()

	var orders []*settlement.Order
	for rows.Next() {
		var o settlement.Order
		err := rows.Scan(
			&o.ID, &o.BuyerID, &o.SellerID, &o.ItemType, &o.ItemID,
			&o.Price, &o.Status, &o.Attempts, &o.CreatedAt, &o.DeliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement order: %w", err)
		}
		orders = append(orders, &o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settlement orders: %w", err)
	}

	return orders, nil
}

// MarkDelivered records a successful delivery
func (r *SettlementRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	query := `
		UPDATE settlement_orders
		SET status = 'delivered', delivered_at = $2, attempts = attempts + 1
		WHERE id = $1 AND status = 'pending'
	`

	if _, err := r.conn.GetDB().ExecContext(ctx, query, id, deliveredAt); err != nil {
		return fmt.Errorf("failed to mark settlement order delivered: %w", err)
	}

	return nil
}

// MarkAttempt increments the attempt counter after a failed delivery
func (r *SettlementRepository) MarkAttempt(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE settlement_orders SET attempts = attempts + 1 WHERE id = $1`

	if _, err := r.conn.GetDB().ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record settlement attempt: %w", err)
	}

	return nil
}
