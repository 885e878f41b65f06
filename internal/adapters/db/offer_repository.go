package db

import (
	"context"
	"database/sql"
	"fmt"

	"tradepost-market-service/internal/domain/offer"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// OfferRepository implements the seller offer repository interface
type OfferRepository struct {
	conn *Connection
}

// NewOfferRepository creates a new seller offer repository
func NewOfferRepository(conn *Connection) *OfferRepository {
	return &OfferRepository{conn: conn}
}

// Create creates a new seller offer
func (r *OfferRepository) Create(ctx context.Context, o *offer.SellerOffer) error {
	query := `
		INSERT INTO seller_offers (id, request_id, seller_id, price, note, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		o.ID,
		o.RequestID,
		o.SellerID,
		o.Price,
		o.Note,
		o.Status,
		o.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create seller offer: %w", err)
	}

	return nil
}

// GetByID retrieves a seller offer by ID
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*offer.SellerOffer, error) {
	query := `
		SELECT id, request_id, seller_id, price, note, status, created_at
		FROM seller_offers
		WHERE id = $1
	`

	var o offer.SellerOffer
	err := r.conn.GetDB().QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.RequestID, &o.SellerID, &o.Price, &o.Note, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get seller offer: %w", err)
	}

	return &o, nil
}

// GetByRequestID retrieves all offers for a request in creation order
func (r *OfferRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) ([]*offer.SellerOffer, error) {
	query := `
		SELECT id, request_id, seller_id, price, note, status, created_at
		FROM seller_offers
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seller offers: %w", err)
	}
	defer rows.Close()

	var offers []*offer.SellerOffer
	for rows.Next() {
		var o offer.SellerOffer
		err := rows.Scan(&o.ID, &o.RequestID, &o.SellerID, &o.Price, &o.Note, &o.Status, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan seller offer: %w", err)
		}
		offers = append(offers, &o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seller offers: %w", err)
	}

	return offers, nil
}
