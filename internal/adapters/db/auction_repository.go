package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

const auctionColumns = `id, item_type, item_id, seller_id, starting_price, min_increment, buy_now_price, start_time, end_time, status, winner_id, final_price, closed_at, created_at`

// AuctionRepository implements the auction repository interface
type AuctionRepository struct {
	conn *Connection
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(conn *Connection) *AuctionRepository {
	return &AuctionRepository{conn: conn}
}

// Create creates a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.ItemType,
		a.ItemID,
		a.SellerID,
		a.StartingPrice,
		a.MinIncrement,
		a.BuyNowPrice,
		a.StartTime,
		a.EndTime,
		a.Status,
		a.WinnerID,
		a.FinalPrice,
		a.ClosedAt,
		a.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

func scanAuction(row interface {
	Scan(dest ...interface{}) error
}) (*auction.Auction, error) {
	var a auction.Auction
	err := row.Scan(
		&a.ID,
		&a.ItemType,
		&a.ItemID,
		&a.SellerID,
		&a.StartingPrice,
		&a.MinIncrement,
		&a.BuyNowPrice,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.WinnerID,
		&a.FinalPrice,
		&a.ClosedAt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`

	a, err := scanAuction(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return a, nil
}

// List retrieves a list of auctions with optional status filter
func (r *AuctionRepository) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	baseQuery := `SELECT ` + auctionColumns + ` FROM auctions `

	var whereClause string
	var args []interface{}
	argCount := 1

	if status != nil {
		whereClause = "WHERE status = $1"
		args = append(args, *status)
		argCount++
	}

	limitClause := fmt.Sprintf("LIMIT $%d", argCount)
	offsetClause := fmt.Sprintf("OFFSET $%d", argCount+1)
	args = append(args, pageSize, (page-1)*pageSize)

	query := baseQuery + whereClause + " ORDER BY created_at DESC " + limitClause + " " + offsetClause

	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	return collectAuctions(rows)
}

// ListExpiredOpen retrieves open auctions whose end time has passed
func (r *AuctionRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'open' AND end_time <= $1
		ORDER BY end_time ASC
		LIMIT $2
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	defer rows.Close()

	return collectAuctions(rows)
}

func collectAuctions(rows *sql.Rows) ([]*auction.Auction, error) {
	var auctions []*auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}

	return auctions, nil
}

// CloseIfOpen atomically transitions an auction to closed. The SELECT ...
// FOR UPDATE on the auction row is the same lock bid admission takes, so the
// winner computed here reflects every bid admitted before the transition and
// no bid can slip in between the top-bid read and the status flip. The
// settlement order, when a winner exists, is enqueued in the same transaction.
func (r *AuctionRepository) CloseIfOpen(ctx context.Context, auctionID uuid.UUID, explicitWinner *uuid.UUID, explicitPrice *int64, closedAt time.Time) (*shared.CloseOutcome, error) {
	outcome := &shared.CloseOutcome{}

	err := r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		lockQuery := `
			SELECT seller_id, item_type, item_id, starting_price, status
			FROM auctions
			WHERE id = $1
			FOR UPDATE
		`

		var sellerID, itemID uuid.UUID
		var itemType, status string
		var startingPrice int64
		err := tx.QueryRowContext(ctx, lockQuery, auctionID).Scan(
			&sellerID, &itemType, &itemID, &startingPrice, &status,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to lock auction for close: %w", err)
		}

		if status != "open" {
			// already closed by a racing trigger
			return nil
		}

		winner := explicitWinner
		price := startingPrice
		if explicitPrice != nil {
			price = *explicitPrice
		}

		if winner == nil {
			topQuery := `
				SELECT bidder_id, amount
				FROM bids
				WHERE auction_id = $1
				ORDER BY amount DESC, created_at ASC
				LIMIT 1
			`

			var bidderID uuid.UUID
			var amount int64
			err := tx.QueryRowContext(ctx, topQuery, auctionID).Scan(&bidderID, &amount)
			if err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("failed to get top bid for close: %w", err)
			}
			if err == nil {
				winner = &bidderID
				price = amount
			}
		}

		updateQuery := `
			UPDATE auctions
			SET status = 'closed', winner_id = $2, final_price = $3, closed_at = $4
			WHERE id = $1 AND status = 'open'
		`

		if _, err := tx.ExecContext(ctx, updateQuery, auctionID, winner, price, closedAt); err != nil {
			return fmt.Errorf("failed to close auction: %w", err)
		}

		if winner != nil {
			order := settlement.NewOrder(*winner, sellerID, itemType, itemID, price, closedAt)
			if err := insertSettlementOrder(ctx, tx, order); err != nil {
				return err
			}
		}

		outcome.Transitioned = true
		outcome.WinnerID = winner
		outcome.FinalPrice = price
		return nil
	})

	if err != nil {
		return nil, err
	}

	return outcome, nil
}
