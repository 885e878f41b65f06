package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradepost-market-service/internal/domain/bid"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// BidRepository implements the append-only bid ledger
type BidRepository struct {
	conn *Connection
}

// NewBidRepository creates a new bid repository
func NewBidRepository(conn *Connection) *BidRepository {
	return &BidRepository{conn: conn}
}

// Admit validates and appends a bid in one transaction. The SELECT ... FOR
// UPDATE on the auction row serializes admissions per auction: the baseline
// read against the ledger and the insert form one atomic unit, so two
// concurrent bids cannot both clear a stale baseline. Bids on different
// auctions lock different rows and proceed in parallel.
func (r *BidRepository) Admit(ctx context.Context, newBid *bid.Bid) error {
	return r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		auctionQuery := `
			SELECT starting_price, min_increment, status, start_time, end_time
			FROM auctions
			WHERE id = $1
			FOR UPDATE
		`

		var startingPrice, minIncrement int64
		var status string
		var startTime, endTime time.Time
		err := tx.QueryRowContext(ctx, auctionQuery, newBid.AuctionID).Scan(
			&startingPrice, &minIncrement, &status, &startTime, &endTime,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to lock auction for admission: %w", err)
		}

		if status != "open" {
			return shared.ErrAuctionClosed
		}
		if newBid.CreatedAt.Before(startTime) {
			return shared.ErrAuctionNotOpen
		}
		if !newBid.CreatedAt.Before(endTime) {
			// end time is a hard admission cutoff
			return shared.ErrAuctionClosed
		}

		baseline := startingPrice
		topQuery := `SELECT COALESCE(MAX(amount), 0) FROM bids WHERE auction_id = $1`

		var topAmount int64
		if err := tx.QueryRowContext(ctx, topQuery, newBid.AuctionID).Scan(&topAmount); err != nil {
			return fmt.Errorf("failed to get top bid: %w", err)
		}
		if topAmount > baseline {
			baseline = topAmount
		}

		minAcceptable := baseline + minIncrement
		if newBid.Amount < minAcceptable {
			return &shared.BidTooLowError{MinAmount: minAcceptable}
		}

		insertQuery := `
			INSERT INTO bids (id, auction_id, bidder_id, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err = tx.ExecContext(ctx, insertQuery,
			newBid.ID,
			newBid.AuctionID,
			newBid.BidderID,
			newBid.Amount,
			newBid.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		return nil
	})
}

// GetByAuctionID retrieves the full ledger for an auction in creation order
func (r *BidRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		var b bid.Bid
		err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return bids, nil
}

// GetTopBid retrieves the highest bid for an auction, ties broken by
// earliest creation time
func (r *BidRepository) GetTopBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	var b bid.Bid
	err := r.conn.GetDB().QueryRowContext(ctx, query, auctionID).Scan(
		&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrNoBidsFound
		}
		return nil, fmt.Errorf("failed to get top bid: %w", err)
	}

	return &b, nil
}
