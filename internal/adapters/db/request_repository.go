package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradepost-market-service/internal/domain/request"
	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

const requestColumns = `id, buyer_id, model, category, max_price, notes, deadline, status, chosen_offer_id, created_at`

// RequestRepository implements the buyer request repository interface
type RequestRepository struct {
	conn *Connection
}

// NewRequestRepository creates a new buyer request repository
func NewRequestRepository(conn *Connection) *RequestRepository {
	return &RequestRepository{conn: conn}
}

// Create creates a new buyer request
func (r *RequestRepository) Create(ctx context.Context, req *request.BuyerRequest) error {
	query := `
		INSERT INTO buyer_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		req.ID,
		req.BuyerID,
		req.Model,
		req.Category,
		req.MaxPrice,
		req.Notes,
		req.Deadline,
		req.Status,
		req.ChosenOfferID,
		req.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create buyer request: %w", err)
	}

	return nil
}

func scanRequest(row interface {
	Scan(dest ...interface{}) error
}) (*request.BuyerRequest, error) {
	var req request.BuyerRequest
	err := row.Scan(
		&req.ID,
		&req.BuyerID,
		&req.Model,
		&req.Category,
		&req.MaxPrice,
		&req.Notes,
		&req.Deadline,
		&req.Status,
		&req.ChosenOfferID,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByID retrieves a buyer request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.BuyerRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM buyer_requests WHERE id = $1`

	req, err := scanRequest(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get buyer request: %w", err)
	}

	return req, nil
}

// List retrieves a list of buyer requests with optional status filter
func (r *RequestRepository) List(ctx context.Context, status *request.Status, page, pageSize int) ([]*request.BuyerRequest, error) {
	baseQuery := `SELECT ` + requestColumns + ` FROM buyer_requests `

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
		return nil, fmt.Errorf("failed to list buyer requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListExpiredOpen retrieves open requests whose deadline has passed
func (r *RequestRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*request.BuyerRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM buyer_requests
		WHERE status = 'open' AND deadline <= $1
		ORDER BY deadline ASC
		LIMIT $2
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired buyer requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]*request.BuyerRequest, error) {
	var requests []*request.BuyerRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buyer request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buyer requests: %w", err)
	}

	return requests, nil
}

// MarkExpired transitions a request from open to expired
func (r *RequestRepository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, id, request.StatusExpired)
}

// Cancel transitions a request from open to cancelled
func (r *RequestRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, id, request.StatusCancelled)
}

func (r *RequestRepository) transition(ctx context.Context, id uuid.UUID, to request.Status) (bool, error) {
	query := `UPDATE buyer_requests SET status = $2 WHERE id = $1 AND status = 'open'`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition buyer request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// Award atomically awards one offer: the request transitions open->awarded
// with its chosen offer recorded, the offer becomes selected, every sibling
// becomes rejected and the settlement order is enqueued in one transaction,
// guarded by the request's status so racing awards yield exactly one winner.
func (r *RequestRepository) Award(ctx context.Context, requestID, offerID uuid.UUID, order *settlement.Order) (bool, error) {
	var awarded bool

	err := r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		awardQuery := `
			UPDATE buyer_requests
			SET status = 'awarded', chosen_offer_id = $2
			WHERE id = $1 AND status = 'open'
		`

		result, err := tx.ExecContext(ctx, awardQuery, requestID, offerID)
		if err != nil {
			return fmt.Errorf("failed to award buyer request: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// request no longer open; leave offers untouched
			return nil
		}
		awarded = true

		selectQuery := `UPDATE seller_offers SET status = 'selected' WHERE id = $1 AND request_id = $2`
		if _, err := tx.ExecContext(ctx, selectQuery, offerID, requestID); err != nil {
			return fmt.Errorf("failed to select offer: %w", err)
		}

		rejectQuery := `UPDATE seller_offers SET status = 'rejected' WHERE request_id = $1 AND id <> $2`
		if _, err := tx.ExecContext(ctx, rejectQuery, requestID, offerID); err != nil {
			return fmt.Errorf("failed to reject sibling offers: %w", err)
		}

		if order != nil {
			if err := insertSettlementOrder(ctx, tx, order); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return false, err
	}

	return awarded, nil
}
