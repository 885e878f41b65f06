package memory

import (
	"context"
	"sort"
	"time"

	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/bid"
	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionRepository is the in-memory auction adapter
type AuctionRepository struct {
	store *Store
}

// NewAuctionRepository creates an in-memory auction repository
func NewAuctionRepository(store *Store) *AuctionRepository {
	return &AuctionRepository{store: store}
}

// Create creates a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *a
	r.store.auctions[a.ID] = &cp
	return nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.auctions[id]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

// List retrieves auctions with optional status filter, newest first
func (r *AuctionRepository) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*auction.Auction
	for _, a := range r.store.auctions {
		if status != nil && a.Status != *status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, page, pageSize), nil
}

// ListExpiredOpen retrieves open auctions whose end time has passed
func (r *AuctionRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*auction.Auction
	for _, a := range r.store.auctions {
		if a.Status == auction.StatusOpen && !now.Before(a.EndTime) {
			cp := *a
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].EndTime.Before(out[j].EndTime)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CloseIfOpen atomically transitions an auction to closed. The winner is
// resolved under the same write lock as the status flip, so the ledger scan
// sees every admitted bid and no admission can interleave before the
// transition lands. Returns Transitioned false if the auction was no longer
// open.
func (r *AuctionRepository) CloseIfOpen(ctx context.Context, auctionID uuid.UUID, explicitWinner *uuid.UUID, explicitPrice *int64, closedAt time.Time) (*shared.CloseOutcome, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.auctions[auctionID]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	if a.Status != auction.StatusOpen {
		return &shared.CloseOutcome{}, nil
	}

	winner := explicitWinner
	price := a.StartingPrice
	if explicitPrice != nil {
		price = *explicitPrice
	}

	if winner == nil {
		var top *bid.Bid
		for _, b := range r.store.bids[auctionID] {
			if b.Outranks(top) {
				top = b
			}
		}
		if top != nil {
			bidder := top.BidderID
			winner = &bidder
			price = top.Amount
		}
	}

	a.Status = auction.StatusClosed
	a.WinnerID = winner
	finalPrice := price
	a.FinalPrice = &finalPrice
	at := closedAt
	a.ClosedAt = &at

	if winner != nil {
		r.store.enqueueOrder(settlement.NewOrder(*winner, a.SellerID, a.ItemType, a.ItemID, price, closedAt))
	}

	return &shared.CloseOutcome{
		Transitioned: true,
		WinnerID:     winner,
		FinalPrice:   price,
	}, nil
}

// BidRepository is the in-memory bid ledger adapter
type BidRepository struct {
	store *Store
}

// NewBidRepository creates an in-memory bid repository
func NewBidRepository(store *Store) *BidRepository {
	return &BidRepository{store: store}
}

// Admit validates and appends a bid under the store lock, so the baseline
// read and the append are one atomic unit per auction.
func (r *BidRepository) Admit(ctx context.Context, newBid *bid.Bid) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.auctions[newBid.AuctionID]
	if !ok {
		return shared.ErrAuctionNotFound
	}

	if a.Status != auction.StatusOpen {
		return shared.ErrAuctionClosed
	}
	if newBid.CreatedAt.Before(a.StartTime) {
		return shared.ErrAuctionNotOpen
	}
	if !newBid.CreatedAt.Before(a.EndTime) {
		// end time is a hard admission cutoff
		return shared.ErrAuctionClosed
	}

	baseline := a.StartingPrice
	for _, b := range r.store.bids[newBid.AuctionID] {
		if b.Amount > baseline {
			baseline = b.Amount
		}
	}

	minAcceptable := baseline + a.MinIncrement
	if newBid.Amount < minAcceptable {
		return &shared.BidTooLowError{MinAmount: minAcceptable}
	}

	cp := *newBid
	r.store.bids[newBid.AuctionID] = append(r.store.bids[newBid.AuctionID], &cp)
	return nil
}

// GetByAuctionID retrieves the full ledger for an auction in creation order
func (r *BidRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ledger := r.store.bids[auctionID]
	out := make([]*bid.Bid, 0, len(ledger))
	for _, b := range ledger {
		cp := *b
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// GetTopBid retrieves the highest bid, ties broken by earliest creation time
func (r *BidRepository) GetTopBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var top *bid.Bid
	for _, b := range r.store.bids[auctionID] {
		if b.Outranks(top) {
			top = b
		}
	}
	if top == nil {
		return nil, shared.ErrNoBidsFound
	}

	cp := *top
	return &cp, nil
}
