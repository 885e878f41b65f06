package memory

import (
	"sync"

	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/bid"
	"tradepost-market-service/internal/domain/offer"
	"tradepost-market-service/internal/domain/request"
	"tradepost-market-service/internal/domain/settlement"

	"github.com/google/uuid"
)

// Store holds all in-memory state shared by the repository adapters in this
// package. One mutex guards everything, so the conditional transitions
// (bid admission, close-if-open, award) are atomic in the same way the
// Postgres adapters make them atomic with row locks and guarded updates.
type Store struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]*auction.Auction
	bids     map[uuid.UUID][]*bid.Bid
	requests map[uuid.UUID]*request.BuyerRequest
	offers   map[uuid.UUID]*offer.SellerOffer
	orders   map[uuid.UUID]*settlement.Order
	orderSeq []uuid.UUID
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		auctions: make(map[uuid.UUID]*auction.Auction),
		bids:     make(map[uuid.UUID][]*bid.Bid),
		requests: make(map[uuid.UUID]*request.BuyerRequest),
		offers:   make(map[uuid.UUID]*offer.SellerOffer),
		orders:   make(map[uuid.UUID]*settlement.Order),
	}
}

// enqueueOrder appends a settlement order; callers must hold the write lock
func (s *Store) enqueueOrder(order *settlement.Order) {
	cp := *order
	s.orders[order.ID] = &cp
	s.orderSeq = append(s.orderSeq, order.ID)
}

// Orders returns every settlement order ever enqueued, in creation order.
// Intended for tests.
func (s *Store) Orders() []*settlement.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*settlement.Order, 0, len(s.orderSeq))
	for _, id := range s.orderSeq {
		cp := *s.orders[id]
		out = append(out, &cp)
	}
	return out
}

// SeedAuction inserts an auction as-is, bypassing service validation.
// Intended for tests that need already-expired or already-closed listings.
func (s *Store) SeedAuction(a *auction.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.auctions[a.ID] = &cp
}

// SeedOrder enqueues a settlement order directly. Intended for tests.
func (s *Store) SeedOrder(order *settlement.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enqueueOrder(order)
}

// SeedBid appends a bid without admission checks. Intended for tests that
// need a ledger on an auction whose window already passed.
func (s *Store) SeedBid(b *bid.Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *b
	s.bids[b.AuctionID] = append(s.bids[b.AuctionID], &cp)
}

// SeedRequest inserts a buyer request as-is, bypassing service validation.
// Intended for tests.
func (s *Store) SeedRequest(r *request.BuyerRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	s.requests[r.ID] = &cp
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		return items
	}

	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
