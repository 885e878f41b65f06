package outbound

import (
	"context"
	"time"

	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/bid"
	"tradepost-market-service/internal/domain/offer"
	"tradepost-market-service/internal/domain/request"
	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionRepository defines the interface for auction data operations
type AuctionRepository interface {
	// Create creates a new auction
	Create(ctx context.Context, auction *auction.Auction) error

	// GetByID retrieves an auction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// List retrieves a list of auctions with optional status filter
	List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error)

	// ListExpiredOpen retrieves open auctions whose end time has passed
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error)

	// CloseIfOpen atomically transitions an auction from open to closed.
	// The winner is resolved inside the same serialization boundary as the
	// status flip: the explicit winner/price pair (buy-now) when given,
	// otherwise the ledger's top bid at transition time, otherwise no winner
	// at the starting price. When a winner exists the settlement order is
	// durably enqueued in the same transaction. Returns Transitioned false
	// without modifying anything if the auction was no longer open; that is
	// the sole mechanism ensuring exactly one finalizer wins.
	CloseIfOpen(ctx context.Context, auctionID uuid.UUID, explicitWinner *uuid.UUID, explicitPrice *int64, closedAt time.Time) (*shared.CloseOutcome, error)
}

// BidRepository defines the interface for the append-only bid ledger
type BidRepository interface {
	// Admit validates and appends a bid in one serialized unit per auction:
	// the baseline (top bid or starting price) is read and the increment
	// check performed with no other admission for the same auction able to
	// interleave. Returns shared.ErrAuctionNotFound, shared.ErrAuctionNotOpen,
	// shared.ErrAuctionClosed or *shared.BidTooLowError on rejection.
	Admit(ctx context.Context, bid *bid.Bid) error

	// GetByAuctionID retrieves the full ledger for an auction in creation order
	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetTopBid retrieves the highest bid for an auction, ties broken by
	// earliest creation time. Returns shared.ErrNoBidsFound on an empty ledger.
	GetTopBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)
}

// RequestRepository defines the interface for buyer request data operations
type RequestRepository interface {
	// Create creates a new buyer request
	Create(ctx context.Context, req *request.BuyerRequest) error

	// GetByID retrieves a buyer request by ID
	GetByID(ctx context.Context, id uuid.UUID) (*request.BuyerRequest, error)

	// List retrieves a list of buyer requests with optional status filter
	List(ctx context.Context, status *request.Status, page, pageSize int) ([]*request.BuyerRequest, error)

	// ListExpiredOpen retrieves open requests whose deadline has passed
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*request.BuyerRequest, error)

	// MarkExpired transitions a request from open to expired.
	// Returns false if the request was no longer open.
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)

	// Cancel transitions a request from open to cancelled.
	// Returns false if the request was no longer open.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)

	// Award atomically transitions the request to awarded with the chosen
	// offer, marks that offer selected, rejects every sibling offer and
	// durably enqueues the settlement order, all in one transaction.
	// Returns false without modifying anything if the request was not open.
	Award(ctx context.Context, requestID, offerID uuid.UUID, order *settlement.Order) (bool, error)
}

// OfferRepository defines the interface for seller offer data operations
type OfferRepository interface {
	// Create creates a new seller offer
	Create(ctx context.Context, o *offer.SellerOffer) error

	// GetByID retrieves a seller offer by ID
	GetByID(ctx context.Context, id uuid.UUID) (*offer.SellerOffer, error)

	// GetByRequestID retrieves all offers for a request in creation order
	GetByRequestID(ctx context.Context, requestID uuid.UUID) ([]*offer.SellerOffer, error)
}

// SettlementRepository defines the interface for the settlement outbox.
// Orders are inserted by AuctionRepository.CloseIfOpen and
// RequestRepository.Award inside their transactions; the dispatcher only
// reads and updates delivery state here.
type SettlementRepository interface {
	// ListPending retrieves undelivered settlement orders, oldest first
	ListPending(ctx context.Context, limit int) ([]*settlement.Order, error)

	// MarkDelivered records a successful delivery
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error

	// MarkAttempt increments the attempt counter after a failed delivery
	MarkAttempt(ctx context.Context, id uuid.UUID) error
}
