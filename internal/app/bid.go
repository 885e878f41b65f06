package app

import (
	"context"
	"time"

	"tradepost-market-service/internal/domain/bid"
	"tradepost-market-service/internal/domain/shared"
	"tradepost-market-service/internal/ports/inbound"
	"tradepost-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// auctionFinalizer is the slice of AuctionService that bid admission needs
// to lazily settle an auction whose window passed.
type auctionFinalizer interface {
	Finalize(ctx context.Context, auctionID uuid.UUID) (*shared.FinalizeResult, error)
}

// BidService implements the bid admission use cases
type BidService struct {
	bidRepo     outbound.BidRepository
	auctionRepo outbound.AuctionRepository
	finalizer   auctionFinalizer
	logger      zerolog.Logger
}

type BidServiceParams struct {
	BidRepo     outbound.BidRepository
	AuctionRepo outbound.AuctionRepository
	Finalizer   *AuctionService
	Logger      zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	return &BidService{
		bidRepo:     params.BidRepo,
		auctionRepo: params.AuctionRepo,
		finalizer:   params.Finalizer,
		logger:      params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid validates and appends a bid to an auction's ledger. The increment
// check against the current top bid happens inside the repository's
// per-auction serialization boundary, so two concurrent bids can never both
// clear a stale baseline.
func (s *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	s.logger.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("bidder_id", req.BidderID.String()).
		Int64("amount", req.Amount).
		Msg("Attempting to place bid")

	if req.BidderID == uuid.Nil || req.Amount <= 0 {
		return nil, shared.ErrInvalidBidAmount
	}

	a, err := s.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !a.IsOpen() {
		// a closed auction rejects with the same code regardless of which
		// layer observes the terminal status first
		return nil, shared.ErrAuctionClosed
	}
	if !a.Started(now) {
		s.logger.Warn().Str("auction_id", a.ID.String()).Msg("Auction not started yet")
		return nil, shared.ErrAuctionNotOpen
	}
	if a.Expired(now) {
		// the losing bid attempt settles the stale-open auction
		if _, err := s.finalizer.Finalize(ctx, a.ID); err != nil {
			s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to lazily finalize expired auction")
			return nil, err
		}
		return nil, shared.ErrAuctionClosed
	}

	newBid := &bid.Bid{
		ID:        uuid.New(),
		AuctionID: req.AuctionID,
		BidderID:  req.BidderID,
		Amount:    req.Amount,
		CreatedAt: now,
	}

	if err := s.bidRepo.Admit(ctx, newBid); err != nil {
		s.logger.Warn().Err(err).
			Str("auction_id", req.AuctionID.String()).
			Int64("amount", req.Amount).
			Msg("Bid rejected")
		return nil, err
	}

	s.logger.Info().
		Str("bid_id", newBid.ID.String()).
		Str("auction_id", newBid.AuctionID.String()).
		Int64("amount", newBid.Amount).
		Msg("Bid placed successfully")

	return newBid, nil
}

// GetBids retrieves the bid ledger for an auction in creation order,
// settling the auction first if its window has passed
func (s *BidService) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if a.IsOpen() && a.Expired(time.Now().UTC()) {
		if _, err := s.finalizer.Finalize(ctx, a.ID); err != nil {
			return nil, err
		}
	}

	return s.bidRepo.GetByAuctionID(ctx, auctionID)
}

// GetTopBid retrieves the current top bid for an auction
func (s *BidService) GetTopBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	return s.bidRepo.GetTopBid(ctx, auctionID)
}
