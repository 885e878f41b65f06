package app

import (
	"context"
	"time"

	"tradepost-market-service/internal/adapters/scheduler"
	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/shared"
	"tradepost-market-service/internal/ports/inbound"
	"tradepost-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sweepBatchSize caps how many expired entities a single read reconciles
const sweepBatchSize = 50

// AuctionService implements the auction use cases, including the finalizer
// shared by the expiry sweep, buy-now and manual close triggers.
type AuctionService struct {
	auctionRepo outbound.AuctionRepository
	scheduler   *scheduler.ExpiryScheduler
	logger      zerolog.Logger
}

type AuctionServiceParams struct {
	AuctionRepo outbound.AuctionRepository
	Scheduler   *scheduler.ExpiryScheduler
	Logger      zerolog.Logger
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	return &AuctionService{
		auctionRepo: params.AuctionRepo,
		scheduler:   params.Scheduler,
		logger:      params.Logger.With().Str("component", "auction_service").Logger(),
	}
}

// SetScheduler sets the expiry scheduler
func (s *AuctionService) SetScheduler(sched *scheduler.ExpiryScheduler) {
	s.scheduler = sched
}

// CreateAuction creates a new auction
func (s *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	s.logger.Info().
		Str("item_type", req.ItemType).
		Str("item_id", req.ItemID.String()).
		Str("seller_id", req.SellerID.String()).
		Int64("starting_price", req.StartingPrice).
		Msg("Attempting to create auction")

	if req.ItemType == "" || req.ItemID == uuid.Nil || req.SellerID == uuid.Nil {
		return nil, shared.ErrMissingFields
	}
	if req.StartingPrice <= 0 {
		return nil, shared.ErrInvalidStartingPrice
	}
	if req.MinIncrement < 1 {
		return nil, shared.ErrInvalidIncrement
	}
	if req.BuyNowPrice != nil && *req.BuyNowPrice <= 0 {
		return nil, shared.ErrInvalidStartingPrice
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		s.logger.Warn().Str("start_time", req.StartTime).Msg("Invalid start time format")
		return nil, shared.ErrMissingFields
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		s.logger.Warn().Str("end_time", req.EndTime).Msg("Invalid end time format")
		return nil, shared.ErrMissingFields
	}
	if !endTime.After(startTime) {
		s.logger.Warn().Time("start_time", startTime).Time("end_time", endTime).Msg("End time must be after start time")
		return nil, shared.ErrInvalidEndTime
	}

	now := time.Now().UTC()
	a := &auction.Auction{
		ID:            uuid.New(),
		ItemType:      req.ItemType,
		ItemID:        req.ItemID,
		SellerID:      req.SellerID,
		StartingPrice: req.StartingPrice,
		MinIncrement:  req.MinIncrement,
		BuyNowPrice:   req.BuyNowPrice,
		StartTime:     startTime,
		EndTime:       endTime,
		Status:        auction.StatusOpen,
		CreatedAt:     now,
	}

	if err := s.auctionRepo.Create(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to save auction")
		return nil, err
	}

	// Scheduling is best-effort: the lazy sweep covers a missed schedule
	if s.scheduler != nil {
		if err := s.scheduler.ScheduleAuction(a.ID, a.EndTime); err != nil {
			s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to schedule auction expiry")
		}
	}

	s.logger.Info().Str("auction_id", a.ID.String()).Msg("Auction created successfully")
	return a, nil
}

// GetAuction retrieves an auction by ID, finalizing it first if its window
// has passed so no client observes a stale-open auction.
func (s *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if a.IsOpen() && a.Expired(time.Now().UTC()) {
		if _, err := s.finalize(ctx, a, nil, nil); err != nil {
			return nil, err
		}
		return s.auctionRepo.GetByID(ctx, auctionID)
	}

	return a, nil
}

// ListActiveAuctions retrieves open auctions after running the expiry sweep
func (s *AuctionService) ListActiveAuctions(ctx context.Context, req inbound.ListRequest) ([]*auction.Auction, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}

	if err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}

	status := auction.StatusOpen
	return s.auctionRepo.List(ctx, &status, req.Page, req.PageSize)
}

// SweepExpired finalizes every open auction whose end time has passed.
// Safe to run concurrently with any other finalize trigger.
func (s *AuctionService) SweepExpired(ctx context.Context) error {
	expired, err := s.auctionRepo.ListExpiredOpen(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		return err
	}

	for _, a := range expired {
		if _, err := s.finalize(ctx, a, nil, nil); err != nil {
			s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to finalize expired auction")
		}
	}

	return nil
}

// BuyNow finalizes an auction immediately at its configured buy-now price
func (s *AuctionService) BuyNow(ctx context.Context, auctionID, buyerID uuid.UUID) (*shared.FinalizeResult, error) {
	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if !a.IsOpen() || !a.HasBuyNow() {
		return nil, shared.ErrBuyNowNotAvailable
	}
	if a.Expired(time.Now().UTC()) {
		// lazily settle the stale-open auction, then reject the purchase
		if _, err := s.finalize(ctx, a, nil, nil); err != nil {
			return nil, err
		}
		return nil, shared.ErrBuyNowNotAvailable
	}

	return s.finalize(ctx, a, &buyerID, a.BuyNowPrice)
}

// Close finalizes an auction on behalf of its seller, awarding the top bid
func (s *AuctionService) Close(ctx context.Context, auctionID, requesterID uuid.UUID) (*shared.FinalizeResult, error) {
	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if a.SellerID != requesterID {
		return nil, shared.ErrForbidden
	}
	if !a.IsOpen() {
		return nil, shared.ErrAuctionAlreadyClosed
	}

	return s.finalize(ctx, a, nil, nil)
}

// Finalize transitions an auction to closed exactly once. Every trigger
// (expiry sweep, scheduler, buy-now, manual close) converges here; repeated
// calls return the stored terminal state unchanged.
func (s *AuctionService) Finalize(ctx context.Context, auctionID uuid.UUID) (*shared.FinalizeResult, error) {
	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return s.finalize(ctx, a, nil, nil)
}

// finalize performs the atomic open-to-closed transition. Winner selection
// happens inside the repository's serialization boundary, the explicit
// winner/price pair (buy-now) taking precedence over the ledger's top bid;
// with an empty ledger the auction closes with no winner at the starting
// price. Exactly one of any set of racing callers observes the transition
// succeed and enqueues the settlement order.
func (s *AuctionService) finalize(ctx context.Context, a *auction.Auction, explicitWinner *uuid.UUID, explicitPrice *int64) (*shared.FinalizeResult, error) {
	if a.IsClosed() {
		return terminalResult(a), nil
	}

	closedAt := time.Now().UTC()

	outcome, err := s.auctionRepo.CloseIfOpen(ctx, a.ID, explicitWinner, explicitPrice, closedAt)
	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to close auction")
		return nil, err
	}

	if !outcome.Transitioned {
		// another trigger performed the transition; return its result
		closed, err := s.auctionRepo.GetByID(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return terminalResult(closed), nil
	}

	event := s.logger.Info().Str("auction_id", a.ID.String()).Int64("final_price", outcome.FinalPrice)
	if outcome.WinnerID != nil {
		event = event.Str("winner_id", outcome.WinnerID.String())
	}
	event.Msg("Auction finalized")

	return &shared.FinalizeResult{
		AuctionID:  a.ID,
		WinnerID:   outcome.WinnerID,
		FinalPrice: outcome.FinalPrice,
		ClosedAt:   closedAt,
	}, nil
}

// FinalizeForScheduler implements scheduler.AuctionFinalizer
func (s *AuctionService) FinalizeForScheduler(ctx context.Context, auctionID uuid.UUID) (*shared.FinalizeResult, error) {
	return s.Finalize(ctx, auctionID)
}

func terminalResult(a *auction.Auction) *shared.FinalizeResult {
	res := &shared.FinalizeResult{
		AuctionID: a.ID,
		WinnerID:  a.WinnerID,
	}
	if a.FinalPrice != nil {
		res.FinalPrice = *a.FinalPrice
	}
	if a.ClosedAt != nil {
		res.ClosedAt = *a.ClosedAt
	}
	return res
}
