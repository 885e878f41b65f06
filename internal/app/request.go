package app

import (
	"context"
	"time"

	"tradepost-market-service/internal/adapters/scheduler"
	"tradepost-market-service/internal/domain/offer"
	"tradepost-market-service/internal/domain/request"
	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/domain/shared"
	"tradepost-market-service/internal/ports/inbound"
	"tradepost-market-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestService implements the buyer request and seller offer use cases
type RequestService struct {
	requestRepo outbound.RequestRepository
	offerRepo   outbound.OfferRepository
	scheduler   *scheduler.ExpiryScheduler
	logger      zerolog.Logger
}

type RequestServiceParams struct {
	RequestRepo outbound.RequestRepository
	OfferRepo   outbound.OfferRepository
	Scheduler   *scheduler.ExpiryScheduler
	Logger      zerolog.Logger
}

// NewRequestService creates a new buyer request service
func NewRequestService(params RequestServiceParams) *RequestService {
	return &RequestService{
		requestRepo: params.RequestRepo,
		offerRepo:   params.OfferRepo,
		scheduler:   params.Scheduler,
		logger:      params.Logger.With().Str("component", "request_service").Logger(),
	}
}

// SetScheduler sets the expiry scheduler
func (s *RequestService) SetScheduler(sched *scheduler.ExpiryScheduler) {
	s.scheduler = sched
}

// CreateRequest creates a new buyer sourcing request
func (s *RequestService) CreateRequest(ctx context.Context, req inbound.CreateBuyerRequest) (*request.BuyerRequest, error) {
	s.logger.Info().
		Str("buyer_id", req.BuyerID.String()).
		Str("model", req.Model).
		Str("category", req.Category).
		Int64("max_price", req.MaxPrice).
		Msg("Attempting to create buyer request")

	if req.BuyerID == uuid.Nil || req.Model == "" || req.Category == "" {
		return nil, shared.ErrMissingFields
	}
	if req.MaxPrice <= 0 {
		return nil, shared.ErrInvalidMaxPrice
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		s.logger.Warn().Str("deadline", req.Deadline).Msg("Invalid deadline format")
		return nil, shared.ErrMissingFields
	}

	now := time.Now().UTC()
	if !deadline.After(now) {
		return nil, shared.ErrInvalidDeadline
	}

	r := &request.BuyerRequest{
		ID:        uuid.New(),
		BuyerID:   req.BuyerID,
		Model:     req.Model,
		Category:  req.Category,
		MaxPrice:  req.MaxPrice,
		Notes:     req.Notes,
		Deadline:  deadline,
		Status:    request.StatusOpen,
		CreatedAt: now,
	}

	if err := s.requestRepo.Create(ctx, r); err != nil {
		s.logger.Error().Err(err).Str("request_id", r.ID.String()).Msg("Failed to save buyer request")
		return nil, err
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleRequest(r.ID, r.Deadline); err != nil {
			s.logger.Error().Err(err).Str("request_id", r.ID.String()).Msg("Failed to schedule request expiry")
		}
	}

	s.logger.Info().Str("request_id", r.ID.String()).Msg("Buyer request created successfully")
	return r, nil
}

// ListOpenRequests retrieves open requests after running the expiry sweep
func (s *RequestService) ListOpenRequests(ctx context.Context, req inbound.ListRequest) ([]*request.BuyerRequest, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}

	if err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}

	status := request.StatusOpen
	return s.requestRepo.List(ctx, &status, req.Page, req.PageSize)
}

// SweepExpired expires every open request whose deadline has passed
func (s *RequestService) SweepExpired(ctx context.Context) error {
	expired, err := s.requestRepo.ListExpiredOpen(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		return err
	}

	for _, r := range expired {
		transitioned, err := s.requestRepo.MarkExpired(ctx, r.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("request_id", r.ID.String()).Msg("Failed to expire buyer request")
			continue
		}
		if transitioned {
			s.logger.Info().Str("request_id", r.ID.String()).Msg("Buyer request expired")
		}
	}

	return nil
}

// CancelRequest cancels an open request on behalf of its owner
func (s *RequestService) CancelRequest(ctx context.Context, requestID, requesterID uuid.UUID) error {
	r, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	if r.BuyerID != requesterID {
		return shared.ErrForbidden
	}

	cancelled, err := s.requestRepo.Cancel(ctx, requestID)
	if err != nil {
		return err
	}
	if !cancelled {
		return shared.ErrRequestNotOpen
	}

	s.logger.Info().Str("request_id", requestID.String()).Msg("Buyer request cancelled")
	return nil
}

// SubmitOffer stores a seller's offer against an open request
func (s *RequestService) SubmitOffer(ctx context.Context, req inbound.SubmitOfferRequest) (*offer.SellerOffer, error) {
	s.logger.Info().
		Str("request_id", req.RequestID.String()).
		Str("seller_id", req.SellerID.String()).
		Int64("price", req.Price).
		Msg("Attempting to submit offer")

	if req.SellerID == uuid.Nil {
		return nil, shared.ErrMissingFields
	}

	r, err := s.requestRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !r.IsOpen() {
		return nil, shared.ErrRequestClosed
	}
	if r.Expired(now) {
		// the losing offer attempt settles the stale-open request
		if _, err := s.requestRepo.MarkExpired(ctx, r.ID); err != nil {
			s.logger.Error().Err(err).Str("request_id", r.ID.String()).Msg("Failed to lazily expire request")
			return nil, err
		}
		return nil, shared.ErrRequestClosed
	}

	if req.Price <= 0 || req.Price > r.MaxPrice {
		s.logger.Warn().
			Str("request_id", r.ID.String()).
			Int64("price", req.Price).
			Int64("max_price", r.MaxPrice).
			Msg("Offer price out of range")
		return nil, shared.ErrInvalidOfferPrice
	}

	o := &offer.SellerOffer{
		ID:        uuid.New(),
		RequestID: req.RequestID,
		SellerID:  req.SellerID,
		Price:     req.Price,
		Note:      req.Note,
		Status:    offer.StatusOpen,
		CreatedAt: now,
	}

	if err := s.offerRepo.Create(ctx, o); err != nil {
		s.logger.Error().Err(err).Str("offer_id", o.ID.String()).Msg("Failed to save offer")
		return nil, err
	}

	s.logger.Info().
		Str("offer_id", o.ID.String()).
		Str("request_id", o.RequestID.String()).
		Msg("Offer submitted successfully")

	return o, nil
}

// SelectOffer awards one offer and rejects its siblings as a single atomic
// unit. Two concurrent selections on the same request yield exactly one
// success; the loser observes ErrRequestNotOpen.
func (s *RequestService) SelectOffer(ctx context.Context, req inbound.SelectOfferRequest) (*shared.AwardResult, error) {
	r, err := s.requestRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}

	if r.BuyerID != req.BuyerID {
		return nil, shared.ErrForbidden
	}

	o, err := s.offerRepo.GetByID(ctx, req.OfferID)
	if err != nil {
		return nil, err
	}
	if o.RequestID != req.RequestID {
		return nil, shared.ErrOfferNotFound
	}

	if !r.IsOpen() {
		return nil, shared.ErrRequestNotOpen
	}

	now := time.Now().UTC()
	order := settlement.NewOrder(r.BuyerID, o.SellerID, r.Model, r.ID, o.Price, now)

	awarded, err := s.requestRepo.Award(ctx, req.RequestID, req.OfferID, order)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", req.RequestID.String()).Msg("Failed to award offer")
		return nil, err
	}
	if !awarded {
		return nil, shared.ErrRequestNotOpen
	}

	s.logger.Info().
		Str("request_id", req.RequestID.String()).
		Str("offer_id", req.OfferID.String()).
		Str("seller_id", o.SellerID.String()).
		Int64("price", o.Price).
		Msg("Offer selected and request awarded")

	return &shared.AwardResult{
		RequestID:     req.RequestID,
		ChosenOfferID: req.OfferID,
		SellerID:      o.SellerID,
		Price:         o.Price,
	}, nil
}

// GetOffers retrieves all offers for a request, expiring the request first
// if its deadline has passed
func (s *RequestService) GetOffers(ctx context.Context, requestID uuid.UUID) ([]*offer.SellerOffer, error) {
	r, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if r.IsOpen() && r.Expired(time.Now().UTC()) {
		if _, err := s.requestRepo.MarkExpired(ctx, requestID); err != nil {
			return nil, err
		}
	}

	return s.offerRepo.GetByRequestID(ctx, requestID)
}

// ExpireRequestForScheduler implements scheduler.RequestExpirer
func (s *RequestService) ExpireRequestForScheduler(ctx context.Context, requestID uuid.UUID) error {
	_, err := s.requestRepo.MarkExpired(ctx, requestID)
	return err
}
