package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	auctionExpirySet   = "auction:expirations"
	requestDeadlineSet = "request:deadlines"
)

// AuctionFinalizer finalizes an auction; repeated invocations are no-ops
type AuctionFinalizer interface {
	FinalizeForScheduler(ctx context.Context, auctionID uuid.UUID) (*shared.FinalizeResult, error)
}

// RequestExpirer expires a buyer request; repeated invocations are no-ops
type RequestExpirer interface {
	ExpireRequestForScheduler(ctx context.Context, requestID uuid.UUID) error
}

// ExpiryScheduler keeps auction end times and request deadlines in redis
// sorted sets and drives the proactive side of the expiry sweep. It only
// improves timeliness: every transition it triggers is the same idempotent
// one the read-triggered sweep relies on, so racing the lazy path is safe.
type ExpiryScheduler struct {
	redis     *redis.Client
	finalizer AuctionFinalizer
	expirer   RequestExpirer
	interval  time.Duration
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type ExpirySchedulerParams struct {
	RedisClient *redis.Client
	Finalizer   AuctionFinalizer
	Expirer     RequestExpirer
	Interval    time.Duration
	Logger      zerolog.Logger
}

func NewExpiryScheduler(params ExpirySchedulerParams) *ExpiryScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	interval := params.Interval
	if interval <= 0 {
		interval = time.Second
	}

	return &ExpiryScheduler{
		redis:     params.RedisClient,
		finalizer: params.Finalizer,
		expirer:   params.Expirer,
		interval:  interval,
		logger:    params.Logger.With().Str("component", "expiry_scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ScheduleAuction adds an auction to the expiration schedule
func (s *ExpiryScheduler) ScheduleAuction(auctionID uuid.UUID, endTime time.Time) error {
	err := s.redis.ZAdd(s.ctx, auctionExpirySet, redis.Z{
		Score:  float64(endTime.Unix()),
		Member: auctionID.String(),
	}).Err()

	if err != nil {
		return fmt.Errorf("failed to schedule auction: %w", err)
	}

	s.logger.Info().
		Str("auction_id", auctionID.String()).
		Time("end_time", endTime).
		Msg("Auction scheduled for expiration")

	return nil
}

// ScheduleRequest adds a buyer request to the deadline schedule
func (s *ExpiryScheduler) ScheduleRequest(requestID uuid.UUID, deadline time.Time) error {
	err := s.redis.ZAdd(s.ctx, requestDeadlineSet, redis.Z{
		Score:  float64(deadline.Unix()),
		Member: requestID.String(),
	}).Err()

	if err != nil {
		return fmt.Errorf("failed to schedule request: %w", err)
	}

	s.logger.Info().
		Str("request_id", requestID.String()).
		Time("deadline", deadline).
		Msg("Buyer request scheduled for expiration")

	return nil
}

// Start begins the scheduler loop
func (s *ExpiryScheduler) Start() {
	s.logger.Info().Msg("Starting expiry scheduler")

	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop gracefully stops the scheduler
func (s *ExpiryScheduler) Stop() {
	s.logger.Info().Msg("Stopping expiry scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *ExpiryScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkExpiredAuctions()
			s.checkExpiredRequests()
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}

func (s *ExpiryScheduler) dueMembers(key string) []string {
	now := time.Now().Unix()

	due, err := s.redis.ZRangeByScore(s.ctx, key, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(now, 10),
		Count: 10, // Process max 10 at a time
	}).Result()

	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to get due entries")
		return nil
	}

	return due
}

func (s *ExpiryScheduler) checkExpiredAuctions() {
	for _, idStr := range s.dueMembers(auctionExpirySet) {
		auctionID, err := uuid.Parse(idStr)
		if err != nil {
			s.logger.Error().Err(err).Str("auction_id", idStr).Msg("Invalid auction ID")
			s.redis.ZRem(s.ctx, auctionExpirySet, idStr)
			continue
		}

		go s.finalizeAuction(auctionID)
	}
}

func (s *ExpiryScheduler) finalizeAuction(auctionID uuid.UUID) {
	defer s.redis.ZRem(s.ctx, auctionExpirySet, auctionID.String())

	result, err := s.finalizer.FinalizeForScheduler(s.ctx, auctionID)
	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to finalize auction")
		return
	}

	event := s.logger.Info().Str("auction_id", auctionID.String()).Int64("final_price", result.FinalPrice)
	if result.WinnerID != nil {
		event = event.Str("winner_id", result.WinnerID.String())
	}
	event.Msg("Auction expired and finalized")
}

func (s *ExpiryScheduler) checkExpiredRequests() {
	for _, idStr := range s.dueMembers(requestDeadlineSet) {
		requestID, err := uuid.Parse(idStr)
		if err != nil {
			s.logger.Error().Err(err).Str("request_id", idStr).Msg("Invalid request ID")
			s.redis.ZRem(s.ctx, requestDeadlineSet, idStr)
			continue
		}

		go s.expireRequest(requestID)
	}
}

func (s *ExpiryScheduler) expireRequest(requestID uuid.UUID) {
	defer s.redis.ZRem(s.ctx, requestDeadlineSet, requestID.String())

	if err := s.expirer.ExpireRequestForScheduler(s.ctx, requestID); err != nil {
		s.logger.Error().Err(err).Str("request_id", requestID.String()).Msg("Failed to expire request")
		return
	}

	s.logger.Info().Str("request_id", requestID.String()).Msg("Buyer request deadline processed")
}
