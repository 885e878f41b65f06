package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/shared"
	"tradepost-market-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// The ladder starts at starting price 1000 with increment 50, so the first
// acceptable bid is 1050 and every later bid must clear top + 50.
func TestBidService_PlaceBid_Ladder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.seedOpenAuction(uuid.New(), nil)

	steps := []struct {
		name        string
		amount      int64
		expectedMin int64
	}{
		{name: "at_starting_price_too_low", amount: 1000, expectedMin: 1050},
		{name: "first_valid_bid", amount: 1050},
		{name: "below_increment_too_low", amount: 1099, expectedMin: 1100},
		{name: "exactly_one_increment_up", amount: 1100},
		{name: "equal_to_top_too_low", amount: 1100, expectedMin: 1150},
		{name: "jump_is_fine", amount: 2000},
	}

	for _, tc := range steps {
		t.Run(tc.name, func(t *testing.T) {
			b, err := env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{
				AuctionID: a.ID,
				BidderID:  uuid.New(),
				Amount:    tc.amount,
			})

			if tc.expectedMin != 0 {
				require.Error(t, err)
				require.ErrorIs(t, err, shared.ErrBidTooLow)

				var tooLow *shared.BidTooLowError
				require.True(t, errors.As(err, &tooLow))
				require.Equal(t, tc.expectedMin, tooLow.MinAmount)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.amount, b.Amount)

			top, err := env.bidService.GetTopBid(ctx, a.ID)
			require.NoError(t, err)
			require.Equal(t, b.ID, top.ID)
		})
	}
}

func TestBidService_PlaceBid_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid_bidder", func(t *testing.T) {
		env := newTestEnv()
		a := env.seedOpenAuction(uuid.New(), nil)

		_, err := env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, Amount: 1050})
		require.ErrorIs(t, err, shared.ErrInvalidBidAmount)
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		env := newTestEnv()
		a := env.seedOpenAuction(uuid.New(), nil)

		_, err := env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, BidderID: uuid.New(), Amount: 0})
		require.ErrorIs(t, err, shared.ErrInvalidBidAmount)
	})

	t.Run("unknown_auction", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: uuid.New(), BidderID: uuid.New(), Amount: 1050})
		require.ErrorIs(t, err, shared.ErrAuctionNotFound)
	})

	t.Run("not_started_yet", func(t *testing.T) {
		env := newTestEnv()
		now := time.Now().UTC()
		a := env.seedOpenAuction(uuid.New(), nil)
		a.StartTime = now.Add(time.Hour)
		a.EndTime = now.Add(2 * time.Hour)
		env.store.SeedAuction(a)

		_, err := env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, BidderID: uuid.New(), Amount: 1050})
		require.ErrorIs(t, err, shared.ErrAuctionNotOpen)
	})

	t.Run("closed_auction", func(t *testing.T) {
		env := newTestEnv()
		seller := uuid.New()
		a := env.seedOpenAuction(seller, nil)
		_, err := env.auctionService.Close(ctx, a.ID, seller)
		require.NoError(t, err)

		_, err = env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, BidderID: uuid.New(), Amount: 1050})
		require.ErrorIs(t, err, shared.ErrAuctionClosed)
	})

	t.Run("expired_auction_is_settled_lazily", func(t *testing.T) {
		env := newTestEnv()
		a := env.seedExpiredAuction(uuid.New())
		winner := uuid.New()
		env.seedBid(a.ID, winner, 1200, a.EndTime.Add(-time.Minute))

		_, err := env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ID, BidderID: uuid.New(), Amount: 9999})
		require.ErrorIs(t, err, shared.ErrAuctionClosed)

		stored, err := env.auctionService.GetAuction(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, auction.StatusClosed, stored.Status)
		require.NotNil(t, stored.WinnerID)
		require.Equal(t, winner, *stored.WinnerID)
		require.Len(t, env.store.Orders(), 1)
	})
}

// Concurrent bidders race the same ledger; every admitted bid must clear the
// previous top by the full increment, whatever the interleaving.
func TestBidService_PlaceBid_Concurrent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.seedOpenAuction(uuid.New(), nil)

	const bidders = 50
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		amount := int64(1050 + i*10)
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			// losers are expected; admission order decides
			_, _ = env.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{
				AuctionID: a.ID,
				BidderID:  uuid.New(),
				Amount:    amount,
			})
		}(amount)
	}
	wg.Wait()

	admitted, err := env.bidService.GetBids(ctx, a.ID)
	require.NoError(t, err)
	require.NotEmpty(t, admitted)

	amounts := make([]int64, 0, len(admitted))
	for _, b := range admitted {
		amounts = append(amounts, b.Amount)
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })

	require.GreaterOrEqual(t, amounts[0], a.StartingPrice+a.MinIncrement)
	for i := 1; i < len(amounts); i++ {
		require.GreaterOrEqual(t, amounts[i], amounts[i-1]+a.MinIncrement,
			"admitted amounts must each clear the previous top by the increment")
	}
}

func TestBidService_GetBids(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	t.Run("unknown_auction", func(t *testing.T) {
		_, err := env.bidService.GetBids(ctx, uuid.New())
		require.ErrorIs(t, err, shared.ErrAuctionNotFound)
	})

	t.Run("ledger_in_creation_order", func(t *testing.T) {
		a := env.seedOpenAuction(uuid.New(), nil)
		now := time.Now().UTC()
		first := env.seedBid(a.ID, uuid.New(), 1050, now.Add(-2*time.Minute))
		second := env.seedBid(a.ID, uuid.New(), 1100, now.Add(-time.Minute))

		bids, err := env.bidService.GetBids(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, bids, 2)
		require.Equal(t, first.ID, bids[0].ID)
		require.Equal(t, second.ID, bids[1].ID)
	})
}

func TestBidService_GetTopBid_TieBreaksOnTime(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.seedOpenAuction(uuid.New(), nil)

	now := time.Now().UTC()
	earlier := env.seedBid(a.ID, uuid.New(), 1100, now.Add(-2*time.Minute))
	env.seedBid(a.ID, uuid.New(), 1100, now.Add(-time.Minute))

	top, err := env.bidService.GetTopBid(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, earlier.ID, top.ID)

	_, err = env.bidService.GetTopBid(ctx, uuid.New())
	require.ErrorIs(t, err, shared.ErrNoBidsFound)
}
