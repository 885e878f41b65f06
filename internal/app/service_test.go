package app

import (
	"time"

	"tradepost-market-service/internal/adapters/memory"
	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/bid"
	"tradepost-market-service/internal/domain/request"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// testEnv wires the services against the in-memory adapters so the tests
// exercise the same conditional transitions the Postgres adapters implement.
type testEnv struct {
	store          *memory.Store
	auctionService *AuctionService
	bidService     *BidService
	requestService *RequestService
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	logger := zerolog.Nop()

	auctionService := NewAuctionService(AuctionServiceParams{
		AuctionRepo: memory.NewAuctionRepository(store),
		Logger:      logger,
	})
	bidService := NewBidService(BidServiceParams{
		BidRepo:     memory.NewBidRepository(store),
		AuctionRepo: memory.NewAuctionRepository(store),
		Finalizer:   auctionService,
		Logger:      logger,
	})
	requestService := NewRequestService(RequestServiceParams{
		RequestRepo: memory.NewRequestRepository(store),
		OfferRepo:   memory.NewOfferRepository(store),
		Logger:      logger,
	})

	return &testEnv{
		store:          store,
		auctionService: auctionService,
		bidService:     bidService,
		requestService: requestService,
	}
}

// seedOpenAuction inserts an auction running from an hour ago to an hour from
// now with a 1000 starting price and 50 increment.
func (e *testEnv) seedOpenAuction(sellerID uuid.UUID, buyNow *int64) *auction.Auction {
	now := time.Now().UTC()
	a := &auction.Auction{
		ID:            uuid.New(),
		ItemType:      "trophy",
		ItemID:        uuid.New(),
		SellerID:      sellerID,
		StartingPrice: 1000,
		MinIncrement:  50,
		BuyNowPrice:   buyNow,
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		Status:        auction.StatusOpen,
		CreatedAt:     now.Add(-time.Hour),
	}
	e.store.SeedAuction(a)
	return a
}

// seedExpiredAuction inserts an auction whose window already passed but whose
// status is still open.
func (e *testEnv) seedExpiredAuction(sellerID uuid.UUID) *auction.Auction {
	now := time.Now().UTC()
	a := &auction.Auction{
		ID:            uuid.New(),
		ItemType:      "trophy",
		ItemID:        uuid.New(),
		SellerID:      sellerID,
		StartingPrice: 1000,
		MinIncrement:  50,
		StartTime:     now.Add(-2 * time.Hour),
		EndTime:       now.Add(-time.Minute),
		Status:        auction.StatusOpen,
		CreatedAt:     now.Add(-2 * time.Hour),
	}
	e.store.SeedAuction(a)
	return a
}

// seedBid appends a bid directly to an auction's ledger
func (e *testEnv) seedBid(auctionID, bidderID uuid.UUID, amount int64, at time.Time) *bid.Bid {
	b := &bid.Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: at,
	}
	e.store.SeedBid(b)
	return b
}

// seedOpenRequest inserts an open buyer request with a 5000 price cap and a
// deadline an hour out.
func (e *testEnv) seedOpenRequest(buyerID uuid.UUID) *request.BuyerRequest {
	now := time.Now().UTC()
	r := &request.BuyerRequest{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		Model:     "vintage-frame",
		Category:  "frames",
		MaxPrice:  5000,
		Deadline:  now.Add(time.Hour),
		Status:    request.StatusOpen,
		CreatedAt: now,
	}
	e.store.SeedRequest(r)
	return r
}
