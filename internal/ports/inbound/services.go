package inbound

import (
	"context"

	"tradepost-market-service/internal/domain/auction"
	"tradepost-market-service/internal/domain/bid"
	"tradepost-market-service/internal/domain/offer"
	"tradepost-market-service/internal/domain/request"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionService defines the interface for auction operations
type AuctionService interface {
	// CreateAuction creates a new auction
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuction retrieves an auction by ID, sweeping it first if expired
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListActiveAuctions retrieves open auctions after running the expiry sweep
	ListActiveAuctions(ctx context.Context, req ListRequest) ([]*auction.Auction, error)

	// BuyNow finalizes an auction immediately at its buy-now price
	BuyNow(ctx context.Context, auctionID, buyerID uuid.UUID) (*shared.FinalizeResult, error)

	// Close finalizes an auction on behalf of its seller
	Close(ctx context.Context, auctionID, requesterID uuid.UUID) (*shared.FinalizeResult, error)

	// Finalize transitions an auction to closed exactly once; safe to call
	// concurrently from any trigger
	Finalize(ctx context.Context, auctionID uuid.UUID) (*shared.FinalizeResult, error)
}

// BidService defines the interface for bid operations
type BidService interface {
	// PlaceBid places a new bid on an auction
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// GetBids retrieves the bid ledger for an auction
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetTopBid retrieves the current top bid for an auction
	GetTopBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)
}

// RequestService defines the interface for buyer request operations
type RequestService interface {
	// CreateRequest creates a new buyer sourcing request
	CreateRequest(ctx context.Context, req CreateBuyerRequest) (*request.BuyerRequest, error)

	// ListOpenRequests retrieves open requests after running the expiry sweep
	ListOpenRequests(ctx context.Context, req ListRequest) ([]*request.BuyerRequest, error)

	// CancelRequest cancels an open request on behalf of its owner
	CancelRequest(ctx context.Context, requestID, requesterID uuid.UUID) error

	// SubmitOffer stores a seller's offer against an open request
	SubmitOffer(ctx context.Context, req SubmitOfferRequest) (*offer.SellerOffer, error)

	// SelectOffer awards one offer and rejects its siblings atomically
	SelectOffer(ctx context.Context, req SelectOfferRequest) (*shared.AwardResult, error)

	// GetOffers retrieves all offers for a request
	GetOffers(ctx context.Context, requestID uuid.UUID) ([]*offer.SellerOffer, error)
}

// request to create an auction
type CreateAuctionRequest struct {
	ItemType      string    `json:"item_type"`
	ItemID        uuid.UUID `json:"item_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	StartingPrice int64     `json:"starting_price"`
	MinIncrement  int64     `json:"min_increment"`
	BuyNowPrice   *int64    `json:"buy_now_price,omitempty"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    int64     `json:"amount"`
}

// paging for list queries
type ListRequest struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// request to create a buyer sourcing request
type CreateBuyerRequest struct {
	BuyerID  uuid.UUID `json:"buyer_id"`
	Model    string    `json:"model"`
	Category string    `json:"category"`
	MaxPrice int64     `json:"max_price"`
	Notes    string    `json:"notes"`
	Deadline string    `json:"deadline"`
}

// request to submit a seller offer
type SubmitOfferRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Price     int64     `json:"price"`
	Note      string    `json:"note"`
}

// request to select the winning offer
type SelectOfferRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	OfferID   uuid.UUID `json:"offer_id"`
}
