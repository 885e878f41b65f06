package auction

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the current status of an auction
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Auction represents a timed competitive-bidding listing for one item
type Auction struct {
	ID            uuid.UUID  `json:"id"`
	ItemType      string     `json:"item_type"`
	ItemID        uuid.UUID  `json:"item_id"`
	SellerID      uuid.UUID  `json:"seller_id"`
	StartingPrice int64      `json:"starting_price"`
	MinIncrement  int64      `json:"min_increment"`
	BuyNowPrice   *int64     `json:"buy_now_price,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Status        Status     `json:"status"`
	WinnerID      *uuid.UUID `json:"winner_id,omitempty"`
	FinalPrice    *int64     `json:"final_price,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsOpen returns true if the auction has not been finalized yet
func (a *Auction) IsOpen() bool {
	return a.Status == StatusOpen
}

// IsClosed returns true if the auction reached its terminal state
func (a *Auction) IsClosed() bool {
	return a.Status == StatusClosed
}

// Started returns true if the bidding window has opened
func (a *Auction) Started(now time.Time) bool {
	return !now.Before(a.StartTime)
}

// Expired returns true if the bidding window has passed.
// The end time is a hard admission cutoff regardless of sweep timing.
func (a *Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// HasBuyNow returns true if an immediate-purchase price is configured
func (a *Auction) HasBuyNow() bool {
	return a.BuyNowPrice != nil && *a.BuyNowPrice > 0
}

// MinAcceptableBid returns the lowest amount a new bid must reach given the
// current top bid amount (pass the starting price when the ledger is empty).
func (a *Auction) MinAcceptableBid(baseline int64) int64 {
	return baseline + a.MinIncrement
}
