package bid

import (
	"time"

	"github.com/google/uuid"
)

// Bid is one immutable entry in an auction's append-only ledger
type Bid struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Outranks reports whether b beats other as the top bid.
// Higher amount wins; ties are broken by earliest creation time.
func (b *Bid) Outranks(other *Bid) bool {
	if other == nil {
		return true
	}
	if b.Amount != other.Amount {
		return b.Amount > other.Amount
	}
	return b.CreatedAt.Before(other.CreatedAt)
}
