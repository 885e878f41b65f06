package shared

import (
	"time"

	"github.com/google/uuid"
)

// FinalizeResult represents the terminal state of a finalized auction.
// Every caller racing to close the same auction receives the same result.
type FinalizeResult struct {
	AuctionID  uuid.UUID  `json:"auction_id"`
	WinnerID   *uuid.UUID `json:"winner_id,omitempty"`
	FinalPrice int64      `json:"final_price"`
	ClosedAt   time.Time  `json:"closed_at"`
}

// CloseOutcome reports the result of an attempted open-to-closed transition.
// Winner and final price are only meaningful when Transitioned is true; they
// are computed inside the same serialization boundary as the status flip, so
// no bid admitted before the transition can be missed.
type CloseOutcome struct {
	Transitioned bool
	WinnerID     *uuid.UUID
	FinalPrice   int64
}

// AwardResult represents the outcome of awarding a buyer request
type AwardResult struct {
	RequestID     uuid.UUID `json:"request_id"`
	ChosenOfferID uuid.UUID `json:"chosen_offer_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Price         int64     `json:"price"`
}
