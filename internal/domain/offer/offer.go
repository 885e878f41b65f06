package offer

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a seller offer
type Status string

const (
	StatusOpen     Status = "open"
	StatusSelected Status = "selected"
	StatusRejected Status = "rejected"
)

// SellerOffer is one seller's priced response to a buyer request.
// Exactly one offer per request may ever become selected; its siblings
// are rejected atomically with that selection.
type SellerOffer struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Price     int64     `json:"price"`
	Note      string    `json:"note,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// IsOpen returns true if the offer has not been selected or rejected yet
func (o *SellerOffer) IsOpen() bool {
	return o.Status == StatusOpen
}
