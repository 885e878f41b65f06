package request

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the current status of a buyer request
type Status string

const (
	StatusOpen      Status = "open"
	StatusAwarded   Status = "awarded"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// BuyerRequest is a buyer-initiated sourcing request inviting seller offers
type BuyerRequest struct {
	ID            uuid.UUID  `json:"id"`
	BuyerID       uuid.UUID  `json:"buyer_id"`
	Model         string     `json:"model"`
	Category      string     `json:"category"`
	MaxPrice      int64      `json:"max_price"`
	Notes         string     `json:"notes,omitempty"`
	Deadline      time.Time  `json:"deadline"`
	Status        Status     `json:"status"`
	ChosenOfferID *uuid.UUID `json:"chosen_offer_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsOpen returns true if the request still accepts offers
func (r *BuyerRequest) IsOpen() bool {
	return r.Status == StatusOpen
}

// Expired returns true if the offer-submission deadline has passed
func (r *BuyerRequest) Expired(now time.Time) bool {
	return !now.Before(r.Deadline)
}
