package shared

import (
	"errors"
	"fmt"
)

// Domain-specific errors
var (
	// Auction errors
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrAuctionNotOpen       = errors.New("auction has not started yet")
	ErrAuctionClosed        = errors.New("auction is closed")
	ErrAuctionAlreadyClosed = errors.New("auction already closed")
	ErrBuyNowNotAvailable   = errors.New("buy-now is not available for this auction")
	ErrInvalidEndTime       = errors.New("end time must be after start time")
	ErrInvalidStartingPrice = errors.New("starting price must be greater than 0")
	ErrInvalidIncrement     = errors.New("minimum increment must be at least 1")

	// Bid errors
	ErrInvalidBidAmount = errors.New("bid amount must be greater than 0")
	ErrBidTooLow        = errors.New("bid amount below minimum acceptable amount")
	ErrNoBidsFound      = errors.New("no bids found")

	// Buyer request errors
	ErrRequestNotFound   = errors.New("buyer request not found")
	ErrRequestClosed     = errors.New("buyer request no longer accepts offers")
	ErrRequestNotOpen    = errors.New("buyer request is not open")
	ErrInvalidDeadline   = errors.New("deadline must be in the future")
	ErrInvalidMaxPrice   = errors.New("maximum price must be greater than 0")
	ErrOfferNotFound     = errors.New("seller offer not found")
	ErrInvalidOfferPrice = errors.New("offer price must be positive and within the request's maximum price")

	// Cross-cutting errors
	ErrForbidden     = errors.New("actor is not allowed to perform this operation")
	ErrMissingFields = errors.New("required fields are missing")
)

// BidTooLowError reports the minimum acceptable amount alongside the
// rejection so callers can surface the corrective value.
type BidTooLowError struct {
	MinAmount int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low: minimum acceptable amount is %d", e.MinAmount)
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}
