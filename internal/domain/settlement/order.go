package settlement

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery status of a settlement order
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
)

// Order is a durable settlement intent, written in the same transaction as
// the auction close or request award that produced it and delivered to the
// external order system asynchronously. Because the producing transition
// happens at most once, at most one order exists per outcome.
type Order struct {
	ID          uuid.UUID  `json:"id"`
	BuyerID     uuid.UUID  `json:"buyer_id"`
	SellerID    uuid.UUID  `json:"seller_id"`
	ItemType    string     `json:"item_type"`
	ItemID      uuid.UUID  `json:"item_id"`
	Price       int64      `json:"price"`
	Status      Status     `json:"status"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// NewOrder builds a pending settlement order for a concluded sale
func NewOrder(buyerID, sellerID uuid.UUID, itemType string, itemID uuid.UUID, price int64, now time.Time) *Order {
	return &Order{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		ItemType:  itemType,
		ItemID:    itemID,
		Price:     price,
		Status:    StatusPending,
		CreatedAt: now,
	}
}
