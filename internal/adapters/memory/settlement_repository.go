package memory

import (
	"context"
	"time"

	"tradepost-market-service/internal/domain/settlement"

	"github.com/google/uuid"
)

// SettlementRepository is the in-memory settlement outbox adapter
type SettlementRepository struct {
	store *Store
}

// NewSettlementRepository creates an in-memory settlement outbox repository
func NewSettlementRepository(store *Store) *SettlementRepository {
	return &SettlementRepository{store: store}
}

// ListPending retrieves undelivered settlement orders, oldest first
func (r *SettlementRepository) ListPending(ctx context.Context, limit int) ([]*settlement.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*settlement.Order
	for _, id := range r.store.orderSeq {
		o := r.store.orders[id]
		if o.Status != settlement.StatusPending {
			continue
		}
		cp := *o
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}

	return out, nil
}

// MarkDelivered records a successful delivery
func (r *SettlementRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.orders[id]
	if !ok || o.Status != settlement.StatusPending {
		return nil
	}

	o.Status = settlement.StatusDelivered
	at := deliveredAt
	o.DeliveredAt = &at
	o.Attempts++
	return nil
}

// MarkAttempt increments the attempt counter after a failed delivery
func (r *SettlementRepository) MarkAttempt(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if o, ok := r.store.orders[id]; ok {
		o.Attempts++
	}
	return nil
}
