package memory

import (
	"context"
	"sort"
	"time"

	"tradepost-market-service/internal/domain/offer"
	"tradepost-market-service/internal/domain/request"
	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/domain/shared"

	"github.com/google/uuid"
)

// RequestRepository is the in-memory buyer request adapter
type RequestRepository struct {
	store *Store
}

// NewRequestRepository creates an in-memory buyer request repository
func NewRequestRepository(store *Store) *RequestRepository {
	return &RequestRepository{store: store}
}

// Create creates a new buyer request
func (r *RequestRepository) Create(ctx context.Context, req *request.BuyerRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *req
	r.store.requests[req.ID] = &cp
	return nil
}

// GetByID retrieves a buyer request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.BuyerRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, ok := r.store.requests[id]
	if !ok {
		return nil, shared.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

// List retrieves buyer requests with optional status filter, newest first
func (r *RequestRepository) List(ctx context.Context, status *request.Status, page, pageSize int) ([]*request.BuyerRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*request.BuyerRequest
	for _, req := range r.store.requests {
		if status != nil && req.Status != *status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, page, pageSize), nil
}

// ListExpiredOpen retrieves open requests whose deadline has passed
func (r *RequestRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*request.BuyerRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*request.BuyerRequest
	for _, req := range r.store.requests {
		if req.Status == request.StatusOpen && !now.Before(req.Deadline) {
			cp := *req
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkExpired transitions a request from open to expired
func (r *RequestRepository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(id, request.StatusExpired)
}

// Cancel transitions a request from open to cancelled
func (r *RequestRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(id, request.StatusCancelled)
}

func (r *RequestRepository) transition(id uuid.UUID, to request.Status) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	req, ok := r.store.requests[id]
	if !ok {
		return false, shared.ErrRequestNotFound
	}
	if req.Status != request.StatusOpen {
		return false, nil
	}

	req.Status = to
	return true, nil
}

// Award atomically awards one offer, rejects its siblings and enqueues the
// settlement order. Returns false if the request was no longer open.
func (r *RequestRepository) Award(ctx context.Context, requestID, offerID uuid.UUID, order *settlement.Order) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	req, ok := r.store.requests[requestID]
	if !ok {
		return false, shared.ErrRequestNotFound
	}
	if req.Status != request.StatusOpen {
		return false, nil
	}

	req.Status = request.StatusAwarded
	chosen := offerID
	req.ChosenOfferID = &chosen

	for _, o := range r.store.offers {
		if o.RequestID != requestID {
			continue
		}
		if o.ID == offerID {
			o.Status = offer.StatusSelected
		} else {
			o.Status = offer.StatusRejected
		}
	}

	if order != nil {
		r.store.enqueueOrder(order)
	}

	return true, nil
}

// OfferRepository is the in-memory seller offer adapter
type OfferRepository struct {
	store *Store
}

// NewOfferRepository creates an in-memory seller offer repository
func NewOfferRepository(store *Store) *OfferRepository {
	return &OfferRepository{store: store}
}

// Create creates a new seller offer
func (r *OfferRepository) Create(ctx context.Context, o *offer.SellerOffer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *o
	r.store.offers[o.ID] = &cp
	return nil
}

// GetByID retrieves a seller offer by ID
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*offer.SellerOffer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	o, ok := r.store.offers[id]
	if !ok {
		return nil, shared.ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

// GetByRequestID retrieves all offers for a request in creation order
func (r *OfferRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) ([]*offer.SellerOffer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*offer.SellerOffer
	for _, o := range r.store.offers {
		if o.RequestID == requestID {
			cp := *o
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
