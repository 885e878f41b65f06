package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradepost-market-service/internal/domain/offer"
	"tradepost-market-service/internal/domain/request"
	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/domain/shared"
	"tradepost-market-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestService_CreateRequest(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	valid := inbound.CreateBuyerRequest{
		BuyerID:  uuid.New(),
		Model:    "vintage-frame",
		Category: "frames",
		MaxPrice: 5000,
		Deadline: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	}

	tests := []struct {
		name          string
		mutate        func(r *inbound.CreateBuyerRequest)
		expectedError error
	}{
		{
			name:   "valid_request",
			mutate: func(r *inbound.CreateBuyerRequest) {},
		},
		{
			name:          "missing_buyer",
			mutate:        func(r *inbound.CreateBuyerRequest) { r.BuyerID = uuid.Nil },
			expectedError: shared.ErrMissingFields,
		},
		{
			name:          "missing_model",
			mutate:        func(r *inbound.CreateBuyerRequest) { r.Model = "" },
			expectedError: shared.ErrMissingFields,
		},
		{
			name:          "zero_max_price",
			mutate:        func(r *inbound.CreateBuyerRequest) { r.MaxPrice = 0 },
			expectedError: shared.ErrInvalidMaxPrice,
		},
		{
			name: "deadline_in_past",
			mutate: func(r *inbound.CreateBuyerRequest) {
				r.Deadline = time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
			},
			expectedError: shared.ErrInvalidDeadline,
		},
		{
			name:          "unparseable_deadline",
			mutate:        func(r *inbound.CreateBuyerRequest) { r.Deadline = "friday" },
			expectedError: shared.ErrMissingFields,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			r, err := env.requestService.CreateRequest(ctx, req)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, r.ID)
			require.Equal(t, request.StatusOpen, r.Status)
		})
	}
}

func TestRequestService_SubmitOffer(t *testing.T) {
	ctx := context.Background()

	t.Run("valid_offer", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedOpenRequest(uuid.New())
		seller := uuid.New()

		o, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: r.ID,
			SellerID:  seller,
			Price:     4000,
			Note:      "mint condition",
		})
		require.NoError(t, err)
		require.Equal(t, offer.StatusOpen, o.Status)
		require.Equal(t, seller, o.SellerID)

		offers, err := env.requestService.GetOffers(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, offers, 1)
	})

	t.Run("unknown_request", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: uuid.New(),
			SellerID:  uuid.New(),
			Price:     4000,
		})
		require.ErrorIs(t, err, shared.ErrRequestNotFound)
	})

	t.Run("price_above_cap", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedOpenRequest(uuid.New())

		_, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: r.ID,
			SellerID:  uuid.New(),
			Price:     r.MaxPrice + 1,
		})
		require.ErrorIs(t, err, shared.ErrInvalidOfferPrice)
	})

	t.Run("non_positive_price", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedOpenRequest(uuid.New())

		_, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: r.ID,
			SellerID:  uuid.New(),
			Price:     0,
		})
		require.ErrorIs(t, err, shared.ErrInvalidOfferPrice)
	})

	t.Run("cancelled_request", func(t *testing.T) {
		env := newTestEnv()
		buyer := uuid.New()
		r := env.seedOpenRequest(buyer)
		require.NoError(t, env.requestService.CancelRequest(ctx, r.ID, buyer))

		_, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: r.ID,
			SellerID:  uuid.New(),
			Price:     4000,
		})
		require.ErrorIs(t, err, shared.ErrRequestClosed)
	})

	t.Run("expired_request_is_settled_lazily", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedOpenRequest(uuid.New())
		r.Deadline = time.Now().UTC().Add(-time.Minute)
		env.store.SeedRequest(r)

		_, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: r.ID,
			SellerID:  uuid.New(),
			Price:     4000,
		})
		require.ErrorIs(t, err, shared.ErrRequestClosed)

		open, err := env.requestService.ListOpenRequests(ctx, inbound.ListRequest{})
		require.NoError(t, err)
		require.Empty(t, open)
	})
}

func TestRequestService_SelectOffer(t *testing.T) {
	ctx := context.Background()

	submit := func(t *testing.T, env *testEnv, requestID uuid.UUID, price int64) *offer.SellerOffer {
		t.Helper()
		o, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: requestID,
			SellerID:  uuid.New(),
			Price:     price,
		})
		require.NoError(t, err)
		return o
	}

	t.Run("awards_offer_and_rejects_siblings", func(t *testing.T) {
		env := newTestEnv()
		buyer := uuid.New()
		r := env.seedOpenRequest(buyer)
		chosen := submit(t, env, r.ID, 3000)
		other := submit(t, env, r.ID, 2500)

		result, err := env.requestService.SelectOffer(ctx, inbound.SelectOfferRequest{
			RequestID: r.ID,
			BuyerID:   buyer,
			OfferID:   chosen.ID,
		})
		require.NoError(t, err)
		require.Equal(t, chosen.ID, result.ChosenOfferID)
		require.Equal(t, chosen.SellerID, result.SellerID)
		require.Equal(t, int64(3000), result.Price)

		offers, err := env.requestService.GetOffers(ctx, r.ID)
		require.NoError(t, err)
		for _, o := range offers {
			switch o.ID {
			case chosen.ID:
				require.Equal(t, offer.StatusSelected, o.Status)
			case other.ID:
				require.Equal(t, offer.StatusRejected, o.Status)
			}
		}

		orders := env.store.Orders()
		require.Len(t, orders, 1)
		require.Equal(t, buyer, orders[0].BuyerID)
		require.Equal(t, chosen.SellerID, orders[0].SellerID)
		require.Equal(t, int64(3000), orders[0].Price)
		require.Equal(t, settlement.StatusPending, orders[0].Status)
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedOpenRequest(uuid.New())
		o := submit(t, env, r.ID, 3000)

		_, err := env.requestService.SelectOffer(ctx, inbound.SelectOfferRequest{
			RequestID: r.ID,
			BuyerID:   uuid.New(),
			OfferID:   o.ID,
		})
		require.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("offer_from_another_request", func(t *testing.T) {
		env := newTestEnv()
		buyer := uuid.New()
		r := env.seedOpenRequest(buyer)
		other := env.seedOpenRequest(uuid.New())
		stray := submit(t, env, other.ID, 3000)

		_, err := env.requestService.SelectOffer(ctx, inbound.SelectOfferRequest{
			RequestID: r.ID,
			BuyerID:   buyer,
			OfferID:   stray.ID,
		})
		require.ErrorIs(t, err, shared.ErrOfferNotFound)
	})

	t.Run("second_select_rejected", func(t *testing.T) {
		env := newTestEnv()
		buyer := uuid.New()
		r := env.seedOpenRequest(buyer)
		first := submit(t, env, r.ID, 3000)
		second := submit(t, env, r.ID, 2500)

		_, err := env.requestService.SelectOffer(ctx, inbound.SelectOfferRequest{
			RequestID: r.ID, BuyerID: buyer, OfferID: first.ID,
		})
		require.NoError(t, err)

		_, err = env.requestService.SelectOffer(ctx, inbound.SelectOfferRequest{
			RequestID: r.ID, BuyerID: buyer, OfferID: second.ID,
		})
		require.ErrorIs(t, err, shared.ErrRequestNotOpen)

		require.Len(t, env.store.Orders(), 1)
	})

	t.Run("concurrent_selects_award_exactly_once", func(t *testing.T) {
		env := newTestEnv()
		buyer := uuid.New()
		r := env.seedOpenRequest(buyer)

		offers := make([]*offer.SellerOffer, 5)
		for i := range offers {
			offers[i] = submit(t, env, r.ID, int64(2000+i*100))
		}

		errs := make([]error, len(offers))
		var wg sync.WaitGroup
		for i, o := range offers {
			wg.Add(1)
			go func(i int, offerID uuid.UUID) {
				defer wg.Done()
				_, errs[i] = env.requestService.SelectOffer(ctx, inbound.SelectOfferRequest{
					RequestID: r.ID,
					BuyerID:   buyer,
					OfferID:   offerID,
				})
			}(i, o.ID)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
			} else {
				require.ErrorIs(t, err, shared.ErrRequestNotOpen)
			}
		}
		require.Equal(t, 1, successes)
		require.Len(t, env.store.Orders(), 1)

		selected := 0
		stored, err := env.requestService.GetOffers(ctx, r.ID)
		require.NoError(t, err)
		for _, o := range stored {
			if o.Status == offer.StatusSelected {
				selected++
			}
		}
		require.Equal(t, 1, selected)
	})
}

func TestRequestService_CancelRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("owner_cancels", func(t *testing.T) {
		env := newTestEnv()
		buyer := uuid.New()
		r := env.seedOpenRequest(buyer)

		require.NoError(t, env.requestService.CancelRequest(ctx, r.ID, buyer))

		open, err := env.requestService.ListOpenRequests(ctx, inbound.ListRequest{})
		require.NoError(t, err)
		require.Empty(t, open)
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedOpenRequest(uuid.New())

		err := env.requestService.CancelRequest(ctx, r.ID, uuid.New())
		require.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("cancel_after_award_rejected", func(t *testing.T) {
		env := newTestEnv()
		buyer := uuid.New()
		r := env.seedOpenRequest(buyer)

		o, err := env.requestService.SubmitOffer(ctx, inbound.SubmitOfferRequest{
			RequestID: r.ID, SellerID: uuid.New(), Price: 3000,
		})
		require.NoError(t, err)
		_, err = env.requestService.SelectOffer(ctx, inbound.SelectOfferRequest{
			RequestID: r.ID, BuyerID: buyer, OfferID: o.ID,
		})
		require.NoError(t, err)

		err = env.requestService.CancelRequest(ctx, r.ID, buyer)
		require.ErrorIs(t, err, shared.ErrRequestNotOpen)
	})

	t.Run("unknown_request", func(t *testing.T) {
		env := newTestEnv()

		err := env.requestService.CancelRequest(ctx, uuid.New(), uuid.New())
		require.ErrorIs(t, err, shared.ErrRequestNotFound)
	})
}

func TestRequestService_ListOpenRequests_SweepsExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	open := env.seedOpenRequest(uuid.New())
	stale := env.seedOpenRequest(uuid.New())
	stale.Deadline = time.Now().UTC().Add(-time.Minute)
	env.store.SeedRequest(stale)

	requests, err := env.requestService.ListOpenRequests(ctx, inbound.ListRequest{})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, open.ID, requests[0].ID)
}
