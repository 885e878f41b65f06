package httpapi

import (
	"errors"
	"net/http"

	"tradepost-market-service/internal/domain/shared"
	"tradepost-market-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler translates HTTP requests into service calls
type Handler struct {
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	requestService inbound.RequestService
	logger         zerolog.Logger
}

type HandlerParams struct {
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	RequestService inbound.RequestService
	Logger         zerolog.Logger
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		requestService: params.RequestService,
		logger:         params.Logger.With().Str("component", "http_handler").Logger(),
	}
}

// CreateAuction handles POST /api/v1/auctions
func (h *Handler) CreateAuction(c *gin.Context) {
	var req inbound.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	a, err := h.auctionService.CreateAuction(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a)
}

// ListActiveAuctions handles GET /api/v1/auctions
func (h *Handler) ListActiveAuctions(c *gin.Context) {
	auctions, err := h.auctionService.ListActiveAuctions(c.Request.Context(), paging(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// GetAuction handles GET /api/v1/auctions/:id
func (h *Handler) GetAuction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	a, err := h.auctionService.GetAuction(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// ListBids handles GET /api/v1/auctions/:id/bids
func (h *Handler) ListBids(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	bids, err := h.bidService.GetBids(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// PlaceBid handles POST /api/v1/auctions/:id/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req inbound.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.AuctionID = id

	b, err := h.bidService.PlaceBid(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// BuyNow handles POST /api/v1/auctions/:id/buy-now
func (h *Handler) BuyNow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		BuyerID uuid.UUID `json:"buyer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.auctionService.BuyNow(c.Request.Context(), id, req.BuyerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CloseAuction handles POST /api/v1/auctions/:id/close
func (h *Handler) CloseAuction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		SellerID uuid.UUID `json:"seller_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.auctionService.Close(c.Request.Context(), id, req.SellerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateRequest handles POST /api/v1/requests
func (h *Handler) CreateRequest(c *gin.Context) {
	var req inbound.CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	r, err := h.requestService.CreateRequest(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

// ListOpenRequests handles GET /api/v1/requests
func (h *Handler) ListOpenRequests(c *gin.Context) {
	requests, err := h.requestService.ListOpenRequests(c.Request.Context(), paging(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListOffers handles GET /api/v1/requests/:id/offers
func (h *Handler) ListOffers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	offers, err := h.requestService.GetOffers(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// SubmitOffer handles POST /api/v1/requests/:id/offers
func (h *Handler) SubmitOffer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req inbound.SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.RequestID = id

	o, err := h.requestService.SubmitOffer(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, o)
}

// SelectOffer handles POST /api/v1/requests/:id/select
func (h *Handler) SelectOffer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req inbound.SelectOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.RequestID = id

	result, err := h.requestService.SelectOffer(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelRequest handles POST /api/v1/requests/:id/cancel
func (h *Handler) CancelRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		BuyerID uuid.UUID `json:"buyer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.requestService.CancelRequest(c.Request.Context(), id, req.BuyerID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// writeError maps domain errors onto HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	var tooLow *shared.BidTooLowError
	if errors.As(err, &tooLow) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      tooLow.Error(),
			"min_amount": tooLow.MinAmount,
		})
		return
	}

	switch {
	case errors.Is(err, shared.ErrAuctionNotFound),
		errors.Is(err, shared.ErrRequestNotFound),
		errors.Is(err, shared.ErrOfferNotFound),
		errors.Is(err, shared.ErrNoBidsFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, shared.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, shared.ErrAuctionNotOpen),
		errors.Is(err, shared.ErrAuctionClosed),
		errors.Is(err, shared.ErrAuctionAlreadyClosed),
		errors.Is(err, shared.ErrBuyNowNotAvailable),
		errors.Is(err, shared.ErrRequestClosed),
		errors.Is(err, shared.ErrRequestNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, shared.ErrMissingFields),
		errors.Is(err, shared.ErrInvalidEndTime),
		errors.Is(err, shared.ErrInvalidStartingPrice),
		errors.Is(err, shared.ErrInvalidIncrement),
		errors.Is(err, shared.ErrInvalidBidAmount),
		errors.Is(err, shared.ErrInvalidDeadline),
		errors.Is(err, shared.ErrInvalidMaxPrice),
		errors.Is(err, shared.ErrInvalidOfferPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func paging(c *gin.Context) inbound.ListRequest {
	var req inbound.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return inbound.ListRequest{}
	}
	return req
}
