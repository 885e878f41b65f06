package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tradepost-market-service/internal/config"
	"tradepost-market-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server hosts the HTTP API in front of the core services
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

type ServerParams struct {
	Config         *config.Config
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	RequestService inbound.RequestService
	Logger         zerolog.Logger
}

// NewServer builds the gin router and wraps it in an http.Server
func NewServer(params ServerParams) *Server {
	logger := params.Logger.With().Str("component", "http_server").Logger()

	handler := NewHandler(HandlerParams{
		AuctionService: params.AuctionService,
		BidService:     params.BidService,
		RequestService: params.RequestService,
		Logger:         params.Logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(handler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", params.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

// NewRouter builds the gin engine with all API routes registered
func NewRouter(handler *Handler, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "market-service"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auctions", handler.CreateAuction)
		v1.GET("/auctions", handler.ListActiveAuctions)
		v1.GET("/auctions/:id", handler.GetAuction)
		v1.GET("/auctions/:id/bids", handler.ListBids)
		v1.POST("/auctions/:id/bids", handler.PlaceBid)
		v1.POST("/auctions/:id/buy-now", handler.BuyNow)
		v1.POST("/auctions/:id/close", handler.CloseAuction)

		v1.POST("/requests", handler.CreateRequest)
		v1.GET("/requests", handler.ListOpenRequests)
		v1.GET("/requests/:id/offers", handler.ListOffers)
		v1.POST("/requests/:id/offers", handler.SubmitOffer)
		v1.POST("/requests/:id/select", handler.SelectOffer)
		v1.POST("/requests/:id/cancel", handler.CancelRequest)
	}

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
