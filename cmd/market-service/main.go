package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tradepost-market-service/internal/adapters/db"
	"tradepost-market-service/internal/adapters/httpapi"
	"tradepost-market-service/internal/adapters/redis"
	"tradepost-market-service/internal/adapters/scheduler"
	"tradepost-market-service/internal/adapters/settlement"
	"tradepost-market-service/internal/app"
	"tradepost-market-service/internal/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Tradepost Market Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Msg("Database connection established")

	// Create repositories
	repoFactory := db.NewRepositoryFactory(dbConn)
	auctionRepo := repoFactory.GetAuctionRepository()
	bidRepo := repoFactory.GetBidRepository()
	requestRepo := repoFactory.GetRequestRepository()
	offerRepo := repoFactory.GetOfferRepository()
	settlementRepo := repoFactory.GetSettlementRepository()

	log.Info().Msg("Database repositories initialized")

	// Create Redis client
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	// Create business services
	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		AuctionRepo: auctionRepo,
		Logger:      log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		BidRepo:     bidRepo,
		AuctionRepo: auctionRepo,
		Finalizer:   auctionService,
		Logger:      log.Logger,
	})
	requestService := app.NewRequestService(app.RequestServiceParams{
		RequestRepo: requestRepo,
		OfferRepo:   offerRepo,
		Logger:      log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Create expiry scheduler
	expiryScheduler := scheduler.NewExpiryScheduler(scheduler.ExpirySchedulerParams{
		RedisClient: redisClient,
		Finalizer:   auctionService,
		Expirer:     requestService,
		Interval:    cfg.Scheduler.SweepInterval,
		Logger:      log.Logger,
	})

	// Start expiry scheduler
	expiryScheduler.Start()
	log.Info().Msg("Expiry scheduler started")

	// Update services with scheduler
	auctionService.SetScheduler(expiryScheduler)
	requestService.SetScheduler(expiryScheduler)

	// Create settlement gateway and dispatcher
	settlementGateway := settlement.NewHTTPGateway(settlement.HTTPGatewayParams{
		Config: cfg,
		Logger: log.Logger,
	})
	settlementDispatcher := settlement.NewDispatcher(settlement.DispatcherParams{
		Repo:        settlementRepo,
		Gateway:     settlementGateway,
		MaxWorkers:  cfg.Settlement.MaxWorkers,
		MaxCapacity: cfg.Settlement.MaxCapacity,
		Interval:    cfg.Scheduler.SweepInterval,
		BatchSize:   cfg.Settlement.BatchSize,
		Logger:      log.Logger,
	})

	// Start settlement dispatcher
	settlementDispatcher.Start()
	log.Info().Msg("Settlement dispatcher started")

	httpServer := httpapi.NewServer(httpapi.ServerParams{
		Config:         cfg,
		AuctionService: auctionService,
		BidService:     bidService,
		RequestService: requestService,
		Logger:         log.Logger,
	})

	log.Info().Msg("HTTP server initialized")

	// Start HTTP server
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start HTTP server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop expiry scheduler
	expiryScheduler.Stop()
	log.Info().Msg("Expiry scheduler stopped")

	// Stop settlement dispatcher, draining in-flight deliveries
	settlementDispatcher.Stop()
	log.Info().Msg("Settlement dispatcher stopped")

	// Stop HTTP server
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		// JSON format (default)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global logger
	zerolog.DefaultContextLogger = &log.Logger
}
