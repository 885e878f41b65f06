package settlement

import (
	"context"
	"sync"
	"time"

	"tradepost-market-service/internal/domain/settlement"
	"tradepost-market-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/rs/zerolog"
)

// Dispatcher delivers pending settlement orders to the external order
// system. The outbox rows are written by the same transactions that close
// auctions and award requests, so delivery failures here never affect core
// state: the order stays pending and is retried on the next poll.
type Dispatcher struct {
	repo      outbound.SettlementRepository
	gateway   outbound.SettlementGateway
	pool      *pond.WorkerPool
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	inFlight  map[string]bool
}

type DispatcherParams struct {
	Repo        outbound.SettlementRepository
	Gateway     outbound.SettlementGateway
	MaxWorkers  int
	MaxCapacity int
	Interval    time.Duration
	BatchSize   int
	Logger      zerolog.Logger
}

// NewDispatcher creates a settlement dispatcher
func NewDispatcher(params DispatcherParams) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := params.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	maxCapacity := params.MaxCapacity
	if maxCapacity <= 0 {
		maxCapacity = 100
	}
	interval := params.Interval
	if interval <= 0 {
		interval = time.Second
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	pool := pond.New(
		maxWorkers,
		maxCapacity,
		pond.Context(ctx),
		pond.Strategy(pond.Balanced()),
	)

	return &Dispatcher{
		repo:      params.Repo,
		gateway:   params.Gateway,
		pool:      pool,
		interval:  interval,
		batchSize: batchSize,
		logger:    params.Logger.With().Str("component", "settlement_dispatcher").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		inFlight:  make(map[string]bool),
	}
}

// Start begins the dispatch loop
func (d *Dispatcher) Start() {
	d.logger.Info().Msg("Starting settlement dispatcher")

	d.wg.Add(1)
	go d.dispatchLoop()
}

// Stop gracefully stops the dispatcher, draining submitted deliveries
func (d *Dispatcher) Stop() {
	d.logger.Info().Msg("Stopping settlement dispatcher")
	d.cancel()
	d.wg.Wait()
	d.pool.StopAndWait()
}

func (d *Dispatcher) dispatchLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.dispatchPending()
		case <-d.ctx.Done():
			d.logger.Info().Msg("Dispatch loop stopped")
			return
		}
	}
}

// dispatchPending polls the outbox and submits deliveries to the pool
func (d *Dispatcher) dispatchPending() {
	pending, err := d.repo.ListPending(d.ctx, d.batchSize)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to list pending settlement orders")
		return
	}

	for _, order := range pending {
		order := order
		if !d.claim(order.ID.String()) {
			continue
		}
		d.pool.Submit(func() {
			defer d.release(order.ID.String())
			d.deliver(order)
		})
	}
}

func (d *Dispatcher) claim(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[id] {
		return false
	}
	d.inFlight[id] = true
	return true
}

func (d *Dispatcher) release(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, id)
}

// deliver pushes one order to the external system. Failures are logged and
// swallowed; the order remains pending for the next poll.
func (d *Dispatcher) deliver(order *settlement.Order) {
	ackID, err := d.gateway.CreateOrder(d.ctx, order)
	if err != nil {
		d.logger.Warn().Err(err).
			Str("settlement_id", order.ID.String()).
			Int("attempts", order.Attempts+1).
			Msg("Settlement delivery failed, will retry")

		if markErr := d.repo.MarkAttempt(d.ctx, order.ID); markErr != nil {
			d.logger.Error().Err(markErr).Str("settlement_id", order.ID.String()).Msg("Failed to record settlement attempt")
		}
		return
	}

	if err := d.repo.MarkDelivered(d.ctx, order.ID, time.Now().UTC()); err != nil {
		d.logger.Error().Err(err).Str("settlement_id", order.ID.String()).Msg("Failed to mark settlement order delivered")
		return
	}

	d.logger.Info().
		Str("settlement_id", order.ID.String()).
		Str("ack_id", ackID).
		Msg("Settlement order delivered")
}
