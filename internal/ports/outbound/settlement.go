package outbound

import (
	"context"

	"tradepost-market-service/internal/domain/settlement"
)

// SettlementGateway is the external order-creation capability. It is called
// only after the local state transition that produced the order is durable;
// failures are retried by the dispatcher and never affect core state.
type SettlementGateway interface {
	// CreateOrder records a concluded sale in the external order system and
	// returns the acknowledgement ID assigned by it.
	CreateOrder(ctx context.Context, order *settlement.Order) (string, error)
}
