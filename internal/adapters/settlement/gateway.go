package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tradepost-market-service/internal/config"
	"tradepost-market-service/internal/domain/settlement"

	"github.com/rs/zerolog"
)

// HTTPGateway calls the external order system over HTTP. Every call carries
// a bounded timeout; the caller decides what a failure means (the dispatcher
// retries, the core never waits on this).
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

type HTTPGatewayParams struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewHTTPGateway creates a gateway to the external order system
func NewHTTPGateway(params HTTPGatewayParams) *HTTPGateway {
	timeout := params.Config.Settlement.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPGateway{
		baseURL: params.Config.Settlement.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  params.Logger.With().Str("component", "settlement_gateway").Logger(),
	}
}

type createOrderRequest struct {
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
	ItemType string `json:"item_type"`
	ItemID   string `json:"item_id"`
	Price    int64  `json:"price"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
}

// CreateOrder records a concluded sale in the external order system
func (g *HTTPGateway) CreateOrder(ctx context.Context, order *settlement.Order) (string, error) {
	payload := createOrderRequest{
		BuyerID:  order.BuyerID.String(),
		SellerID: order.SellerID.String(),
		ItemType: order.ItemType,
		ItemID:   order.ItemID.String(),
		Price:    order.Price,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("order system unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("order system returned status %d", resp.StatusCode)
	}

	var ack createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("failed to decode order acknowledgement: %w", err)
	}

	g.logger.Debug().
		Str("settlement_id", order.ID.String()).
		Str("ack_id", ack.OrderID).
		Msg("Settlement order acknowledged")

	return ack.OrderID, nil
}
