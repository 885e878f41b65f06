package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradepost-market-service/internal/config"
	"tradepost-market-service/internal/domain/settlement"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestGateway(baseURL string) *HTTPGateway {
	return NewHTTPGateway(HTTPGatewayParams{
		Config: &config.Config{
			Settlement: config.SettlementConfig{
				BaseURL: baseURL,
				Timeout: 2 * time.Second,
			},
		},
		Logger: zerolog.Nop(),
	})
}

func testOrder() *settlement.Order {
	return settlement.NewOrder(uuid.New(), uuid.New(), "trophy", uuid.New(), 1500, time.Now().UTC())
}

func TestHTTPGateway_CreateOrder(t *testing.T) {
	order := testOrder()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, order.BuyerID.String(), payload["buyer_id"])
		require.Equal(t, order.SellerID.String(), payload["seller_id"])
		require.Equal(t, order.ItemID.String(), payload["item_id"])
		require.Equal(t, float64(order.Price), payload["price"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"order_id": "ext-42"})
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	ackID, err := gateway.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	require.Equal(t, "ext-42", ackID)
}

func TestHTTPGateway_CreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server_error_status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed_ack",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			gateway := newTestGateway(server.URL)

			_, err := gateway.CreateOrder(context.Background(), testOrder())
			require.Error(t, err)
		})
	}
}

func TestHTTPGateway_CreateOrder_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	gateway := newTestGateway(server.URL)

	_, err := gateway.CreateOrder(context.Background(), testOrder())
	require.Error(t, err)
}
