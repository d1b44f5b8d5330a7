package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// HTTPBroker submits intents to an external order API.
// GuardedBroker로 감싸서 사용: 연속 실패는 서킷이 잡는다.
type HTTPBroker struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secret     string
	limiter    *redis.RateLimiter
	logger     *logger.Logger
}

// NewHTTPBroker creates a live broker client
func NewHTTPBroker(baseURL, apiKey, secret string, limiter *redis.RateLimiter, log *logger.Logger) *HTTPBroker {
	return &HTTPBroker{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		secret:     secret,
		limiter:    limiter,
		logger:     log,
	}
}

type submitRequest struct {
	ClientOrderID string  `json:"client_order_id"`
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Qty           int     `json:"qty"`
	OrderType     string  `json:"order_type"`
	LimitPrice    float64 `json:"limit_price"`
}

type submitResponse struct {
	OrderID   string  `json:"order_id"`
	Status    string  `json:"status"`
	FillQty   int     `json:"fill_qty"`
	FillPrice float64 `json:"fill_price"`
	Message   string  `json:"message,omitempty"`
}

// Submit places one order and waits for the synchronous fill result
func (b *HTTPBroker) Submit(ctx context.Context, intent *contracts.OrderIntent) (*Fill, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx, redis.BrokerRateLimit); err != nil {
			return nil, fmt.Errorf("broker rate limit: %w", err)
		}
	}

	payload := submitRequest{
		ClientOrderID: intent.ID,
		Symbol:        intent.Symbol,
		Side:          string(intent.Side),
		Qty:           intent.Qty,
		OrderType:     string(intent.OrderType),
		LimitPrice:    intent.LimitPrice,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	url := b.baseURL + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", b.apiKey)
	req.Header.Set("X-API-Secret", b.secret)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("order API status %d: %s", resp.StatusCode, string(respBody))
	}

	var result submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	if result.Status != "FILLED" {
		return nil, fmt.Errorf("order %s not filled: %s %s", intent.ID, result.Status, result.Message)
	}

	b.logger.WithFields(map[string]interface{}{
		"order_id": result.OrderID,
		"symbol":   intent.Symbol,
		"qty":      result.FillQty,
		"price":    result.FillPrice,
	}).Info("Order filled")

	return &Fill{
		OrderID: result.OrderID,
		Symbol:  intent.Symbol,
		Qty:     result.FillQty,
		Price:   result.FillPrice,
		At:      time.Now(),
	}, nil
}
