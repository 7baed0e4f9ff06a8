package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/circuitbreaker"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
)

const cartPath = "/api/v1/cart"

// CartClient reads carts from cart-service over HTTP behind a circuit breaker.
type CartClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*cart.Cart]
}

func NewCartClient(baseURL string, timeout time.Duration, log *zap.Logger) *CartClient {
	return &CartClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[*cart.Cart]("cart-service", log),
	}
}

func (c *CartClient) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return c.breaker.Execute(func() (*cart.Cart, error) {
		return c.fetch(ctx, userID)
	})
}

func (c *CartClient) fetch(ctx context.Context, userID string) (*cart.Cart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+cartPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build cart request: %w", err)
	}
	req.Header.Set(httpx.UserIDHeader, userID)
	req.Header.Set("Accept", "application/json")
	// checkout prices from the stored cart, never a cached copy
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("get cart: cart-service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out cart.Cart
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &out, nil
}
