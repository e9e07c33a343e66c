package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/adarshpatil06123/ecommerce-backend/pkg/circuitbreaker"
)

type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int32   `json:"stock"`
}

type stockUpdate struct {
	Quantity int32 `json:"quantity"`
}

type ProductClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	cache   ProductCache
}

// NewProductClient builds a client for the product service. cache may be
// nil; product lookups then always hit the upstream.
func NewProductClient(baseURL string, timeout time.Duration, cache ProductCache) *ProductClient {
	return &ProductClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
		breaker: circuitbreaker.New[*resty.Response]("product-service", breakerMaxFailures, breakerCooldown),
		cache:   cache,
	}
}

// do runs one product service request through the breaker. Transport
// errors and 5xx responses count as breaker failures.
func (c *ProductClient) do(req func() (*resty.Response, error)) (*resty.Response, error) {
	return c.breaker.Execute(func() (*resty.Response, error) {
		resp, err := req()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, fmt.Errorf("product service returned %s", resp.Status())
		}
		return resp, nil
	})
}

// GetProduct fetches a product snapshot (price, name, stock), consulting
// the read cache first. Snapshots are short-lived; stock from the cache is
// advisory only, the reserve call is what actually checks it.
func (c *ProductClient) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	if c.cache != nil {
		if p, err := c.cache.Get(ctx, productID); err == nil {
			return p, nil
		}
	}

	var out apiResponse[*Product]
	resp, err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetResult(&out).
			Get(fmt.Sprintf("/products/%d", productID))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: product service: %v", ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.IsSuccess():
		if out.Data == nil {
			return nil, fmt.Errorf("%w: product service returned empty payload", ErrUpstreamUnavailable)
		}
		if c.cache != nil {
			if err := c.cache.Set(ctx, out.Data); err != nil {
				log.Warn().Err(err).Int64("product_id", productID).Msg("failed to cache product")
			}
		}
		return out.Data, nil
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrProductNotFound
	default:
		return nil, fmt.Errorf("%w: product service returned %s", ErrUpstreamUnavailable, resp.Status())
	}
}

// CheckStock asks whether quantity units are currently available.
func (c *ProductClient) CheckStock(ctx context.Context, productID int64, quantity int32) (bool, error) {
	var out apiResponse[bool]
	resp, err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParam("quantity", fmt.Sprint(quantity)).
			SetResult(&out).
			Get(fmt.Sprintf("/products/%d/check-stock", productID))
	})
	if err != nil {
		return false, fmt.Errorf("%w: product service: %v", ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.IsSuccess():
		return out.Data, nil
	case resp.StatusCode() == http.StatusNotFound:
		return false, ErrProductNotFound
	default:
		return false, fmt.Errorf("%w: product service returned %s", ErrUpstreamUnavailable, resp.Status())
	}
}

// ReduceStock reserves quantity units by decrementing the product's stock.
// It returns the updated product snapshot. The cached snapshot is dropped
// so subsequent reads see the new count.
func (c *ProductClient) ReduceStock(ctx context.Context, productID int64, quantity int32) (*Product, error) {
	var out apiResponse[*Product]
	resp, err := c.do(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(stockUpdate{Quantity: quantity}).
			SetResult(&out).
			Post(fmt.Sprintf("/products/%d/reduce-stock", productID))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: product service: %v", ErrUpstreamUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("product service refused stock reduction: %s", resp.Status())
	}

	if c.cache != nil {
		if err := c.cache.Delete(ctx, productID); err != nil {
			log.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate product cache")
		}
	}
	return out.Data, nil
}
