// Package clients holds the HTTP clients for the order service's two
// synchronous upstreams: the auth service (user lookups) and the product
// service (catalog and stock). Every call carries a bounded timeout and
// goes through a circuit breaker; an unreachable upstream surfaces as
// ErrUpstreamUnavailable instead of blocking the caller.
package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"

	"github.com/adarshpatil06123/ecommerce-backend/pkg/circuitbreaker"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

const (
	breakerMaxFailures = 5
	breakerCooldown    = 30 * time.Second
)

// apiResponse is the envelope both upstream services wrap their payloads in.
type apiResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type AuthClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
}

func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
		breaker: circuitbreaker.New[*resty.Response]("auth-service", breakerMaxFailures, breakerCooldown),
	}
}

// VerifyUser confirms the user id exists in the auth service.
func (c *AuthClient) VerifyUser(ctx context.Context, userID int64) error {
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			Get(fmt.Sprintf("/auth/users/%d", userID))
		if err != nil {
			return nil, err
		}
		// 5xx trips the breaker; 404 is an answer, not a failure.
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, fmt.Errorf("auth service returned %s", resp.Status())
		}
		return resp, nil
	})
	if err != nil {
		return fmt.Errorf("%w: auth service: %v", ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() == http.StatusNotFound:
		return ErrUserNotFound
	default:
		return fmt.Errorf("%w: auth service returned %s", ErrUpstreamUnavailable, resp.Status())
	}
}
