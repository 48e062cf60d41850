package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SafetyChecker answers whether a token is safe to trade. Checkers
// return an error only for transport-level failures; the gate treats
// any error as unsafe.
type SafetyChecker interface {
	IsSafe(ctx context.Context, address string) (bool, error)
}

// HTTPSafetyChecker queries an external token-safety service.
type HTTPSafetyChecker struct {
	client *resty.Client
}

// NewHTTPSafetyChecker creates a checker against baseURL.
func NewHTTPSafetyChecker(baseURL string, timeout time.Duration) *HTTPSafetyChecker {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPSafetyChecker{client: client}
}

type safetyResponse struct {
	Safe bool `json:"safe"`
}

// IsSafe checks GET /v1/safety/{address}. An unknown token (404) is
// treated as unsafe, not as an error.
func (c *HTTPSafetyChecker) IsSafe(ctx context.Context, address string) (bool, error) {
	var out safetyResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/safety/" + address)
	if err != nil {
		return false, fmt.Errorf("safety check %s: %w", address, err)
	}
	if resp.StatusCode() == 404 {
		return false, nil
	}
	if resp.IsError() {
		return false, fmt.Errorf("safety check %s: status %d", address, resp.StatusCode())
	}
	return out.Safe, nil
}

// StaticSafetyChecker deems everything safe except a fixed deny set.
// Used in tests and in the paper-trading setup.
type StaticSafetyChecker struct {
	deny map[string]struct{}
}

// NewStaticSafetyChecker creates a checker denying the given addresses.
func NewStaticSafetyChecker(denied ...string) *StaticSafetyChecker {
	deny := make(map[string]struct{}, len(denied))
	for _, a := range denied {
		deny[a] = struct{}{}
	}
	return &StaticSafetyChecker{deny: deny}
}

func (c *StaticSafetyChecker) IsSafe(_ context.Context, address string) (bool, error) {
	_, denied := c.deny[address]
	return !denied, nil
}
