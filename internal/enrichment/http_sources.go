package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSocialSource fetches sentiment from a social aggregation API.
type HTTPSocialSource struct {
	client *resty.Client
}

// NewHTTPSocialSource creates a source against the given base URL.
func NewHTTPSocialSource(baseURL string, timeout time.Duration) *HTTPSocialSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPSocialSource{client: client}
}

type socialResponse struct {
	TwitterSentiment float64 `json:"twitter_sentiment"`
	RedditSentiment  float64 `json:"reddit_sentiment"`
	MentionCount     int     `json:"mention_count"`
}

// Fetch returns the social signal, or nil when the API has no data
// for the token.
func (s *HTTPSocialSource) Fetch(ctx context.Context, address string) (*SocialSignal, error) {
	var body socialResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("address", address).
		SetResult(&body).
		Get("/v1/sentiment/{address}")
	if err != nil {
		return nil, fmt.Errorf("fetch social sentiment: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("social api status %d", resp.StatusCode())
	}

	sig := &SocialSignal{
		TwitterSentiment: body.TwitterSentiment,
		RedditSentiment:  body.RedditSentiment,
		MentionCount:     body.MentionCount,
	}
	sig.Blend()
	return sig, nil
}

// Verify interface compliance at compile time.
var _ SocialSource = (*HTTPSocialSource)(nil)

// HTTPWhaleSource fetches tracked-wallet activity from a wallet
// analytics API.
type HTTPWhaleSource struct {
	client *resty.Client
}

// NewHTTPWhaleSource creates a source against the given base URL.
func NewHTTPWhaleSource(baseURL string, timeout time.Duration) *HTTPWhaleSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPWhaleSource{client: client}
}

type whaleResponse struct {
	SuccessRate   float64 `json:"success_rate"`
	ActiveWallets int     `json:"active_wallets"`
}

// Fetch returns the whale signal, or nil when no tracked wallet has
// touched the token.
func (s *HTTPWhaleSource) Fetch(ctx context.Context, address string) (*WhaleSignal, error) {
	var body whaleResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("address", address).
		SetResult(&body).
		Get("/v1/whales/{address}")
	if err != nil {
		return nil, fmt.Errorf("fetch whale activity: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("whale api status %d", resp.StatusCode())
	}

	return &WhaleSignal{
		SuccessRate:   body.SuccessRate,
		ActiveWallets: body.ActiveWallets,
	}, nil
}

// Verify interface compliance at compile time.
var _ WhaleSource = (*HTTPWhaleSource)(nil)
