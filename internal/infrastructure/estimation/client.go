// Package estimation calls the delivery estimator service on behalf of the
// configurator.
package estimation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	configapp "github.com/carconfig/backend/internal/application/configuration"
	estimationapp "github.com/carconfig/backend/internal/application/estimation"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	estimatePath = "/api/v1/estimate"

	// maxResponseSize limits the estimator response body
	maxResponseSize = 64 * 1024

	// tokenRefreshMargin drops a cached token this long before it expires
	tokenRefreshMargin = 5 * time.Second
)

// Client errors
var (
	ErrUnauthorized   = errors.New("estimator rejected the token")
	ErrRequestFailed  = errors.New("estimator request failed")
	ErrInvalidPayload = errors.New("estimator returned an invalid payload")
)

// TokenIssuer mints estimation tokens
type TokenIssuer interface {
	GenerateEstimationToken(subject auth.TokenSubject) (*auth.SignedToken, error)
}

// Client implements configapp.DeliveryEstimator over HTTP.
//
// Tokens are cached per user until shortly before they expire. A 401 drops
// the cached token and the call is retried once with a fresh one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	issuer     TokenIssuer
	logger     *zap.Logger

	mu     sync.Mutex
	tokens map[int64]*auth.SignedToken
}

// NewClient creates a client for the estimator at baseURL
func NewClient(baseURL string, timeout time.Duration, issuer TokenIssuer, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		issuer:     issuer,
		logger:     log.Named("estimation"),
		tokens:     make(map[int64]*auth.SignedToken),
	}
}

// EstimateDelivery returns the estimated delivery time in days
func (c *Client) EstimateDelivery(ctx context.Context, customer configapp.Customer, accessories []string) (int, error) {
	token, err := c.token(customer, false)
	if err != nil {
		return 0, err
	}

	days, err := c.estimate(ctx, token, accessories)
	if !errors.Is(err, ErrUnauthorized) {
		return days, err
	}

	logger.Enrich(ctx, c.logger).Debug("estimation token rejected, retrying with a fresh one")
	token, err = c.token(customer, true)
	if err != nil {
		return 0, err
	}
	return c.estimate(ctx, token, accessories)
}

// token returns a cached token for the customer or mints a new one
func (c *Client) token(customer configapp.Customer, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.tokens[customer.UserID]; ok && !refresh && time.Until(cached.ExpiresAt) > tokenRefreshMargin {
		return cached.Token, nil
	}

	signed, err := c.issuer.GenerateEstimationToken(auth.TokenSubject{
		UserID:       customer.UserID,
		IsGoodClient: customer.IsGoodClient,
	})
	if err != nil {
		delete(c.tokens, customer.UserID)
		return "", fmt.Errorf("failed to issue estimation token: %w", err)
	}
	c.tokens[customer.UserID] = signed
	return signed.Token, nil
}

type envelope struct {
	Success bool                            `json:"success"`
	Data    *estimationapp.EstimateResponse `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) estimate(ctx context.Context, token string, accessories []string) (int, error) {
	if accessories == nil {
		accessories = []string{}
	}
	body, err := json.Marshal(estimationapp.EstimateRequest{Accessories: accessories})
	if err != nil {
		return 0, fmt.Errorf("estimation: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+estimatePath, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("estimation: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		req.Header.Set(logger.RequestIDHeader, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("estimation: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return 0, ErrUnauthorized
	case resp.StatusCode >= 400:
		return 0, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	var out envelope
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !out.Success || out.Data == nil {
		return 0, ErrInvalidPayload
	}
	if out.Data.Days < 0 {
		return 0, fmt.Errorf("%w: negative estimate %d", ErrInvalidPayload, out.Data.Days)
	}
	return out.Data.Days, nil
}

var _ configapp.DeliveryEstimator = (*Client)(nil)
