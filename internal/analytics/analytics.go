// Package analytics talks to the repository analytics endpoint.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// Errors returned by the client.
var (
	ErrAnalyticsUnavailable = errors.New("analytics endpoint unavailable")
	ErrInvalidRequest       = errors.New("invalid analytics request")
)

// CredentialHeader carries the caller's GitHub token to the endpoint.
const CredentialHeader = "x-gh-pat"

// Path is appended to the client's base URL.
const Path = "/v1/analytics"

// maxResponseBytes caps the size of an analytics response.
const maxResponseBytes = 16 << 20

// Client posts questions to the analytics endpoint.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	validate *validator.Validate
}

var _ contract.AnalyticsClient = &Client{}

// NewClient creates a client for baseURL. A zero timeout disables the deadline.
// A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		timeout:  timeout,
		validate: validator.New(),
	}
}

// Validate checks that all request fields and the credential are present.
func (c *Client) Validate(req schema.AnalyticsRequest, credential string) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := c.validate.Var(credential, "required"); err != nil {
		return fmt.Errorf("%w: credential is required", ErrInvalidRequest)
	}
	return nil
}

// Ask sends one question and returns the endpoint's reply.
func (c *Client) Ask(ctx context.Context, req schema.AnalyticsRequest, credential string) (schema.AnalyticsResponse, error) {
	var out schema.AnalyticsResponse
	if err := c.Validate(req, credential); err != nil {
		return out, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("%w: encode request: %v", ErrInvalidRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("%w: create request: %v", ErrAnalyticsUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(CredentialHeader, credential)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrAnalyticsUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return out, fmt.Errorf("%w: read response: %v", ErrAnalyticsUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, fmt.Errorf("%w: received status code %d", ErrAnalyticsUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: decode response: %v", ErrAnalyticsUnavailable, err)
	}
	return out, nil
}

// AskWithProgress runs Ask and calls onTick once per elapsed second while the
// request is pending. onTick may be nil. The result records the total wall-clock duration.
func AskWithProgress(ctx context.Context, client contract.AnalyticsClient, req schema.AnalyticsRequest, credential string, onTick func(elapsed int)) (schema.AskResult, error) {
	return askWithTicker(ctx, client, req, credential, time.Second, onTick)
}

func askWithTicker(ctx context.Context, client contract.AnalyticsClient, req schema.AnalyticsRequest, credential string, interval time.Duration, onTick func(elapsed int)) (schema.AskResult, error) {
	type outcome struct {
		resp schema.AnalyticsResponse
		err  error
	}

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		resp, err := client.Ask(ctx, req, credential)
		done <- outcome{resp: resp, err: err}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	elapsed := 0
	for {
		select {
		case <-ticker.C:
			elapsed++
			if onTick != nil {
				onTick(elapsed)
			}
		case o := <-done:
			result := schema.AskResult{Request: req, Response: o.resp, Elapsed: time.Since(start)}
			return result, o.err
		}
	}
}
