package main

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

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
)

const idempotencyKeyHeader = "Idempotency-Key"

// APIError is a non-2xx response from the ledger API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.Code, e.Status)
}

// apiClient talks to the ledger HTTP API, retrying 5xx responses and
// transport errors with exponential backoff.
type apiClient struct {
	baseURL        string
	http           *http.Client
	maxRetries     int
	initialBackoff time.Duration
	idempotencyKey string
}

func newAPIClient(baseURL string, timeout time.Duration, maxRetries int) *apiClient {
	return &apiClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		initialBackoff: 100 * time.Millisecond,
	}
}

// do sends the request and returns the raw body of a 2xx response. Mutating
// requests carry one idempotency key across every retry.
func (c *apiClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	key := c.idempotencyKey
	if key == "" && method != http.MethodGet {
		key = ulid.Make().String()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0

	var (
		result  []byte
		retries int
	)
	err := backoff.Retry(func() error {
		respBody, err := c.send(ctx, method, path, payload, key)
		if err == nil {
			result = respBody
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}

		retries++
		if retries > c.maxRetries {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))

	return result, err
}

func (c *apiClient) send(ctx context.Context, method, path string, payload []byte, key string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Body: respBody}
	var decoded struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(respBody, &decoded) == nil && decoded.Error != "" {
		apiErr.Code = decoded.Error
		apiErr.Message = decoded.Message
	}
	return nil, apiErr
}

// isRetryable reports whether err is a transport failure or a 5xx response.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}
