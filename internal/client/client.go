// Package client talks to the cache service over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/socialchef/lru/internal/errors"
	"github.com/socialchef/lru/internal/httpclient"
	"github.com/socialchef/lru/internal/utils"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

type Client struct {
	baseURL string
	http    *http.Client
	retry   utils.RetryConfig
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetryConfig overrides utils.DefaultRetryConfig.
func WithRetryConfig(cfg utils.RetryConfig) Option {
	return func(cl *Client) { cl.retry = cfg }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewInstrumentedClient(httpclient.DefaultTimeout),
		retry:   utils.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type setRequest struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	Expiration int64  `json:"expiration"`
}

type getResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Stats mirrors the /stats response.
type Stats struct {
	Len      int `json:"len"`
	Capacity int `json:"capacity"`
}

// Set stores value under key for ttlSeconds.
func (c *Client) Set(ctx context.Context, key, value string, ttlSeconds int64) error {
	body, err := json.Marshal(setRequest{Key: key, Value: value, Expiration: ttlSeconds})
	if err != nil {
		return fmt.Errorf("encode set request: %w", err)
	}
	_, err = c.do(ctx, "set", http.MethodPost, "/set", body, nil)
	return err
}

// Get returns the value for key. found is false when the key is unknown or expired.
func (c *Client) Get(ctx context.Context, key string) (value string, found bool, err error) {
	var resp getResponse
	status, err := c.do(ctx, "get", http.MethodGet, "/get/"+url.PathEscape(key), nil, &resp)
	if status == http.StatusNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return resp.Value, true, nil
}

// Delete removes key. Deleting an absent key succeeds.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, "/delete/"+url.PathEscape(key), nil, nil)
	return err
}

// Stats returns the number of live entries and the capacity.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	_, err := c.do(ctx, "stats", http.MethodGet, "/stats", nil, &s)
	return s, err
}

// do sends one request with retries. It returns the final HTTP status (0 when no
// response arrived). Non-2xx responses come back as *apperrors.AppError.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) (int, error) {
	ctx = httpclient.WithOperation(ctx, op)

	var status int
	_, err := utils.WithRetry(ctx, func(ctx context.Context) (struct{}, error) {
		status = 0
		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
		if err != nil {
			return struct{}{}, fmt.Errorf("build %s request: %w", op, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return struct{}{}, decodeError(resp)
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return struct{}{}, fmt.Errorf("decode %s response: %w", op, err)
			}
		}
		return struct{}{}, nil
	}, c.retry)
	return status, err
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var appErr apperrors.AppError
	if err := json.Unmarshal(data, &appErr); err == nil && appErr.Message != "" {
		// The body describes the error; the status line is authoritative for its class.
		classified := apperrors.FromStatus(resp.StatusCode, appErr.Message)
		appErr.Type = classified.Type
		appErr.StatusCode = resp.StatusCode
		return &appErr
	}
	return apperrors.FromStatus(resp.StatusCode, strings.TrimSpace(string(data)))
}
