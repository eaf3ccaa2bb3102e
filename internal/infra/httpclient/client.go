// Package httpclient talks to the scan history API for the scanner and dashboard
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	"github.com/bryanwahyu/simtrack/internal/logger"
)

const (
	baseURLDefault = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
	defaultUA      = "simtrack-client"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string // dikirim sebagai X-API-Key kalau tidak kosong
	Timeout   time.Duration
	UserAgent string
}

// Client is a small JSON client for /scans
type Client struct {
	http *http.Client
	opts Options
	log  *logger.Logger
}

// StatusError is a non-2xx answer from the API
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d", e.Status)
	}
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  logger.Named("httpclient"),
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit posts an accepted code; failures come back as *SubmissionError
func (c *Client) Submit(ctx context.Context, code string) error {
	var out apiResponse
	if err := c.do(ctx, http.MethodPost, "/scans", map[string]string{"code": code}, &out); err != nil {
		return &domain.SubmissionError{Code: code, Err: err}
	}
	if !out.Success {
		return &domain.SubmissionError{Code: code, Err: fmt.Errorf("rejected: %s", out.Message)}
	}
	return nil
}

// List fetches the history, newest first
func (c *Client) List(ctx context.Context) ([]domain.Entry, error) {
	var out []domain.Entry
	if err := c.do(ctx, http.MethodGet, "/scans", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the given codes. An empty selection deletes nothing.
func (c *Client) Delete(ctx context.Context, codes []string) (string, error) {
	if codes == nil {
		// null di server artinya hapus semua
		codes = []string{}
	}
	var out apiResponse
	if err := c.do(ctx, http.MethodDelete, "/scans", map[string][]string{"codes": codes}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// DeleteAll clears the whole history
func (c *Client) DeleteAll(ctx context.Context) (string, error) {
	var out apiResponse
	if err := c.do(ctx, http.MethodDelete, "/scans", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.APIKey != "" {
		req.Header.Set("X-API-Key", c.opts.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure apiResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &failure) != nil || failure.Message == "" {
			failure.Message = strings.TrimSpace(string(raw))
		}
		return &StatusError{Status: resp.StatusCode, Message: failure.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
