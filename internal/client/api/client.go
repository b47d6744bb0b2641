// Package api is the HTTP client for the Workboard REST API. It encodes
// request bodies, attaches the bearer credential, and decodes the JSON
// envelopes into typed values or structured errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/Workboard/internal/models"
	"go.uber.org/zap"
)

// Credentials supplies the bearer token for outgoing requests.
// An empty token means the request is sent unauthenticated.
type Credentials interface {
	Token() string
}

// Client issues requests against one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	log     *zap.Logger
}

// New creates a Client. baseURL must include the API prefix, e.g.
// "https://localhost:8080/api". creds and log may be nil.
func New(baseURL string, httpClient *http.Client, creds Credentials, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		creds:   creds,
		log:     log,
	}
}

// Call performs one request and decodes the success envelope into T.
// Non-2xx responses are returned as *APIError, transport failures as *NetworkError.
func Call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*models.Envelope[T], error) {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeFailure(resp)
	}

	var env models.Envelope[T]
	if resp.StatusCode == http.StatusNoContent {
		env.Success = true
		return &env, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("invalid response from %s %s: %w", method, path, err)
	}
	return &env, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	c.log.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// maxErrorText bounds the non-envelope body text kept on an APIError.
const maxErrorText = 200

// decodeFailure turns a non-2xx response into an *APIError. Only a JSON failure
// envelope fills Envelope; any other body is kept as Body for the error text.
func decodeFailure(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var env models.ErrorEnvelope
	if err := json.Unmarshal(data, &env); err == nil && (env.Message != "" || env.Errors != nil) {
		apiErr.Envelope = env
		return apiErr
	}
	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorText {
		text = text[:maxErrorText] + "..."
	}
	apiErr.Body = text
	return apiErr
}
