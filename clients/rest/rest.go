// Package rest provides an HTTP API connector for scenario steps.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/errors"
)

// DefaultTimeout bounds each HTTP request unless the config overrides it
const DefaultTimeout = 30 * time.Second

// Client is a thin wrapper around net/http driven by a registry config
// entry. Required config: "baseURL". Optional: "timeout" (duration string or
// milliseconds), "headers" (map of default headers sent with every request).
type Client struct {
	*client.Base

	baseURL    string
	headers    map[string]string
	httpClient *http.Client
}

// Response captures the outcome of one HTTP exchange for later steps
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// BodyString returns the response body as text
func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON unmarshals the response body into v
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// New creates an uninitialized REST client from a configuration entry
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// Init validates the configuration and prepares the HTTP client
func (c *Client) Init(_ context.Context) error {
	baseURL, err := c.RequireString("Init", "baseURL")
	if err != nil {
		return err
	}
	c.baseURL = strings.TrimRight(baseURL, "/")

	c.headers = make(map[string]string)
	if raw, ok := c.Config()["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				c.headers[k] = s
			}
		}
	}

	c.httpClient = &http.Client{Timeout: c.ConfigDuration("timeout", DefaultTimeout)}
	c.MarkInitialized()
	return nil
}

// BaseURL returns the configured base URL, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Reset re-arms the client, dropping any idle connections
func (c *Client) Reset(_ context.Context) error {
	if err := c.EnsureInitialized("Reset"); err != nil {
		return err
	}
	c.httpClient.CloseIdleConnections()
	return nil
}

// Destroy releases the HTTP client. Idempotent.
func (c *Client) Destroy(_ context.Context) error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	c.MarkDestroyed()
	return nil
}

// Get performs a GET request against the configured base URL
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, headers)
}

// Post performs a POST request with the given body
func (c *Client) Post(ctx context.Context, path string, body []byte, headers map[string]string) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, headers)
}

// Put performs a PUT request with the given body
func (c *Client) Put(ctx context.Context, path string, body []byte, headers map[string]string) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, body, headers)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, headers)
}

// Request performs an arbitrary HTTP request. Per-request headers override
// the configured defaults; a JSON content type is assumed for non-empty
// bodies unless a header says otherwise.
func (c *Client) Request(
	ctx context.Context, method, path string, body []byte, headers map[string]string,
) (*Response, error) {
	if err := c.EnsureInitialized(method); err != nil {
		return nil, err
	}

	url := c.resolveURL(path)

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), method, "build request for "+url)
	}

	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), method, "request to "+url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), method, "read response from "+url)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// resolveURL joins a path with the base URL; absolute URLs pass through
func (c *Client) resolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
