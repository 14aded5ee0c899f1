// Package client is a HTTP client for the Notify API.
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
)

// API key headers expected by the Notify API
const (
	KeyIDHeader     = "X-API-KEY-ID"
	KeySecretHeader = "X-API-KEY-SECRET"
)

// Client is a HTTP client
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	KeyID      string
	KeySecret  string
}

// StatusError is returned for a non 2xx response
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v %v returned %v: %v", e.Method, e.URL, e.StatusCode, e.Body)
}

// New returns a client for the API rooted at base
func New(base, keyID, keySecret string, hc *http.Client) (*Client, error) {

	if base == "" {
		return nil, fmt.Errorf("missing base url")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("could not parse base url: %v", err)
	}
	// paths are resolved relative to the base, keep its last segment
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return &Client{
		BaseURL:    u,
		HTTPClient: hc,
		KeyID:      keyID,
		KeySecret:  keySecret,
	}, nil
}

// NewRequest creates a HTTP request
func (c *Client) NewRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {

	p, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	u := c.BaseURL.ResolveReference(p)

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.KeyID == "" || c.KeySecret == "" {
		return nil, fmt.Errorf("missing credentials")
	}
	req.Header.Set(KeyIDHeader, c.KeyID)
	req.Header.Set(KeySecretHeader, c.KeySecret)

	return req, nil
}

// Do makes a HTTP request and decodes a JSON response into out, if out is not nil
func (c *Client) Do(req *http.Request, out interface{}) error {

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %v", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("could not decode response: %v", err)
	}
	return nil
}

// Call builds, sends and decodes a request, marshalling in as the JSON body if it is not nil
func (c *Client) Call(ctx context.Context, method, path string, in, out interface{}) error {

	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not marshal request: %v", err)
		}
		body = b
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("could not make request: %v", err)
	}
	return c.Do(req, out)
}
