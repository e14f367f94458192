// Package supabase implements the row store, object store and identity
// provider ports against a hosted Supabase project over its REST APIs.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/folio/internal/domain/port/driven"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: %d %s", e.Status, e.Message)
}

// Config holds the connection settings of a Supabase project.
type Config struct {
	URL        string
	AnonKey    string
	ServiceKey string

	// HTTPClient overrides the default client. Tests use it to talk to an
	// httptest server.
	HTTPClient *http.Client
}

// Client talks to the REST, storage and auth APIs of one project. Anonymous
// reads go through an in-memory HTTP cache that honours ETag and
// Cache-Control; requests made on behalf of a signed-in user bypass it.
type Client struct {
	base       *url.URL
	anonKey    string
	serviceKey string
	http       *http.Client
	cached     *http.Client
}

// NewClient creates a Client for cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, errors.New("supabase url and anon key are required")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing supabase url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = httpClient.Transport

	return &Client{
		base:       base,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		http:       httpClient,
		cached:     &http.Client{Transport: cacheTransport, Timeout: httpClient.Timeout},
	}, nil
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	header http.Header

	// body is JSON-encoded unless raw is set.
	body any
	raw  []byte

	// bearer overrides the token taken from the context.
	bearer string
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends r and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	switch {
	case r.raw != nil:
		body = bytes.NewReader(r.raw)
	case r.body != nil:
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	token := r.bearer
	if token == "" {
		token = driven.AccessToken(ctx)
	}
	anonymous := token == ""
	if anonymous {
		token = c.anonKey
	}
	apiKey := c.anonKey
	if c.serviceKey != "" && token == c.serviceKey {
		apiKey = c.serviceKey
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	client := c.http
	if anonymous && r.method == http.MethodGet {
		client = c.cached
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the message from the error shapes the REST,
// storage and auth APIs use.
func errorMessage(data []byte, fallback string) string {
	var shape struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(data, &shape) == nil {
		for _, m := range []string{shape.Message, shape.Msg, shape.ErrorDescription, shape.Error} {
			if m != "" {
				return m
			}
		}
	}
	return fallback
}

func isStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.Status == c {
			return true
		}
	}
	return false
}
