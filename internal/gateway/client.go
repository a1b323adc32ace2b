package gateway

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

	"github.com/golang/glog"
)

// Ensure Client implements Gateway at compile time.
var _ Gateway = (*Client)(nil)

// Observer is told about every finished request. err is nil on success.
type Observer func(req Request, err error, elapsed time.Duration)

// Client talks to the autopilot HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	observe   Observer
	maxBody   int64
}

const (
	defaultAPIBind        = "127.0.0.1:8000"
	defaultUserAgent      = "pilotdeck/0.1"
	defaultRequestTimeout = 5 * time.Second
	maxBodyBytes          = 8 << 20
)

// ErrResponseTooLarge is the cause of a failure for a body over the limit.
var ErrResponseTooLarge = errors.New("response too large")

// Option tweaks a Client.
type Option func(*Client)

// WithTimeout bounds every request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithObserver installs a hook called after each request.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// WithMaxBodyBytes caps the size of a response body. Non-positive values keep
// the default of 8 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout must be set
// or requests may never resolve.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		userAgent: defaultUserAgent,
		maxBody:   maxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request runs req on its own goroutine and hands the Result to done.
func (c *Client) Request(ctx context.Context, req Request, done Completion) {
	go func() {
		start := time.Now()
		body, err := c.do(ctx, req)
		elapsed := time.Since(start)
		if err != nil {
			glog.V(1).Infof("[gw] %s %s failed after %s: %v", req.Method, req.Path, elapsed, err)
		} else {
			glog.V(2).Infof("[gw] %s %s ok in %s (%d bytes)", req.Method, req.Path, elapsed, len(body))
		}
		if c.observe != nil {
			c.observe(req, err, elapsed)
		}
		done(Result{Body: body, Err: err})
	}()
}

func (c *Client) do(ctx context.Context, r Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	rel := &url.URL{Path: r.Path}
	if len(r.Query) > 0 {
		rel.RawQuery = r.Query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var payload io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return nil, decodeFailure("encode request", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), payload)
	if err != nil {
		return nil, networkFailure("create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkFailure("execute request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remoteFailure(fmt.Sprintf("api %s returned status %d", rel.String(), resp.StatusCode), resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, networkFailure("read response", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, decodeFailure(fmt.Sprintf("api %s body exceeds %d bytes", rel.String(), c.maxBody), ErrResponseTooLarge)
	}
	return body, nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
