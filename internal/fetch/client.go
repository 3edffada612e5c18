// Package fetch provides the HTTP client used by the network-backed
// action handlers. Responses are read as JSON and queried with gjson
// paths.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/proxy"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// ClientOption configures the Client.
type ClientOption func(*Client) error

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.http.Timeout = d
		return nil
	}
}

// WithProxy routes every request through a SOCKS5 proxy. An empty
// address leaves the client on a direct connection.
func WithProxy(addr string) ClientOption {
	return func(c *Client) error {
		if addr == "" {
			return nil
		}
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return fmt.Errorf("fetch: socks5 %s: %w", addr, err)
		}
		c.http.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
		c.proxy = addr
		return nil
	}
}

// Client issues GET requests and returns parsed JSON documents.
type Client struct {
	http  *http.Client
	proxy string
	log   *logger.Logger
}

// NewClient creates a client with a 10s timeout.
func NewClient(log *logger.Logger, opts ...ClientOption) (*Client, error) {
	c := &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	if c.proxy != "" {
		log.Info("fetch: using socks5 proxy %s", c.proxy)
	}
	return c, nil
}

// GetJSON fetches url and parses the body as JSON. A non-200 status or a
// body that is not valid JSON yields an error wrapping domain.ErrBadResponse.
//
// Errors never carry the query string of rawURL.
func (c *Client) GetJSON(ctx context.Context, rawURL string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetch: create request: %w", redactErr(err, nil))
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("fetch: GET %s", redact(req))

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetch: request failed: %w", redactErr(err, req))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetch: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("fetch: %s: %w", resp.Status, domain.ErrBadResponse)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("fetch: body is not JSON: %w", domain.ErrBadResponse)
	}

	c.log.Debug("fetch: %d bytes from %s", len(body), req.URL.Host)
	return gjson.ParseBytes(body), nil
}

// redactErr replaces the URL inside a *url.Error with its redacted form.
// Without a request only the operation and cause are kept.
func redactErr(err error, req *http.Request) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	safe := *ue
	if req != nil {
		safe.URL = redact(req)
	} else {
		safe.URL = "…"
	}
	return &safe
}

// redact drops the query string so credentials never reach the log.
func redact(req *http.Request) string {
	u := *req.URL
	if u.RawQuery != "" {
		u.RawQuery = "…"
	}
	return u.String()
}
