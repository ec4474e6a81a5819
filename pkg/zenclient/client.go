// Package zenclient is a Go client for the ZenJournal JSON API.
package zenclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

// Option mutates the Client during New().
type Option func(*Client)

// WithToken sends token as a bearer credential, for callers that persist it
// outside the cookie jar.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithHTTPClient swaps the underlying transport client. The cookie jar is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		jar := c.http.GetClient().Jar
		c.http = resty.NewWithClient(hc).
			SetBaseURL(c.http.BaseURL).
			SetHeader("Content-Type", "application/json").
			SetCookieJar(jar)
	}
}

// New builds a client for the API at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(defaultTimeout).
			SetCookieJar(jar),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the last session token handed out by Register or Login, or
// the one given with WithToken.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorResponse{})
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// do sends the request and decodes a 2xx body into out.
func (c *Client) do(req *resty.Request, method, path string, out interface{}) error {
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorResponse); ok && body != nil {
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
	}
	return apiErr
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*User, error) {
	var out authResponse
	req := c.request(ctx).SetBody(map[string]string{"email": email, "password": password, "name": name})
	if err := c.do(req, http.MethodPost, "/api/auth/register", &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out authResponse
	req := c.request(ctx).SetBody(map[string]string{"email": email, "password": password})
	if err := c.do(req, http.MethodPost, "/api/auth/login", &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return out.User, nil
}

// Logout revokes the session server-side and forgets the local token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(c.request(ctx), http.MethodPost, "/api/auth/logout", nil)
	c.setToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out authResponse
	if err := c.do(c.request(ctx), http.MethodGet, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) ListEntries(ctx context.Context, f ListFilter) (*EntryList, error) {
	var out EntryList
	req := c.request(ctx).SetQueryParamsFromValues(f.values())
	if err := c.do(req, http.MethodGet, "/api/entries", &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []Entry{}
	}
	return &out, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*Entry, error) {
	var out entryResponse
	req := c.request(ctx).SetPathParam("id", id)
	if err := c.do(req, http.MethodGet, "/api/entries/{id}", &out); err != nil {
		return nil, err
	}
	return out.Entry, nil
}

func (c *Client) CreateEntry(ctx context.Context, in EntryInput) (*Entry, error) {
	var out entryResponse
	if err := c.do(c.request(ctx).SetBody(in), http.MethodPost, "/api/entries", &out); err != nil {
		return nil, err
	}
	return out.Entry, nil
}

func (c *Client) UpdateEntry(ctx context.Context, id string, in EntryInput) (*Entry, error) {
	var out entryResponse
	req := c.request(ctx).SetPathParam("id", id).SetBody(in)
	if err := c.do(req, http.MethodPut, "/api/entries/{id}", &out); err != nil {
		return nil, err
	}
	return out.Entry, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(c.request(ctx).SetPathParam("id", id), http.MethodDelete, "/api/entries/{id}", nil)
}
