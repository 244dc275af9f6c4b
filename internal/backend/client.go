// Package backend is the client for the remote content API. Every request
// passes through Client.Do, which attaches the session token and handles
// credential rejection.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/session"
)

// DefaultLoginRoute is where a rejected session is sent.
const DefaultLoginRoute = "/pages/index/index"

const maxBody = 16 << 20

// Client talks to the remote backend on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	state      *session.State
	auth       *session.Authority
	loginRoute string
	log        *slog.Logger
	stats      *LatencyStats
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithLoginRoute(route string) Option {
	return func(c *Client) { c.loginRoute = route }
}

func WithStats(s *LatencyStats) Option {
	return func(c *Client) { c.stats = s }
}

// New returns a client for baseURL. auth may be nil only in tests that never
// see a 401.
func New(baseURL string, state *session.State, auth *session.Authority, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		state:      state,
		auth:       auth,
		loginRoute: DefaultLoginRoute,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.stats == nil {
		c.stats = NewLatencyStats(time.Hour)
	}
	return c
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Stats returns the latency tracker fed by every call.
func (c *Client) Stats() *LatencyStats { return c.stats }

// Request is one outbound call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON when non-nil.
	Body any
}

// Response is a raw backend reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do sends req with the session token attached.
//
// A transport failure returns *TransportError and never touches the session.
// A 401 purges the identity, sends the navigator found in ctx to the login
// route and returns ErrUnauthorized along with the response. Every other
// status is returned as is.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := req.Method + " " + req.Path
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if c.state != nil {
		tok, err := c.state.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		if tok != "" {
			httpReq.Header.Set("Authorization", tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.stats.Record(req.Path, elapsed, true)
		c.log.Debug("backend call failed", "method", req.Method, "path", req.Path, "duration_ms", elapsed, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		c.stats.Record(req.Path, elapsed, true)
		return nil, &TransportError{Op: op, Err: err}
	}
	c.stats.Record(req.Path, elapsed, resp.StatusCode >= 500)
	c.log.Debug("backend call", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "duration_ms", elapsed)

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}
	if resp.StatusCode == http.StatusUnauthorized {
		c.rejectSession(ctx, op)
		return out, ErrUnauthorized
	}
	return out, nil
}

func (c *Client) rejectSession(ctx context.Context, op string) {
	if c.auth != nil {
		if err := c.auth.Purge(ctx); err != nil {
			c.log.Error("purge session", "error", err)
		}
	}
	method := ""
	if nav, ok := host.NavigatorFromContext(ctx); ok {
		m, err := host.ToLogin(ctx, nav, c.loginRoute)
		if err != nil {
			c.log.Error("navigate to login", "error", err)
		}
		method = m
	}
	c.log.Warn("session rejected by backend", "op", op, "login_nav", method)
}

// envelope is the common reply shape. Some routes put their payload at the
// top level instead of under data; those decode the body twice.
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination"`
}

// Pagination is the paging block returned by list routes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// call sends req and decodes the envelope's data into out (when non-nil).
func (c *Client) call(ctx context.Context, req Request, out any) (*Pagination, error) {
	env, _, err := c.fetchEnvelope(ctx, req)
	if err != nil {
		return nil, err
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
		}
	}
	return env.Pagination, nil
}

// callTop sends req and decodes the whole body into out.
func (c *Client) callTop(ctx context.Context, req Request, out any) error {
	_, resp, err := c.fetchEnvelope(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) fetchEnvelope(ctx context.Context, req Request) (*envelope, *Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, resp, err
	}
	var env envelope
	decodeErr := json.Unmarshal(resp.Body, &env)

	if resp.Status < 200 || resp.Status >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = env.message()
		}
		return nil, resp, &APIError{Status: resp.Status, Message: msg}
	}
	if decodeErr != nil {
		return nil, resp, fmt.Errorf("decode %s %s: %w", req.Method, req.Path, decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return nil, resp, &APIError{Status: resp.Status, Message: env.message()}
	}
	return &env, resp, nil
}

func (e *envelope) message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// callRaw sends req and returns the body of a 2xx reply without decoding.
func (c *Client) callRaw(ctx context.Context, req Request) ([]byte, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		var env envelope
		msg := ""
		if json.Unmarshal(resp.Body, &env) == nil {
			msg = env.message()
		} else if len(resp.Body) > 0 && len(resp.Body) <= 1024 {
			msg = strings.TrimSpace(string(resp.Body))
		}
		return nil, &APIError{Status: resp.Status, Message: msg}
	}
	return resp.Body, nil
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
