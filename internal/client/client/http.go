package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	registerPath = "/api/auth/register/"
	tokenPath    = "/api/auth/token/"
	refreshPath  = "/api/auth/refresh/"
	healthPath   = "/api/health/"

	// maxErrorBody bounds the part of an error response kept in
	// RejectedError. Successful bodies are streamed without a limit.
	maxErrorBody = 64 << 10
	// maxDrainBody bounds what is discarded to reuse a connection.
	maxDrainBody = 256 << 10
)

// HTTPClient talks JSON to the server and owns the session tokens.
// It is safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger

	retries   uint64
	baseDelay time.Duration
	maxDelay  time.Duration

	mu       sync.RWMutex
	tokens   TokenPair
	onTokens func(TokenPair)

	// refreshMu makes concurrent 401s share one refresh call.
	refreshMu sync.Mutex
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithRetry bounds the in-request retries of transient failures.
// retries == 0 disables them.
func WithRetry(retries uint64, base, max time.Duration) Option {
	return func(c *HTTPClient) {
		c.retries, c.baseDelay, c.maxDelay = retries, base, max
	}
}

// WithTokenListener registers fn to be called after a token refresh.
func WithTokenListener(fn func(TokenPair)) Option {
	return func(c *HTTPClient) { c.onTokens = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.Discard(),
		retries:    2,
		baseDelay:  200 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) Tokens() TokenPair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

func (c *HTTPClient) SetTokens(tokens TokenPair) {
	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
}

func (c *HTTPClient) Register(ctx context.Context, username string, password []byte) error {
	body := credentials{Username: username, Password: string(password)}
	return c.do(ctx, request{method: http.MethodPost, path: registerPath, body: body})
}

func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (TokenPair, error) {
	var pair TokenPair

	body := credentials{Username: username, Password: string(password)}
	if err := c.do(ctx, request{method: http.MethodPost, path: tokenPath, body: body, out: &pair}); err != nil {
		return TokenPair{}, err
	}
	if pair.Access == "" {
		return TokenPair{}, fmt.Errorf("login: %w", common.ErrInvalidToken)
	}

	c.SetTokens(pair)
	return pair, nil
}

// Refresh rotates the current token pair. A rejected refresh token drops
// the session and returns ErrUnauthorized.
func (c *HTTPClient) Refresh(ctx context.Context) (TokenPair, error) {
	if _, err := c.refresh(ctx, c.Tokens().Access); err != nil {
		return TokenPair{}, err
	}
	return c.Tokens(), nil
}

// Ping probes the health endpoint once, without retries.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.attempt(ctx, request{method: http.MethodGet, path: healthPath}, nil)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type request struct {
	method string
	path   string
	body   any
	out    any
	authed bool
}

func (c *HTTPClient) do(ctx context.Context, req request) error {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	if c.retries == 0 || c.baseDelay <= 0 {
		return c.attempt(ctx, req, payload)
	}

	b := retry.NewExponential(c.baseDelay)
	if c.maxDelay > 0 {
		b = retry.WithCappedDuration(c.maxDelay, b)
	}
	b = retry.WithMaxRetries(c.retries, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.attempt(ctx, req, payload)
		if errors.Is(err, ErrUnavailable) {
			c.logger.Debug(ctx, "transient failure", "method", req.method, "path", req.path, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// attempt sends req once. An authenticated request that gets 401 is
// repeated once with a refreshed access token.
func (c *HTTPClient) attempt(ctx context.Context, req request, payload []byte) error {
	var token string
	if req.authed {
		token = c.Tokens().Access
	}

	resp, err := c.send(ctx, req.method, req.path, payload, token)
	if err != nil {
		return err
	}

	if req.authed && resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		fresh, err := c.refresh(ctx, token)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, req.method, req.path, payload, fresh)
		if err != nil {
			return err
		}
	}
	defer drain(resp)

	return decode(resp, req.out)
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	r.Header.Set("Accept", "application/json")
	if payload != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set(common.AuthorizationHeader, common.BearerScheme+" "+token)
	}

	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// refresh trades the refresh token for a new access token. stale is the
// access token that was just rejected; if another goroutine already
// replaced it, the newer token is returned without a second call.
func (c *HTTPClient) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cur := c.Tokens()
	if cur.Access != "" && cur.Access != stale {
		return cur.Access, nil
	}
	if cur.Refresh == "" {
		return "", ErrUnauthorized
	}

	payload, err := json.Marshal(map[string]string{"refresh": cur.Refresh})
	if err != nil {
		return "", err
	}

	var pair TokenPair
	err = c.attempt(ctx, request{method: http.MethodPost, path: refreshPath, out: &pair}, payload)
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrRejected):
		c.logger.Warn(ctx, "refresh token rejected, session dropped")
		c.SetTokens(TokenPair{})
		c.notify(TokenPair{})
		return "", ErrUnauthorized
	case err != nil:
		return "", err
	case pair.Access == "":
		return "", ErrUnauthorized
	}

	if pair.Refresh == "" {
		pair.Refresh = cur.Refresh
	}
	c.SetTokens(pair)
	c.notify(pair)

	return pair.Access, nil
}

func (c *HTTPClient) notify(pair TokenPair) {
	if c.onTokens != nil {
		c.onTokens(pair)
	}
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
		}
		return mapStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	err := json.NewDecoder(resp.Body).Decode(out)
	var netErr net.Error
	switch {
	case err == nil, errors.Is(err, io.EOF):
		// an empty body decodes to nothing
		return nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &netErr):
		// the connection broke mid-body
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("decode response: %w", err)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBody))
	_ = resp.Body.Close()
}
