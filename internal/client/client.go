package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uavconcept/v4lctl/internal/api"
	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/engine"
	"github.com/uavconcept/v4lctl/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout. Reconciles run one
	// v4lctl process per changed attribute, so it is generous.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 10 * time.Second
)

// Client is an HTTP client for a v4lctld daemon
type Client struct {
	// BaseURL is the daemon base URL (e.g., "http://192.168.1.20:8740")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	// schema is fetched once; it never changes while a daemon runs
	schemaMu sync.Mutex
	schema   *attr.Schema
}

// New creates a client for the daemon at baseURL. A bare host:port gets an
// http:// prefix.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping performs a health check without retries
func (c *Client) Ping(ctx context.Context) error {
	var health api.HealthResponse
	return c.doAttempt(ctx, http.MethodGet, api.PathHealth, nil, &health)
}

// Health returns the daemon status
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var health api.HealthResponse
	if err := c.do(ctx, http.MethodGet, api.PathHealth, nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Get reads an attribute from the device. An empty value with a nil error
// means the daemon could not read it.
func (c *Client) Get(ctx context.Context, name string) (string, error) {
	var resp api.GetResponse
	if err := c.do(ctx, http.MethodPost, api.PathGet, api.GetRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	return resp.Result, nil
}

// Set runs a write command on the daemon. The bool reports whether the
// command ran; the error reports transport failures.
func (c *Client) Set(ctx context.Context, command, value string) (bool, error) {
	var resp api.SetResponse
	if err := c.do(ctx, http.MethodPost, api.PathSet, api.SetRequest{Name: command, Value: value}, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// Schema returns the daemon's attribute schema.
func (c *Client) Schema(ctx context.Context) (*attr.Schema, error) {
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()

	if c.schema != nil {
		return c.schema, nil
	}

	var file attr.SchemaFile
	if err := c.do(ctx, http.MethodGet, api.PathSchema, nil, &file); err != nil {
		return nil, err
	}

	schema, err := attr.NewSchema(file)
	if err != nil {
		return nil, NewParseError("invalid schema from daemon", err)
	}
	c.schema = schema
	return schema, nil
}

// Config returns the current revision as a document
func (c *Client) Config(ctx context.Context) (attr.Document, error) {
	var resp api.ConfigResponse
	if err := c.do(ctx, http.MethodGet, api.PathConfig, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Config, nil
}

// Current returns the current revision
func (c *Client) Current(ctx context.Context) (attr.Revision, error) {
	doc, err := c.Config(ctx)
	if err != nil {
		return attr.Revision{}, err
	}
	return c.revision(ctx, doc)
}

// Apply merges doc onto the daemon's current revision and reconciles.
func (c *Client) Apply(ctx context.Context, doc attr.Document) (attr.Revision, []engine.Change, error) {
	var resp api.ConfigResponse
	if err := c.do(ctx, http.MethodPut, api.PathConfig, doc, &resp); err != nil {
		return attr.Revision{}, nil, err
	}
	rev, err := c.revision(ctx, resp.Config)
	return rev, resp.Changes, err
}

// Defaults reconciles the device to the schema defaults.
func (c *Client) Defaults(ctx context.Context) (attr.Revision, []engine.Change, error) {
	var resp api.ConfigResponse
	if err := c.do(ctx, http.MethodPost, api.PathDefaults, nil, &resp); err != nil {
		return attr.Revision{}, nil, err
	}
	rev, err := c.revision(ctx, resp.Config)
	return rev, resp.Changes, err
}

func (c *Client) revision(ctx context.Context, doc attr.Document) (attr.Revision, error) {
	schema, err := c.Schema(ctx)
	if err != nil {
		return attr.Revision{}, err
	}
	rev, err := schema.Defaults().Merge(doc)
	if err != nil {
		return attr.Revision{}, NewParseError("invalid config from daemon", err)
	}
	return rev, nil
}

// Watch streams revision pushes to fn until ctx is done or the connection
// drops.
func (c *Client) Watch(ctx context.Context, fn func(api.Frame)) error {
	wsURL := "ws" + strings.TrimPrefix(c.BaseURL, "http") + api.PathWatch

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, http.Header{
		"User-Agent": []string{version.UserAgent()},
	})
	if err != nil {
		return ClassifyNetworkError("websocket dial failed", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		var frame api.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return ClassifyNetworkError("websocket read failed", err)
		}
		if frame.Op == api.OpRevision {
			fn(frame)
		}
	}
}

// do runs a request with retries and exponential backoff
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(currentDelay):
			case <-ctx.Done():
				return ClassifyNetworkError("request cancelled", ctx.Err())
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := c.doAttempt(ctx, method, path, body, out)
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry non-retryable errors
		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// doAttempt performs a single request
func (c *Client) doAttempt(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ClassifyNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ClassifyNetworkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp api.ErrorResponse
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return NewHTTPError(resp.StatusCode, message, resp.Header.Get(api.HeaderRequestID))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewParseError("failed to parse JSON response", err)
	}
	return nil
}
