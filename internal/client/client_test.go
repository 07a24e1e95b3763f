package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uavconcept/v4lctl/internal/api"
	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/engine"
	"github.com/uavconcept/v4lctl/internal/server"
	"github.com/uavconcept/v4lctl/internal/snapshot"
)

type fakeTool struct {
	mu     sync.Mutex
	values map[string]string
}

func (f *fakeTool) Read(_ context.Context, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

func (f *fakeTool) Write(context.Context, string, string) bool { return true }

func newDaemon(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()
	tool := &fakeTool{values: map[string]string{"bright": "32768", "norm": "NTSC"}}
	eng := engine.New(tool, attr.DefaultSchema(), snapshot.NewStore(nil), nil)
	eng.Start(context.Background())

	s := server.New(&server.Config{Listen: "127.0.0.1:0", Device: "/dev/video0"}, eng)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func newTestClient(url string) *Client {
	c := New(url)
	c.SetRetry(2, time.Millisecond)
	return c
}

func TestNew(t *testing.T) {
	c := New("192.168.1.20:8740/")
	assert.Equal(t, "http://192.168.1.20:8740", c.BaseURL)
	assert.Equal(t, DefaultMaxRetries, c.MaxRetries)
	assert.True(t, c.UseExponentialBackoff)
}

func TestClientAgainstDaemon(t *testing.T) {
	_, ts := newDaemon(t)
	c := newTestClient(ts.URL)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/dev/video0", health.Device)

	value, err := c.Get(ctx, "bright")
	require.NoError(t, err)
	assert.Equal(t, "32768", value)

	ok, err := c.Set(ctx, "setnorm", "PAL-I")
	require.NoError(t, err)
	assert.True(t, ok)

	schema, err := c.Schema(ctx)
	require.NoError(t, err)
	assert.Equal(t, attr.Osprey440Model, schema.Model())

	current, err := c.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NTSC", current.Document()["norm"])

	rev, changes, err := c.Apply(ctx, attr.Document{"bright": "75"})
	require.NoError(t, err)
	assert.Equal(t, "75", rev.Document()["bright"])
	require.Len(t, changes, 1)
	assert.Equal(t, "75%", changes[0].Value)

	rev, changes, err = c.Defaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PAL-I", rev.Document()["norm"])
	assert.Len(t, changes, 2)
}

func TestApplyRejected(t *testing.T) {
	_, ts := newDaemon(t)
	c := newTestClient(ts.URL)

	_, _, err := c.Apply(context.Background(), attr.Document{"saturation": "1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrTypeHTTP, apiErr.Type)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "saturation")
	assert.NotEmpty(t, apiErr.RequestID)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"hue","result":"100"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	value, err := c.Get(context.Background(), "hue")
	require.NoError(t, err)
	assert.Equal(t, "100", value)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	_, err := c.Get(context.Background(), "hue")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestParseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).Get(context.Background(), "hue")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrTypeParse, apiErr.Type)
}

func TestConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := newTestClient(url)
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.Contains(t, Hints(err), "Start the daemon: v4lctld serve")
}

func TestWatch(t *testing.T) {
	s, ts := newDaemon(t)
	c := newTestClient(ts.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan api.Frame, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func(f api.Frame) { frames <- f })
	}()

	require.Eventually(t, func() bool { return s.GetActiveConnections() == 1 }, 5*time.Second, 10*time.Millisecond)

	_, _, err := c.Apply(context.Background(), attr.Document{"hue": "10"})
	require.NoError(t, err)

	select {
	case f := <-frames:
		assert.Equal(t, api.OpRevision, f.Op)
		assert.Equal(t, "10", f.Config["hue"])
	case <-time.After(5 * time.Second):
		t.Fatal("no revision push received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestShortErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", errors.New("boom"), "boom"},
		{"refused", &APIError{Type: ErrTypeConnectionRefused}, "Connection refused - is v4lctld running?"},
		{"bad request", NewHTTPError(400, "unknown attribute \"x\"", ""), "unknown attribute \"x\""},
		{"server error", NewHTTPError(502, "gateway", ""), "Daemon error (HTTP 502): gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortMessage(tt.err))
		})
	}
}

func TestHints(t *testing.T) {
	assert.Equal(t, []string{"An unexpected error occurred. Please try again."}, Hints(errors.New("boom")))

	hints := Hints(NewHTTPError(503, "busy", "req-7"))
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "req-7")

	assert.Equal(t, "Timeout", ErrTypeTimeout.String())
	assert.NotEmpty(t, Hints(&APIError{Type: ErrTypeDNS}))
}
