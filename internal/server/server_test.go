package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uavconcept/v4lctl/internal/api"
	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/engine"
	"github.com/uavconcept/v4lctl/internal/snapshot"
)

type fakeTool struct {
	mu         sync.Mutex
	values     map[string]string
	failWrites bool
	writes     []string
}

func (f *fakeTool) Read(_ context.Context, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

func (f *fakeTool) Write(_ context.Context, command, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, command+" "+value)
	return !f.failWrites
}

func (f *fakeTool) setFailWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = fail
}

func (f *fakeTool) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func newTestServer(t *testing.T, tool *fakeTool) (*Server, *httptest.Server) {
	t.Helper()
	eng := engine.New(tool, attr.DefaultSchema(), snapshot.NewStore(nil), nil)
	s := New(&Config{Listen: "127.0.0.1:0", Device: "/dev/video9"}, eng)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHandleGet(t *testing.T) {
	tool := &fakeTool{values: map[string]string{"UV Ratio": "51"}}
	_, ts := newTestServer(t, tool)

	var got api.GetResponse
	resp := doJSON(t, http.MethodPost, ts.URL+api.PathGet, api.GetRequest{Name: "UV Ratio"}, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, api.GetResponse{Name: "UV Ratio", Result: "51"}, got)
	assert.NotEmpty(t, resp.Header.Get(api.HeaderRequestID))

	// A failed read is not an error
	resp = doJSON(t, http.MethodPost, ts.URL+api.PathGet, api.GetRequest{Name: "hue"}, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "", got.Result)
}

func TestHandleGetBadRequest(t *testing.T) {
	_, ts := newTestServer(t, &fakeTool{})

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, ts.URL+api.PathGet, api.GetRequest{}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errResp.Error, "name")
	assert.Equal(t, resp.Header.Get(api.HeaderRequestID), errResp.RequestID)

	resp, err := http.Post(ts.URL+api.PathGet, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + api.PathGet)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleSet(t *testing.T) {
	tool := &fakeTool{}
	s, ts := newTestServer(t, tool)

	var got api.SetResponse
	doJSON(t, http.MethodPost, ts.URL+api.PathSet, api.SetRequest{Name: `setattr "UV Ratio"`, Value: "60%"}, &got)
	assert.True(t, got.Success)
	assert.Equal(t, []string{`setattr "UV Ratio" 60%`}, tool.written())

	v, ok := s.engine.Store().Lookup("setattr_-UV_Ratio-")
	assert.True(t, ok)
	assert.Equal(t, "60%", v)

	tool.setFailWrites(true)
	doJSON(t, http.MethodPost, ts.URL+api.PathSet, api.SetRequest{Name: "bright", Value: "10%"}, &got)
	assert.False(t, got.Success)
	assert.Equal(t, 1, s.engine.Store().Len())
}

func TestHandleConfig(t *testing.T) {
	tool := &fakeTool{}
	_, ts := newTestServer(t, tool)

	var cfg api.ConfigResponse
	doJSON(t, http.MethodGet, ts.URL+api.PathConfig, nil, &cfg)
	assert.Equal(t, "50", cfg.Config["bright"])
	assert.Empty(t, cfg.Changes)

	doJSON(t, http.MethodPut, ts.URL+api.PathConfig, attr.Document{"bright": "70", "mute": "off"}, &cfg)
	assert.Equal(t, "70", cfg.Config["bright"])
	require.Len(t, cfg.Changes, 1, "mute is already off")
	assert.Equal(t, engine.Change{Key: "bright", Command: "bright", Value: "70%", OK: true}, cfg.Changes[0])

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPut, ts.URL+api.PathConfig, attr.Document{"Coring": "9"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, errResp.Error)

	doJSON(t, http.MethodPost, ts.URL+api.PathDefaults, nil, &cfg)
	assert.Equal(t, "50", cfg.Config["bright"])
	require.Len(t, cfg.Changes, 1)
	assert.Equal(t, "50%", cfg.Changes[0].Value)
}

func TestHandleSchemaAndHealth(t *testing.T) {
	_, ts := newTestServer(t, &fakeTool{})

	var file attr.SchemaFile
	doJSON(t, http.MethodGet, ts.URL+api.PathSchema, nil, &file)
	assert.Equal(t, attr.Osprey440Model, file.Model)
	schema, err := attr.NewSchema(file)
	require.NoError(t, err)
	assert.Equal(t, attr.DefaultSchema().Len(), schema.Len())

	var health api.HealthResponse
	doJSON(t, http.MethodGet, ts.URL+api.PathHealth, nil, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "/dev/video9", health.Device)
}

func TestRequestIDEchoed(t *testing.T) {
	_, ts := newTestServer(t, &fakeTool{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+api.PathHealth, nil)
	require.NoError(t, err)
	req.Header.Set(api.HeaderRequestID, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(api.HeaderRequestID))
}

func dialWatch(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + api.PathWatch
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) api.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f api.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocketRequests(t *testing.T) {
	tool := &fakeTool{values: map[string]string{"bright": "32768"}}
	_, ts := newTestServer(t, tool)
	conn := dialWatch(t, ts)

	require.NoError(t, conn.WriteJSON(api.Frame{ID: "1", Op: api.OpGet, Name: "bright"}))
	f := readFrame(t, conn)
	assert.Equal(t, "1", f.ID)
	assert.Equal(t, "32768", f.Result)

	require.NoError(t, conn.WriteJSON(api.Frame{ID: "2", Op: api.OpSet, Name: "bright", Value: "70%"}))
	f = readFrame(t, conn)
	assert.Equal(t, "2", f.ID)
	assert.True(t, f.Success)

	require.NoError(t, conn.WriteJSON(api.Frame{ID: "3", Op: "bogus"}))
	f = readFrame(t, conn)
	assert.Equal(t, "3", f.ID)
	assert.Equal(t, api.OpError, f.Op)
	assert.Contains(t, f.Error, "bogus")
}

func TestWebSocketRevisionPush(t *testing.T) {
	tool := &fakeTool{}
	s, ts := newTestServer(t, tool)
	conn := dialWatch(t, ts)

	require.Eventually(t, func() bool { return s.GetActiveConnections() == 1 }, 2*time.Second, 10*time.Millisecond)

	// A reconcile through HTTP reaches websocket clients
	doJSON(t, http.MethodPut, ts.URL+api.PathConfig, attr.Document{"hue": "20"}, nil)

	f := readFrame(t, conn)
	assert.Equal(t, api.OpRevision, f.Op)
	assert.Equal(t, "20", f.Config["hue"])
	require.Len(t, f.Changes, 1)
	assert.Equal(t, "hue", f.Changes[0].Key)

	// An apply over the socket yields the push and the reply
	require.NoError(t, conn.WriteJSON(api.Frame{ID: "7", Op: api.OpApply, Config: attr.Document{"hue": "30"}}))
	var reply api.Frame
	for i := 0; i < 2; i++ {
		f := readFrame(t, conn)
		if f.ID == "7" {
			reply = f
		}
	}
	assert.Equal(t, api.OpApply, reply.Op)
	assert.Equal(t, "30", reply.Config["hue"])
}

func TestShutdown(t *testing.T) {
	tool := &fakeTool{}
	eng := engine.New(tool, attr.DefaultSchema(), nil, nil)
	s := New(&Config{Listen: "127.0.0.1:0"}, eng)

	require.NoError(t, s.Listen())
	require.NotNil(t, s.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	resp, err := http.Get("http://" + s.Addr().String() + api.PathHealth)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
