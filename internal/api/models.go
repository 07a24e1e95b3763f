package api

import (
	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/engine"
)

// Endpoint paths
const (
	PathGet      = "/v1/get"
	PathSet      = "/v1/set"
	PathConfig   = "/v1/config"
	PathDefaults = "/v1/config/defaults"
	PathSchema   = "/v1/schema"
	PathHealth   = "/v1/health"
	PathWatch    = "/v1/ws"
)

// HeaderRequestID carries the request id. Clients may set it; the server
// generates one otherwise and always echoes it.
const HeaderRequestID = "X-Request-Id"

// GetRequest asks for the current device value of an attribute.
type GetRequest struct {
	Name string `json:"name"` // v4lctl attribute name, e.g. "UV Ratio"
}

// GetResponse carries the raw value token. Result is empty when the read failed.
type GetResponse struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// SetRequest runs a write command.
type SetRequest struct {
	Name  string `json:"name"`  // write command, e.g. `setattr "UV Ratio"`
	Value string `json:"value"` // encoded value, e.g. "60%"
}

// SetResponse reports whether the write command ran.
type SetResponse struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Success bool   `json:"success"`
}

// ConfigResponse is the current revision as a document, plus the writes
// issued to reach it when it was produced by a reconcile.
type ConfigResponse struct {
	Config  attr.Document   `json:"config"`
	Changes []engine.Change `json:"changes,omitempty"`
}

// HealthResponse is returned by /v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Device  string `json:"device"`
	Model   string `json:"model"`
	Clients int    `json:"clients"` // open websocket connections
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Websocket operations
const (
	OpGet      = "get"
	OpSet      = "set"
	OpConfig   = "config"
	OpApply    = "apply"
	OpDefaults = "defaults"
	OpRevision = "revision" // pushed by the server after every reconcile
	OpError    = "error"
)

// Frame is one websocket message in either direction. Replies copy the ID
// and Op of the request.
type Frame struct {
	ID      string          `json:"id,omitempty"`
	Op      string          `json:"op"`
	Name    string          `json:"name,omitempty"`
	Value   string          `json:"value,omitempty"`
	Config  attr.Document   `json:"config,omitempty"`
	Result  string          `json:"result,omitempty"`
	Success bool            `json:"success,omitempty"`
	Changes []engine.Change `json:"changes,omitempty"`
	Error   string          `json:"error,omitempty"`
}
