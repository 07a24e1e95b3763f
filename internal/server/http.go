package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/api"
	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/logging"
	"github.com/uavconcept/v4lctl/internal/version"
)

// maxBodySize limits request bodies; a full config document is well below it.
const maxBodySize = 64 << 10

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Handler returns the API routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.PathGet, s.handleGet)
	mux.HandleFunc("POST "+api.PathSet, s.handleSet)
	mux.HandleFunc("GET "+api.PathConfig, s.handleConfig)
	mux.HandleFunc("PUT "+api.PathConfig, s.handleApply)
	mux.HandleFunc("POST "+api.PathDefaults, s.handleDefaults)
	mux.HandleFunc("GET "+api.PathSchema, s.handleSchema)
	mux.HandleFunc("GET "+api.PathHealth, s.handleHealth)
	mux.HandleFunc("GET "+api.PathWatch, s.handleWatch)
	return withRequestLogging(mux)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	var req api.GetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	result := s.engine.Get(r.Context(), req.Name)
	writeJSON(w, http.StatusOK, api.GetResponse{Name: req.Name, Result: result})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var req api.SetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	ok := s.engine.Set(context.WithoutCancel(r.Context()), req.Name, req.Value)
	writeJSON(w, http.StatusOK, api.SetResponse{Name: req.Name, Value: req.Value, Success: ok})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.ConfigResponse{Config: s.engine.Current().Document()})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var doc attr.Document
	if !decodeJSON(w, r, &doc) {
		return
	}

	current, changes, err := s.engine.Apply(context.WithoutCancel(r.Context()), doc)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.ConfigResponse{Config: current.Document(), Changes: changes})
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	current, changes := s.engine.RestoreDefaults(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, api.ConfigResponse{Config: current.Document(), Changes: changes})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Schema().File())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Version: version.Version,
		Device:  s.config.Device,
		Model:   s.engine.Schema().Model(),
		Clients: s.GetActiveConnections(),
	})
}

// decodeJSON reads a JSON body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message, RequestID: RequestID(r.Context())})
}

// statusRecorder captures the response status for logging. It forwards
// Hijack so websocket upgrades keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(api.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(api.HeaderRequestID, id)

		logging.LogRequest(id, r.RemoteAddr, r.Method, r.URL.Path)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		logging.LogResponse(id, rec.status)
	})
}
