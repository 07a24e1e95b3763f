package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/api"
	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/discovery"
	"github.com/uavconcept/v4lctl/internal/engine"
	"github.com/uavconcept/v4lctl/internal/logging"
	"github.com/uavconcept/v4lctl/internal/version"
)

// DefaultShutdownTimeout bounds the drain of in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Listen          string // host:port
	Advertise       bool   // register the mDNS service
	Instance        string // mDNS instance name (hostname when empty)
	Device          string // reported in health and TXT records
	ShutdownTimeout time.Duration
}

// Server serves the bridge API.
type Server struct {
	config      *Config
	engine      *engine.Engine
	httpServer  *http.Server
	listener    net.Listener
	hub         *hub
	upgrader    websocket.Upgrader
	ad          *discovery.Advertisement
	unsubscribe func()
}

// New creates a server around eng and subscribes to its reconciles.
func New(config *Config, eng *engine.Engine) *Server {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		config: config,
		engine: eng,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Operator tools on the LAN, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.unsubscribe = eng.Subscribe(func(current attr.Revision, changes []engine.Change) {
		s.hub.broadcast(api.Frame{
			Op:      api.OpRevision,
			Config:  current.Document(),
			Changes: changes,
		})
	})

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Listen binds the configured address. Start calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until a shutdown signal arrives or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	logging.Info("Starting v4lctl bridge server",
		zap.String("addr", s.listener.Addr().String()),
		zap.String("device", s.config.Device),
		zap.String("model", s.engine.Schema().Model()),
	)

	if s.config.Advertise {
		if err := s.advertise(ctx); err != nil {
			// Discovery is a convenience; the API works without it.
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case sig := <-sigChan:
		logging.Info("Shutdown signal received, stopping server...", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logging.Info("Context cancelled, stopping server...")
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) advertise(ctx context.Context) error {
	tcpAddr, ok := s.listener.Addr().(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("cannot advertise non-TCP address %s", s.listener.Addr())
	}

	instance := s.config.Instance
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("cannot determine instance name: %w", err)
		}
		instance = hostname
	}

	ad, err := discovery.Advertise(ctx, instance, tcpAddr.Port,
		discovery.TXTRecords(s.config.Device, version.Version))
	if err != nil {
		return err
	}
	s.ad = ad

	logging.Info("Advertising via mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", tcpAddr.Port),
	)
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.ad != nil {
		s.ad.Shutdown()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.hub.closeAll()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpServer.Close()
		return fmt.Errorf("shutdown incomplete: %w", err)
	}

	logging.Info("All connections closed gracefully")
	return nil
}

// GetActiveConnections returns the number of connected websocket clients
func (s *Server) GetActiveConnections() int {
	return s.hub.count()
}
