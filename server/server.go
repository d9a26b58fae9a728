// Package server serves the event store's analytics and write API over HTTP.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/pkg/blobstore"
	"github.com/cyclopcam/tracklog/server/analytics"
	"github.com/cyclopcam/tracklog/server/eventstore"
	"github.com/cyclopcam/tracklog/server/metrics"
	"github.com/julienschmidt/httprouter"
)

type Server struct {
	HotReloadWWW bool
	Log          logs.Log
	Store        *eventstore.EventStore
	Queries      *analytics.Queries
	Metrics      *metrics.Metrics

	config        Config
	exportStorage blobstore.Storage // nil if export is not configured
	signalIn      chan os.Signal
	httpServer    *http.Server
	httpRouter    *httprouter.Router
	shutdownOnce  sync.Once
}

// NewServer opens the event store described by cfg, and builds the HTTP routes.
// Call ListenHTTP to start serving.
func NewServer(logger logs.Log, cfg *Config, hotReloadWWW bool) (*Server, error) {
	m, err := metrics.NewMetrics(nil)
	if err != nil {
		return nil, err
	}

	store, err := eventstore.OpenConfig(logger, cfg.DB)
	if err != nil {
		return nil, err
	}
	store.SetMetrics(m)

	var exportStorage blobstore.Storage
	if cfg.Export.IsConfigured() {
		exportStorage, err = blobstore.Open(logger, cfg.Export)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	s := &Server{
		HotReloadWWW:  hotReloadWWW,
		Log:           logger,
		Store:         store,
		Queries:       analytics.New(logger, store),
		Metrics:       m,
		config:        *cfg,
		exportStorage: exportStorage,
	}
	if err := s.setupHttpRoutes(); err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// addr example: ":8080". If addr is empty, the configured address is used.
func (s *Server) ListenHTTP(addr string) error {
	if addr == "" {
		addr = s.config.Listen
	}
	s.Log.Infof("Listening on %v", addr)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.Log.Infof("ListenForKillSignals starting")
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. ListenForKillSignals will exit after shutdown", sig.String())
			s.Shutdown()
		} else {
			// This path gets hit when Shutdown() is called by something other than ourselves, and Shutdown() closes the signalIn channel.
			s.Log.Infof("signalIn closed. ListenForKillSignals will exit now")
		}
	}()
}

// Shutdown stops the HTTP server and closes the event store. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.Log.Infof("Shutdown")
		if s.signalIn != nil {
			signal.Stop(s.signalIn)
			close(s.signalIn)
		}
		if s.httpServer != nil {
			s.Log.Infof("Closing HTTP server")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.Log.Warnf("HTTP server shutdown error: %v", err)
			}
		}
		if err := s.Store.Close(); err != nil {
			s.Log.Warnf("Shutdown complete, with error: %v", err)
		} else {
			s.Log.Infof("Shutdown complete")
		}
	})
}
