package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shiftline/emergency/pkg/api/handlers"
	"github.com/shiftline/emergency/pkg/log"
	"github.com/shiftline/emergency/pkg/store"
)

// MonitorServer serves the read-only monitor surface: session and player
// state, a websocket stream, and the instructor's force-advance trigger.
type MonitorServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewMonitorServerOptions struct {
	Port     int
	TLS      *TLSConfig
	Store    store.DocumentStore
	Advancer handlers.Advancer
}

// NewMonitorServer creates a new http.Server for handling monitor requests
func NewMonitorServer(opts NewMonitorServerOptions) *MonitorServer {
	router := mux.NewRouter()
	router.HandleFunc("/session", handlers.HandleGetSession(opts.Store)).Methods(http.MethodGet)
	router.HandleFunc("/players", handlers.HandleListPlayers(opts.Store)).Methods(http.MethodGet)
	router.HandleFunc("/players/{playerID}", handlers.HandleGetPlayer(opts.Store)).Methods(http.MethodGet)
	router.HandleFunc("/players/{playerID}/advance", handlers.HandleAdvancePlayer(opts.Store, opts.Advancer)).Methods(http.MethodPost)
	router.HandleFunc("/watch", handlers.HandleWatch(opts.Store)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &MonitorServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the MonitorServer
func (s *MonitorServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("Monitor server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("Monitor server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Monitor server closed")
			return
		}
		log.Error("Monitor server error: %v", err)
	}
}

// Stop stops the MonitorServer
func (s *MonitorServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
