package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pantrypal/internal/api"
	"pantrypal/internal/config"
	"pantrypal/internal/logging"
)

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService
	handler  http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	if d.queue != nil {
		srv.queueSvc = api.NewQueueService(d.queue)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	if cfg.Metrics.Enabled && d.gatherer != nil {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	}

	admin := func(h http.HandlerFunc) http.HandlerFunc { return adminMiddleware(cfg.API.Token, h) }
	mux.HandleFunc("GET /api/status", admin(srv.handleStatus))
	mux.HandleFunc("GET /api/queue", admin(srv.handleQueue))
	mux.HandleFunc("GET /api/queue/{id}", admin(srv.handleQueueEntry))
	mux.HandleFunc("POST /api/queue/retry", admin(srv.handleQueueRetry))
	mux.HandleFunc("POST /api/queue/clear-completed", admin(srv.handleQueueClear))

	user := func(h http.HandlerFunc) http.HandlerFunc { return userMiddleware(d.tokens, srv.log(), h) }
	mux.HandleFunc("GET /api/pantry/items", user(srv.handleListItems))
	mux.HandleFunc("POST /api/pantry/items", user(srv.handleCreateItem))
	mux.HandleFunc("GET /api/pantry/items/{id}", user(srv.handleGetItem))
	mux.HandleFunc("PUT /api/pantry/items/{id}", user(srv.handleUpdateItem))
	mux.HandleFunc("DELETE /api/pantry/items/{id}", user(srv.handleDeleteItem))
	mux.HandleFunc("POST /api/pantry/items/{id}/hydrate", user(srv.handleHydrateItem))
	mux.HandleFunc("GET /api/pantry/summary", user(srv.handleSummary))

	mux.HandleFunc("GET /api/recipes", user(srv.handleListRecipes))
	mux.HandleFunc("POST /api/recipes", user(srv.handleCreateRecipe))
	mux.HandleFunc("GET /api/recipes/{id}", user(srv.handleGetRecipe))
	mux.HandleFunc("PUT /api/recipes/{id}", user(srv.handleUpdateRecipe))
	mux.HandleFunc("DELETE /api/recipes/{id}", user(srv.handleDeleteRecipe))
	mux.HandleFunc("POST /api/recipes/{id}/hydrate", user(srv.handleHydrateRecipe))

	mux.HandleFunc("GET /api/macros/total", user(srv.handleTotalMacros))
	mux.HandleFunc("GET /api/macros/item", user(srv.handleItemMacros))
	mux.HandleFunc("GET /api/macros/autocomplete", user(srv.handleAutocomplete))
	mux.HandleFunc("GET /api/macros/upc/{upc}", user(srv.handleUPC))

	srv.handler = requestIDMiddleware(mux)
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	code := http.StatusOK
	for _, health := range status.Workflow.HandlerHealth {
		if !health.Ready {
			code = http.StatusServiceUnavailable
			break
		}
	}
	s.writeJSON(w, code, map[string]any{
		"running": status.Running,
		"ready":   code == http.StatusOK,
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.apiStatus(r.Context()))
}

func (s *apiServer) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
