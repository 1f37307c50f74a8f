// Package server exposes an extract over HTTP.
//
// The server loads an [export.Export] once at startup and serves it read-only:
//
//	GET /healthz               liveness
//	GET /data/{file}           type_ids.json, type_names.json, bp_ids.json
//	GET /api/types/{id}        one type by id or exact name, with its recipe
//	GET /api/search?q=&limit=  product search by name
//	GET /api/plan/{id}?qty=    build plan for a product
//
// Errors are JSON objects {"error": <code>, "message": <text>} with a status
// derived from the error code.
package server

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/shipyard/pkg/catalog"
	"github.com/matzehuels/shipyard/pkg/export"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server serves one extract. It is immutable after New.
type Server struct {
	catalog *catalog.Catalog
	files   map[string][]byte
	logger  *log.Logger
	router  chi.Router
}

// New prepares a server for e. The three lookup files are encoded once
// up front so /data responses match what extract writes to disk.
func New(e *export.Export, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		catalog: catalog.New(e),
		files:   make(map[string][]byte, len(export.Files)),
		logger:  logger,
	}

	values := map[string]any{
		export.TypeIDsFile:    e.TypeIDs,
		export.TypeNamesFile:  e.TypeNames,
		export.BlueprintsFile: e.Blueprints,
	}
	for _, name := range export.Files {
		var buf bytes.Buffer
		if err := export.Encode(&buf, values[name]); err != nil {
			return nil, err
		}
		s.files[name] = buf.Bytes()
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Get("/data/{file}", s.handleFile)
	r.Route("/api", func(r chi.Router) {
		r.Get("/types/{id}", s.handleType)
		r.Get("/search", s.handleSearch)
		r.Get("/plan/{id}", s.handlePlan)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFound(r.URL.Path))
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "types", len(s.catalog.Export().TypeIDs))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
