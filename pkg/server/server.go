// Package server bundles the static demo-page server the browser suites
// navigate to. Pages are embedded so the repository is self-contained; a
// pages directory on disk can override them for authoring, optionally
// with watch mode pushing reload events to open tabs over SSE.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/tmaxmax/go-sse"

	"github.com/umputun/vizcheck/pkg/demo"
)

//go:embed templates
var templatesFS embed.FS

// Config holds server configuration.
type Config struct {
	Listen  string // listen address, default 127.0.0.1:5500
	Dir     string // on-disk pages directory overriding embedded pages
	Watch   bool   // watch Dir and push reload events, requires Dir
	Version string
}

// Server serves the demo-page index, the pages, and the reload stream.
type Server struct {
	cfg Config
	sse *sse.Server
	srv *http.Server
}

// New creates a server. Watch mode requires a pages directory.
func New(cfg Config) (*Server, error) {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:5500"
	}
	if cfg.Watch && cfg.Dir == "" {
		return nil, errors.New("watch mode requires a pages directory")
	}
	return &Server{cfg: cfg, sse: &sse.Server{}}, nil
}

// Run starts the server and blocks until ctx is canceled or the
// listener fails. Cancellation triggers graceful shutdown of both the
// HTTP server and the SSE stream.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/demos/", s.handlePage)
	mux.Handle("/events", s.sse)

	s.srv = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch {
		go func() {
			if err := s.watch(ctx); err != nil {
				log.Printf("[WARN] pages watcher stopped: %v", err)
			}
		}()
	}

	// shutdown listener
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.sse.Shutdown(shutdownCtx)
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// indexData holds data for the index template.
type indexData struct {
	Version string
	Demos   []demo.Demo
}

// handleIndex lists the registry with links to each demo page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	demos, err := demo.Load()
	if err != nil {
		log.Printf("[WARN] failed to load demo registry: %v", err)
		http.Error(w, "registry error", http.StatusInternalServerError)
		return
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, indexData{Version: s.cfg.Version, Demos: demos}); err != nil {
		log.Printf("[WARN] failed to render index: %v", err)
	}
}
