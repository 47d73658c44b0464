// Package server exposes the relay, the location API and websocket viewer
// sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/cache"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/catalog"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/fetch"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/render"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/resolver"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/viewer"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool     // allow all CORS origins
	AllowedOrigins []string // used when AllowAll is false
	RelayPath      string
	// PublicURL is the origin viewer sessions fetch relay URLs from. Empty
	// means the listener's own address.
	PublicURL      string
	RequestTimeout time.Duration
	Viewer         viewer.Options
}

// Server wires the catalog, resolver, relay and viewer sessions together.
type Server struct {
	cfg      Config
	catalog  catalog.Catalog
	resolver *resolver.Resolver
	relay    http.Handler
	cache    *cache.Cache
	decoder  render.Decoder
	logger   *slog.Logger
	upgrader websocket.Upgrader

	router     chi.Router
	httpServer *http.Server

	mu        sync.RWMutex
	publicURL string
}

// New creates a server. The menu cache is shared by every viewer session.
func New(cfg Config, cat catalog.Catalog, res *resolver.Resolver, relayHandler http.Handler, logger *slog.Logger) *Server {
	if cfg.RelayPath == "" {
		cfg.RelayPath = resolver.DefaultRelayEndpoint
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		catalog:   cat,
		resolver:  res,
		relay:     relayHandler,
		cache:     cache.New(),
		decoder:   render.NewPDFDecoder(),
		logger:    logger,
		publicURL: cfg.PublicURL,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll || len(s.cfg.AllowedOrigins) == 0 {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Long-lived websocket sessions stay outside the request timeout.
	r.Get("/ws/viewer", s.handleViewerWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		if s.relay != nil {
			r.Method(http.MethodGet, s.cfg.RelayPath, s.relay)
			r.Method(http.MethodHead, s.cfg.RelayPath, s.relay)
		}
		RegisterRoutes(r, s.catalog, s.resolver)
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Cache returns the menu cache shared by viewer sessions.
func (s *Server) Cache() *cache.Cache { return s.cache }

// SetPublicURL changes the origin new viewer sessions fetch from.
func (s *Server) SetPublicURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicURL = u
}

func (s *Server) fetcher() fetch.Fetcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &fetch.HTTPFetcher{
		Client:  &http.Client{Timeout: 2 * s.cfg.RequestTimeout},
		BaseURL: s.publicURL,
	}
}

// Run listens on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.cfg.Port, err)
	}

	s.mu.Lock()
	if s.publicURL == "" {
		_, port, _ := net.SplitHostPort(ln.Addr().String())
		s.publicURL = "http://127.0.0.1:" + port
	}
	publicURL := s.publicURL
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info("menuview server listening.", "addr", ln.Addr().String(), "publicUrl", publicURL)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
