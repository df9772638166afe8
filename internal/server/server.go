// Package server exposes map sessions, coordinate resolution and quote
// tabs over HTTP/JSON.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/mapview"
	"github.com/chid93/next-gen-prf/internal/quote"
	"github.com/chid93/next-gen-prf/internal/store"
	"github.com/chid93/next-gen-prf/pkg/geocode"
)

// Deps are the services the API is built from. Store, Geocoder and Tiles
// are optional.
type Deps struct {
	Resolver       *geo.Resolver
	Sessions       *mapview.Manager
	Form           *quote.Form
	Store          store.Store
	Geocoder       geocode.Client
	Tiles          http.Handler
	AllowedOrigins []string
}

// Server holds the handlers.
type Server struct {
	deps     Deps
	validate *validator.Validate
}

// New creates a server.
func New(deps Deps) *Server {
	return &Server{deps: deps, validate: newValidator()}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	origins := s.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/resolve", s.handleResolve)
		r.Post("/validate", s.handleValidate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleOpenSession)
			r.Route("/{session}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleCloseSession)
				r.Post("/click", s.handleClick)
				r.Post("/geocode", s.handleGeocode)
				r.Post("/viewport", s.handleViewport)
				r.Get("/markers", s.handleListMarkers)
				r.Delete("/markers/{handle}", s.handleDeleteMarker)
				r.Post("/markers/{handle}/focus", s.handleFocusMarker)
				r.Get("/export.xlsx", s.handleExport)
			})
		})

		r.Route("/tabs/{tab}", func(r chi.Router) {
			r.Get("/", s.handleGetTab)
			r.Put("/fields/{field}", s.handleEditField)
			r.Post("/fields/{field}/blur", s.handleBlurField)
		})
	})

	if s.deps.Tiles != nil {
		r.Handle("/tiles/*", http.StripPrefix("/tiles", s.deps.Tiles))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.deps.Sessions.Len(),
		"grids":    s.deps.Resolver.Grids().Len(),
		"counties": s.deps.Resolver.Counties().Len(),
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
