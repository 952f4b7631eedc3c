// Package site is the Caligben Resources web site: its pages, the
// contact form handlers and the per-visitor form state behind them.
package site

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/caligben/internal/contact"
	"github.com/dalemusser/caligben/pantry/assets"
	"github.com/dalemusser/caligben/pantry/fileserver"
	"github.com/dalemusser/caligben/pantry/ratelimit"
	"github.com/dalemusser/caligben/pantry/session"
	"github.com/dalemusser/caligben/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Config wires a Site. Sessions is required; nil Recorder, Observer and
// Clock fall back to the contact package defaults.
type Config struct {
	SiteName string
	// VisitorTTL is how long an idle visitor's form state is kept.
	VisitorTTL time.Duration
	// ContactRatePerMinute limits submissions per client IP; 0 disables it.
	ContactRatePerMinute int

	Sessions *session.Manager
	Recorder contact.Recorder
	Observer contact.Observer
	Clock    contact.Clock
	// APIMiddleware wraps the /api routes, e.g. CORS.
	APIMiddleware []func(http.Handler) http.Handler
	Logger        *zap.Logger
}

// Site owns the template engine, the visitor registry and the contact
// rate limiter.
type Site struct {
	cfg          Config
	logger       *zap.Logger
	engine       *templates.Engine
	visitors     *Visitors
	limiter      *ratelimit.KeyLimiter
	assetVersion string
}

// New compiles the embedded templates and starts the visitor janitor.
func New(cfg Config) (*Site, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("site: session manager required")
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Dr. Caligben Resources"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := templates.New(logger)
	err := engine.Boot(
		templates.Set{Name: "shared", FS: templateFS, Patterns: []string{"templates/shared/*.gohtml"}},
		templates.Set{Name: "pages", FS: templateFS, Patterns: []string{"templates/pages/*.gohtml"}},
	)
	if err != nil {
		return nil, fmt.Errorf("site: templates: %w", err)
	}

	s := &Site{
		cfg:          cfg,
		logger:       logger,
		engine:       engine,
		assetVersion: assets.ContentHash(staticFiles(), "site.css"),
	}
	s.visitors = NewVisitors(cfg.VisitorTTL, s.newController, logger)
	if cfg.ContactRatePerMinute > 0 {
		s.limiter = ratelimit.PerMinute(cfg.ContactRatePerMinute, time.Hour)
	}
	return s, nil
}

func (s *Site) newController(view contact.View) *contact.Controller {
	opts := []contact.Option{contact.WithLogger(s.logger)}
	if s.cfg.Recorder != nil {
		opts = append(opts, contact.WithRecorder(s.cfg.Recorder))
	}
	if s.cfg.Observer != nil {
		opts = append(opts, contact.WithObserver(s.cfg.Observer))
	}
	if s.cfg.Clock != nil {
		opts = append(opts, contact.WithClock(s.cfg.Clock))
	}
	return contact.NewController(view, opts...)
}

// Routes mounts the pages, the contact endpoints and /static on r.
func (s *Site) Routes(r chi.Router) {
	r.Handle("/static/*", fileserver.Handler("/static", staticFiles()))

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(s.cfg.Sessions, s.logger))

		r.Get("/", s.page("home", "Home"))
		r.Get("/services", s.page("services", "Services"))
		r.Get("/about", s.page("about", "About"))
		r.Get("/contact", s.contactPage)

		r.With(s.limit).Post("/contact", s.submitContact)
		r.Post("/contact/dismiss", s.dismissContact)

		r.Route("/api", func(r chi.Router) {
			r.Use(s.cfg.APIMiddleware...)
			r.With(s.limit).Post("/contact", s.submitContactAPI)
		})
	})
}

// NotFound renders the HTML 404 page.
func (s *Site) NotFound(w http.ResponseWriter, r *http.Request) {
	s.engine.Render(w, http.StatusNotFound, "not_found", s.pageData(r, "Page not found"))
}

// Close stops the visitor janitor and the rate limiter.
func (s *Site) Close() {
	s.visitors.Close()
	if s.limiter != nil {
		s.limiter.Close()
	}
}

func (s *Site) limit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return ratelimit.Middleware(s.limiter, s.rateLimited)(next)
}
