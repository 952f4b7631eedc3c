// cmd/caligben/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/caligben/app"
	"github.com/dalemusser/caligben/config"
	"github.com/dalemusser/caligben/httputil"
	"github.com/dalemusser/caligben/internal/contact"
	"github.com/dalemusser/caligben/internal/site"
	"github.com/dalemusser/caligben/metrics"
	"github.com/dalemusser/caligben/middleware"
	"github.com/dalemusser/caligben/pantry/health"
	"github.com/dalemusser/caligben/pantry/session"
	"github.com/dalemusser/caligben/pantry/version"
	"github.com/dalemusser/caligben/router"
	"github.com/dalemusser/caligben/toolkit/osservice"
	"go.uber.org/zap"
)

const siteName = "Dr. Caligben Resources"

var appKeys = []config.AppKey{
	{Name: "site_name", Default: siteName, Desc: "Site name shown in page titles and logs"},
	{Name: "session_store", Default: "memory", Desc: "Visitor session store: memory or redis"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address (session_store=redis)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "session_ttl", Default: 24 * time.Hour, Desc: "Visitor session lifetime"},
	{Name: "visitor_idle_ttl", Default: 30 * time.Minute, Desc: "How long idle contact form state is kept"},
	{Name: "contact_rate_per_minute", Default: 5, Desc: "Contact submissions allowed per client IP per minute (0 disables)"},
}

type appConfig struct {
	SiteName             string
	SessionStore         string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	SessionTTL           time.Duration
	VisitorIdleTTL       time.Duration
	ContactRatePerMinute int
}

func loadConfig(logger *zap.Logger) (*config.CoreConfig, appConfig, error) {
	core, vals, err := config.Load(logger, appKeys)
	if err != nil {
		return nil, appConfig{}, err
	}
	cfg := appConfig{
		SiteName:             vals.String("site_name"),
		SessionStore:         strings.ToLower(strings.TrimSpace(vals.String("session_store"))),
		RedisAddr:            vals.String("redis_addr"),
		RedisPassword:        vals.String("redis_password"),
		RedisDB:              vals.Int("redis_db"),
		SessionTTL:           vals.Duration("session_ttl", 24*time.Hour),
		VisitorIdleTTL:       vals.Duration("visitor_idle_ttl", 30*time.Minute),
		ContactRatePerMinute: vals.Int("contact_rate_per_minute"),
	}
	switch cfg.SessionStore {
	case "memory", "redis":
	default:
		return nil, appConfig{}, fmt.Errorf("session_store must be memory or redis, got %q", cfg.SessionStore)
	}
	if cfg.ContactRatePerMinute < 0 {
		return nil, appConfig{}, fmt.Errorf("contact_rate_per_minute must be >= 0")
	}
	return core, cfg, nil
}

// backends is what ConnectBackends hands to BuildHandler and Shutdown.
type backends struct {
	sessions *session.Manager
	checks   map[string]health.Check
	site     *site.Site
}

func connectBackends(ctx context.Context, core *config.CoreConfig, cfg appConfig, logger *zap.Logger) (*backends, error) {
	var (
		store  session.Store
		checks = map[string]health.Check{}
	)
	switch cfg.SessionStore {
	case "redis":
		rs, err := session.ConnectRedis(ctx, session.RedisConfig{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: core.BackendConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		store = rs
		checks["sessions"] = rs.Ping
		logger.Info("session store connected", zap.String("store", "redis"), zap.String("addr", cfg.RedisAddr))
	default:
		store = session.NewMemoryStore(10 * time.Minute)
		logger.Info("session store ready", zap.String("store", "memory"))
	}

	return &backends{
		sessions: session.NewManager(store, session.Config{
			MaxAge: cfg.SessionTTL,
			Secure: core.HTTP.UseHTTPS,
		}),
		checks: checks,
	}, nil
}

func buildHandler(core *config.CoreConfig, cfg appConfig, deps *backends, logger *zap.Logger) (http.Handler, error) {
	httputil.SetJSONLogger(logger)

	s, err := site.New(site.Config{
		SiteName:             cfg.SiteName,
		VisitorTTL:           cfg.VisitorIdleTTL,
		ContactRatePerMinute: cfg.ContactRatePerMinute,
		Sessions:             deps.sessions,
		Recorder:             contact.NewLogRecorder(logger.Named("contact")),
		Observer:             metrics.ContactObserver{},
		APIMiddleware:        []func(http.Handler) http.Handler{middleware.CORSFromConfig(core)},
		Logger:               logger,
	})
	if err != nil {
		return nil, err
	}
	deps.site = s

	r := router.New(core, logger, s.NotFound)
	r.Method(http.MethodGet, "/health", health.Handler(deps.checks, logger))
	r.Method(http.MethodGet, "/version", version.Handler())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	s.Routes(r)

	logger.Info("Welcome to "+cfg.SiteName+"! Empowering Growth Through ICT & Education",
		zap.String("version", version.String()))
	return r, nil
}

func shutdown(deps *backends, logger *zap.Logger) error {
	if deps.site != nil {
		deps.site.Close()
	}
	return deps.sessions.Close()
}

func hooks() app.Hooks[appConfig, *backends] {
	return app.Hooks[appConfig, *backends]{
		Name:            siteName,
		LoadConfig:      loadConfig,
		ConnectBackends: connectBackends,
		BuildHandler:    buildHandler,
		Shutdown:        shutdown,
	}
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "service" {
		os.Exit(runService(os.Args[2:]))
	}
	if err := app.Run(context.Background(), hooks()); err != nil {
		os.Exit(1)
	}
}

// runService handles `caligben service <action> [flags...]`. Flags after
// the action are stored as the installed service's arguments.
func runService(args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage: caligben service <run|%s> [flags]\n", strings.Join(osservice.Actions, "|"))
		return 2
	}
	action, flags := args[0], args[1:]

	// The service manager starts the binary as `caligben service run ...`.
	os.Args = append([]string{os.Args[0]}, flags...)

	svc, _, err := osservice.New(osservice.Config{
		Name:        "caligben",
		DisplayName: siteName,
		Description: "Dr. Caligben Resources web site",
		Arguments:   append([]string{"service", "run"}, flags...),
	}, hooks())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := osservice.Control(svc, action); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
