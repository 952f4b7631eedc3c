// router/router.go
package router

import (
	"net/http"

	"github.com/dalemusser/caligben/config"
	"github.com/dalemusser/caligben/logging"
	"github.com/dalemusser/caligben/metrics"
	"github.com/dalemusser/caligben/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New returns a chi.Router with the standard stack: request id, real IP,
// panic recovery, metrics, access logging, security headers, compression
// and the body size limit. notFound renders HTML 404s for non-API paths.
// Health, version and metrics routes are mounted by the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger, notFound http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders(middleware.SiteSecurityHeaders()))
	r.Use(middleware.CompressFromConfig(coreCfg))
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))

	r.NotFound(middleware.NotFoundHandler(logger, notFound))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
