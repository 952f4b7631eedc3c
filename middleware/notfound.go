// middleware/notfound.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/dalemusser/caligben/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler logs a 404. API paths get a JSON envelope; everything else
// is handed to page, which renders the site's HTML not-found page. A nil
// page falls back to plain text.
func NotFoundHandler(logger *zap.Logger, page http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logRejected(logger, "not_found", r)

		switch {
		case isAPI(r):
			httputil.JSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		case page != nil:
			page(w, r)
		default:
			http.Error(w, "404 page not found", http.StatusNotFound)
		}
	}
}

// MethodNotAllowedHandler logs a 405 and answers in JSON for API paths.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logRejected(logger, "method_not_allowed", r)

		if isAPI(r) {
			httputil.JSONError(w, http.StatusMethodNotAllowed,
				"method_not_allowed", "The requested HTTP method is not allowed for this resource")
			return
		}
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func logRejected(logger *zap.Logger, msg string, r *http.Request) {
	if logger == nil {
		return
	}
	logger.Info(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_ip", r.RemoteAddr),
	)
}
