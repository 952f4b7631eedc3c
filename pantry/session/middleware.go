// session/middleware.go
package session

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey struct{}

// Middleware attaches the visitor's session to the request context and
// saves it, if modified, just before the response header is written.
func Middleware(m *Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Get(r)
			if err != nil {
				logger.Warn("session load failed; starting a new one", zap.Error(err))
			}
			if s == nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), contextKey{}, s))
			sw := &sessionWriter{ResponseWriter: w, r: r, s: s, m: m, logger: logger}

			next.ServeHTTP(sw, r)

			sw.save()
		})
	}
}

// FromContext returns the request's session, or nil outside Middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

type sessionWriter struct {
	http.ResponseWriter
	r      *http.Request
	s      *Session
	m      *Manager
	logger *zap.Logger
	saved  bool
}

func (sw *sessionWriter) save() {
	if sw.saved {
		return
	}
	sw.saved = true
	if !sw.s.Modified() {
		return
	}
	if err := sw.m.Save(sw.ResponseWriter, sw.r, sw.s); err != nil {
		sw.logger.Warn("session save failed", zap.String("path", sw.r.URL.Path), zap.Error(err))
	}
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.save()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.save()
	return sw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *sessionWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
