// Package requestid carries chi's request ID into log entries written
// outside the HTTP middleware, e.g. by recorders called from handlers.
package requestid

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Get returns the request ID set by middleware.RequestID, or "".
func Get(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return middleware.GetReqID(ctx)
}

// Field is a request_id zap field, or zap.Skip() when ctx has none.
func Field(ctx context.Context) zap.Field {
	if id := Get(ctx); id != "" {
		return zap.String("request_id", id)
	}
	return zap.Skip()
}
