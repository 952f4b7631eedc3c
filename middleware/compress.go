// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/caligben/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the content types the site actually serves.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"application/json",
	"image/svg+xml",
}

// CompressFromConfig gzip/deflate-encodes responses when enable_compression
// is set. Levels outside 1-9 are clamped; config validation normally
// rejects them first.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return passthrough
	}
	level := min(max(coreCfg.CompressionLevel, 1), 9)
	return middleware.Compress(level, compressibleTypes...)
}
