// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/caligben/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies the CORS section of coreCfg, or nothing when
// enable_cors is off. The site mounts it on /api only.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return passthrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
