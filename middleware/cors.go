// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/phoneform/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies go-chi/cors using the config's CORS section. When
// CORS is disabled it returns an identity middleware.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return identity
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		ExposedHeaders:   coreCfg.CORS.CORSExposedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}

func identity(next http.Handler) http.Handler { return next }
