// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/phoneform/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressLevel balances speed and ratio for small HTML and JSON bodies.
const compressLevel = 5

// compressTypes excludes text/event-stream; compressed event streams are
// buffered and never reach the browser.
var compressTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
}

// CompressFromConfig returns gzip/deflate compression when enabled in config,
// otherwise an identity middleware.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return identity
	}
	return middleware.Compress(compressLevel, compressTypes...)
}
