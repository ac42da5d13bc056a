// middleware/contenttype.go
package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/phoneform/httputil"
)

// AllowContentTypes rejects requests whose body Content-Type is not one of
// types with 415 and a JSON error. Types ending in "+json" match
// "application/json".
func AllowContentTypes(types ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[strings.ToLower(t)] = struct{}{}
	}
	msg := "Content-Type must be one of: " + strings.Join(types, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err == nil && strings.HasSuffix(mt, "+json") {
				mt = "application/json"
			}
			if _, ok := allowed[mt]; err != nil || !ok {
				httputil.JSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
