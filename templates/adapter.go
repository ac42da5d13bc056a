// templates/adapter.go
package templates

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"
)

// Respond writes the named template as an HTML response with status. If the
// template fails the client gets a plain 500 instead.
func (e *Engine) Respond(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := e.Render(&buf, name, data); err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
