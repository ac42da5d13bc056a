package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func get(t *testing.T, h http.Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHandler_NoChecks(t *testing.T) {
	code, resp := get(t, Handler(nil, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestHandler_AllHealthy(t *testing.T) {
	code, resp := get(t, Handler(map[string]Check{
		"sessions": func(context.Context) error { return nil },
		"noop":     nil,
	}, zap.NewNop()))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"sessions": "ok", "noop": "ok"}, resp.Checks)
}

func TestHandler_Failing(t *testing.T) {
	code, resp := get(t, Handler(map[string]Check{
		"sessions": func(context.Context) error { return errors.New("registry closed") },
	}, zap.NewNop()))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "error: registry closed", resp.Checks["sessions"])
}

func TestMount(t *testing.T) {
	r := chi.NewRouter()
	Mount(r, nil, nil)
	code, _ := get(t, r)
	assert.Equal(t, http.StatusOK, code)
}
