package router

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/blues/crowdfund/internal/config"
	"github.com/blues/crowdfund/internal/host"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/blues/crowdfund/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) http.Handler {
	t.Helper()
	db, err := repository.Open(sqlite.Open(filepath.Join(t.TempDir(), "router.db")))
	require.NoError(t, err)
	cfg := &config.Config{Server: config.ServerConfig{Mode: "test"}}
	return Setup(host.NewRuntime(db, host.SystemClock{}), logic.NewEventLogic(db), cfg)
}

func TestHealth(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"crowdfund-service"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/campaign/fund", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRoutesBeforeDeploy(t *testing.T) {
	r := newEngine(t)

	for _, path := range []string{
		"/api/v1/campaign",
		"/api/v1/campaign/status",
		"/api/v1/campaign/funds",
		"/api/v1/campaign/target",
		"/api/v1/campaign/deadline",
		"/api/v1/campaign/max-per-wallet",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
