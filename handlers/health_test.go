package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	up   = PingFunc(func(context.Context) error { return nil })
	down = PingFunc(func(context.Context) error { return errors.New("unreachable") })
)

type readiness struct {
	Status string          `json:"status"`
	Deps   map[string]bool `json:"deps"`
}

func ready(t *testing.T, deps ...Dependency) (int, readiness) {
	t.Helper()
	g := gin.New()
	RegisterHealth(g, time.Now(), deps...)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	var r readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	return w.Code, r
}

func TestHealth(t *testing.T) {
	g := gin.New()
	RegisterHealth(g, time.Now())
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())
}

func TestReady(t *testing.T) {
	code, r := ready(t, Dependency{Name: "mongodb", Pinger: up}, Dependency{Name: "redis", Pinger: down, Optional: true})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", r.Status)
	assert.Equal(t, map[string]bool{"mongodb": true, "redis": false}, r.Deps)

	code, r = ready(t, Dependency{Name: "mongodb", Pinger: down})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", r.Status)
	assert.False(t, r.Deps["mongodb"])
}
