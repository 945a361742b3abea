package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nutribot/internal/core/cache"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(m *Collector) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())
	return r
}

func scrape(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestObservers(t *testing.T) {
	m := NewCollector()
	m.ObserveUpstream("fdc", "search", 120*time.Millisecond, nil)
	m.ObserveUpstream("fdc", "search", time.Second, errors.New("boom"))
	m.ObserveReload("success", 3*time.Second, 42)
	m.ObserveReload("timeout", 60*time.Second, 0)
	m.ObserveDispatch("greeting", "greeting")

	body := scrape(t, newTestRouter(m))
	assert.Contains(t, body, `nutribot_upstream_requests_total{operation="search",service="fdc",status="ok"} 1`)
	assert.Contains(t, body, `nutribot_upstream_requests_total{operation="search",service="fdc",status="error"} 1`)
	assert.Contains(t, body, `nutribot_knowledge_reloads_total{outcome="timeout"} 1`)
	assert.Contains(t, body, "nutribot_knowledge_published_foods 42")
	assert.Contains(t, body, `nutribot_chat_dispatch_total{intent="greeting",outcome="greeting"} 1`)
}

func TestMiddlewareAndRegisteredFuncs(t *testing.T) {
	m := NewCollector()
	m.RegisterCache("nutrients", func() cache.Stats { return cache.Stats{Size: 2, Hits: 5, Misses: 1} })
	m.RegisterCatalogSize(func() int { return 7 })
	r := newTestRouter(m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := scrape(t, r)
	assert.Contains(t, body, `nutribot_cache_hits_total{cache="nutrients"} 5`)
	assert.Contains(t, body, `nutribot_cache_entries{cache="nutrients"} 2`)
	assert.Contains(t, body, "nutribot_catalog_foods 7")
	assert.Contains(t, body, `nutribot_http_requests_total{method="GET",path="/ping",status_code="200"} 1`)
}
