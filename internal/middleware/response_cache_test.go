package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/zfogg/formdesk/internal/cache"
)

func TestResponseCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rc := NewResponseCache(cache.NewMemoryStore(), "forms", time.Minute)

	calls := 0
	title := "Audit"
	router := gin.New()
	forms := router.Group("/forms", InvalidateResponseCache(rc))
	forms.GET("", rc.Middleware(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"title": title})
	})
	forms.PUT("", func(c *gin.Context) {
		title = "Inspection"
		c.Status(http.StatusNoContent)
	})
	forms.GET("/broken", rc.Middleware(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusBadGateway, gin.H{"error": "UPSTREAM_ERROR"})
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := do(http.MethodGet, "/forms")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = do(http.MethodGet, "/forms")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"title":"Audit"}`, w.Body.String())
	assert.Equal(t, 1, calls)

	do(http.MethodGet, "/forms?limit=5")
	assert.Equal(t, 2, calls, "queries are cached separately")

	do(http.MethodPut, "/forms")
	w = do(http.MethodGet, "/forms")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"title":"Inspection"}`, w.Body.String())
	assert.Equal(t, 3, calls)

	do(http.MethodGet, "/forms/broken")
	do(http.MethodGet, "/forms/broken")
	assert.Equal(t, 5, calls, "errors are not cached")
}
