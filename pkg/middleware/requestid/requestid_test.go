package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		*captured = Value(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestMiddlewareKeepsInboundID(t *testing.T) {
	var got string
	r := newRouter(&got)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", got)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	var got string
	r := newRouter(&got)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))

	r.ServeHTTP(w, req)

	assert.Len(t, got, 36)
	assert.Equal(t, got, w.Header().Get("X-Request-ID"))
}
