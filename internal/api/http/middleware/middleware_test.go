package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/davinci-studio/studio-backend/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter(t *testing.T) {
	l := NewKeyedLimiter(60, 2)

	assert.True(t, l.Allow("s1"))
	assert.True(t, l.Allow("s1"))
	assert.False(t, l.Allow("s1"), "burst exhausted")
	assert.True(t, l.Allow("s2"), "keys are independent")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/sessions/:session_id/generations", RateLimitMiddleware(60, 1, SessionKey), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	do := func(session string) int {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+session+"/generations", nil)
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusAccepted, do("s1"))
	assert.Equal(t, http.StatusTooManyRequests, do("s1"))
	assert.Equal(t, http.StatusAccepted, do("s2"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/x", RateLimitMiddleware(0, 1, SessionKey), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/x", func(c *gin.Context) {
		seen = logging.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("echoes the incoming id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-Id", "req-42")
		router.ServeHTTP(rr, req)

		assert.Equal(t, "req-42", rr.Header().Get("X-Request-Id"))
		assert.Equal(t, "req-42", seen)
	})

	t.Run("generates one when missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

		rid := rr.Header().Get("X-Request-Id")
		assert.Len(t, rid, 32)
		assert.Equal(t, rid, seen)
	})
}

func TestRateLimitMiddleware_ClientKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/sessions/:session_id/generations", RateLimitMiddleware(60, 1, ClientKey), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	do := func(session, addr string) int {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+session+"/generations", nil)
		req.RemoteAddr = addr
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusAccepted, do("s1", "203.0.113.7:5000"))
	assert.Equal(t, http.StatusTooManyRequests, do("s2", "203.0.113.7:5001"), "a fresh session id shares the client bucket")
	assert.Equal(t, http.StatusAccepted, do("s1", "198.51.100.2:5000"))
}
