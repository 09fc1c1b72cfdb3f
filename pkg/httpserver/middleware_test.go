package httpserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("generates an id when none is sent", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestIDMiddleware())
		var seen string
		router.GET("/test", func(c *gin.Context) {
			seen = RequestIDFromContext(c)
			c.Status(http.StatusOK)
		})

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, resp.Header().Get("X-Request-Id"))
	})

	t.Run("reuses the caller's id", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestIDMiddleware())
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-Id", "req-123")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, "req-123", resp.Header().Get("X-Request-Id"))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, resp.Body.String())
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggingMiddleware(logger))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestServerBuilder(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server, err := New(
		WithPort(0),
		WithLogger(logger),
		WithMode(gin.TestMode),
		WithLogging(true),
	)
	require.NoError(t, err)

	server.RegisterRoutes(func(r *gin.Engine) {
		r.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	})

	server.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			t.Logf("server shutdown error: %v", err)
		}
	}()

	port := server.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get(url)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServerBuilderRejectsBadPort(t *testing.T) {
	_, err := New(WithPort(70000))
	assert.Error(t, err)
}
