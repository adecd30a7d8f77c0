package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimitByIP(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitByIP(1, 2))
	router.GET("/probe", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.RemoteAddr = "10.1.2.3:4444"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("requests within burst rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("request beyond burst allowed: %v", codes)
	}
}

func TestRequestLoggerAddsContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/probe", func(c *gin.Context) {
		if GetLogger(c) == nil {
			t.Error("request-scoped logger missing")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 completion log, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["status_code"] != int64(http.StatusOK) {
		t.Fatalf("unexpected status code field: %v", fields["status_code"])
	}
	if fields["request_id"] == "" {
		t.Fatal("request id field missing")
	}
}

func TestRequestLoggerWarnsOnClientError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if len(logs.FilterMessage("request completed with client error").All()) != 1 {
		t.Fatal("expected client error completion log")
	}
}
