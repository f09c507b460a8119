package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"permitflow_backend/platform/logger"
)

func newLimitedEngine(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	limiter := NewIPRateLimiter(rps, burst, logger.New("test"))
	engine.Use(limiter.RateLimit())
	engine.POST("/workflows/run", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

func doPost(engine *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/workflows/run", nil)
	req.RemoteAddr = ip + ":52000"
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	engine := newLimitedEngine(1, 2)

	for i := 0; i < 2; i++ {
		if code := doPost(engine, "203.0.113.7"); code != http.StatusOK {
			t.Fatalf("request %d within burst: got %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := doPost(engine, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("request past burst: got %d, want %d", code, http.StatusTooManyRequests)
	}
}

func TestRateLimit_TracksClientsSeparately(t *testing.T) {
	engine := newLimitedEngine(1, 1)

	if code := doPost(engine, "203.0.113.7"); code != http.StatusOK {
		t.Fatalf("first client: got %d, want %d", code, http.StatusOK)
	}
	if code := doPost(engine, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("exhausted client: got %d, want %d", code, http.StatusTooManyRequests)
	}
	if code := doPost(engine, "198.51.100.4"); code != http.StatusOK {
		t.Fatalf("fresh client: got %d, want %d", code, http.StatusOK)
	}
}
