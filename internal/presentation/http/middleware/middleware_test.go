package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/config"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/oauth2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestClientRateLimiter(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	})
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodGet, "/ping"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := serve(r, http.MethodGet, "/ping")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected 429 with Retry-After, got %d %v", w.Code, w.Header())
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("expected limit header 2, got %q", got)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, CleanupInterval: time.Hour, EntryTTL: time.Millisecond})
	defer rl.Stop()

	rl.getLimiter("10.0.0.1")
	time.Sleep(5 * time.Millisecond)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.limiters) != 0 {
		t.Fatalf("expected stale entries removed, got %d", len(rl.limiters))
	}
}

func TestRateLimiterConfigFrom(t *testing.T) {
	got := RateLimiterConfigFrom(config.RateLimitConfig{Requests: 300, Duration: 60})
	if got.RequestsPerSecond != 5 || got.BurstSize != 300 {
		t.Fatalf("unexpected config %+v", got)
	}
	if def := RateLimiterConfigFrom(config.RateLimitConfig{}); def != DefaultRateLimiterConfig() {
		t.Fatalf("expected defaults for an empty config, got %+v", def)
	}
}

type tokenFunc func() (*oauth2.Token, error)

func (f tokenFunc) Token() (*oauth2.Token, error) { return f() }

func TestRequireSession(t *testing.T) {
	active := false
	tokens := tokenFunc(func() (*oauth2.Token, error) {
		if !active {
			return nil, apperror.ErrNoSession
		}
		return &oauth2.Token{AccessToken: "t"}, nil
	})

	r := gin.New()
	r.Use(RequireSession(tokens))
	r.GET("/bills", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, http.MethodGet, "/bills"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}
	active = true
	if w := serve(r, http.MethodGet, "/bills"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with a token, got %d", w.Code)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(LoggerMiddleware(logger))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	w := serve(r, http.MethodGet, "/boom")
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error log for a 502, got %+v", entry)
	}
	if entry.Data["status"] != http.StatusBadGateway || entry.Data["route"] != "/boom" {
		t.Fatalf("unexpected fields %v", entry.Data)
	}
}

func TestRequestHashDependsOnBody(t *testing.T) {
	a := requestHash(http.MethodPost, "/submit", []byte(`{"notes":"a"}`))
	b := requestHash(http.MethodPost, "/submit", []byte(`{"notes":"b"}`))
	if a == b || len(a) != 64 {
		t.Fatalf("expected distinct 256-bit hashes, got %s %s", a, b)
	}
}
