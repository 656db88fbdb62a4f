package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/orally-backend/pkg/clientip"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func request(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPLimiter_PerIP(t *testing.T) {
	l := NewIPLimiter(rate.Every(time.Hour), 2, time.Minute, nil)
	h := l.Middleware(ok)

	assert.Equal(t, http.StatusNoContent, request(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, request(h, "10.0.0.1:1001").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(h, "10.0.0.1:1002").Code)
	assert.Equal(t, http.StatusNoContent, request(h, "10.0.0.2:1000").Code)
}

func TestIPLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPLimiter(rate.Every(time.Hour), 1, time.Minute, nil)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(30 * time.Second)
	l.Allow("b")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	// a starts over with a full bucket.
	assert.True(t, l.Allow("a"))
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.orally.app")(ok)

	req := httptest.NewRequest(http.MethodGet, "http://api.orally.app:8080/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "http://evil.example/health", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	HostCheck("")(ok).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := request(SecurityHeaders(ok), "10.0.0.1:1")
	assert.Equal(t, "nosniff", rec.Header().Get(headerXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(headerXFrameOptions))
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Origin", "http://other.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := NewRedisLimiter(rdb, time.Minute, 2, nil, nil).Middleware(ok)

	first := request(h, "10.0.0.1:1")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusNoContent, request(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(h, "10.0.0.1:1").Code)

	ttl := mr.TTL(RateLimitKeyPrefix + "10.0.0.1")
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusNoContent, request(h, "10.0.0.1:1").Code)
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	rec := request(NewRedisLimiter(rdb, time.Minute, 1, nil, nil).Middleware(ok), "10.0.0.1:1")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIPLimiter_TrustedProxy(t *testing.T) {
	ips, err := clientip.New([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	h := NewIPLimiter(rate.Every(time.Hour), 1, time.Minute, ips).Middleware(ok)

	forwarded := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
		req.RemoteAddr = "10.0.0.2:443"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, forwarded("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, forwarded("198.51.100.1"))
	// Another client behind the same proxy has its own bucket.
	assert.Equal(t, http.StatusNoContent, forwarded("198.51.100.2"))
}

func TestRedisLimiter_WindowDoesNotSlide(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	l := NewRedisLimiter(rdb, time.Minute, 10, nil, nil)
	ctx := context.Background()
	key := RateLimitKeyPrefix + "10.0.0.1"

	count, err := l.Hit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(20 * time.Second)
	count, err = l.Hit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 40*time.Second, mr.TTL(key))

	mr.FastForward(40 * time.Second)
	assert.False(t, mr.Exists(key))
	count, err = l.Hit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
