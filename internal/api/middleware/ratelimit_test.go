package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-ledger/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	args := m.Called(ctx, key)
	return redis.NewIntResult(args.Get(0).(int64), args.Error(1))
}

func (m *MockCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, expiration)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInMemoryRateLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2}
	rl := newRateLimiterMiddleware(cfg, nil, discardLogger())
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "127.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "127.0.0.1:1000").Code)

	rec := doRequest(h, "127.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":{"message":"Rate limit exceeded"}}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.9:1000").Code, "other clients have their own bucket")
}

func TestRateLimiterDisabled(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false, RPS: 1, Burst: 1}
	rl := newRateLimiterMiddleware(cfg, nil, discardLogger())

	h := rl.Middleware(okHandler())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "127.0.0.1:1000").Code)
	}
}

func TestRedisRateLimiter(t *testing.T) {
	const key = "loan-ledger:ratelimit:192.0.2.10"
	cfg := config.RateLimitConfig{Enabled: true, RPS: 2, Burst: 2}

	t.Run("first hit sets the window and later hits over the limit are rejected", func(t *testing.T) {
		counter := new(MockCounter)
		counter.On("Incr", mock.Anything, key).Return(int64(1), nil).Once()
		counter.On("Expire", mock.Anything, key, time.Second).Return(true, nil).Once()
		counter.On("Incr", mock.Anything, key).Return(int64(2), nil).Once()
		counter.On("Incr", mock.Anything, key).Return(int64(3), nil).Once()

		h := newRateLimiterMiddleware(cfg, counter, discardLogger()).Middleware(okHandler())

		assert.Equal(t, http.StatusOK, doRequest(h, "192.0.2.10:5000").Code)
		assert.Equal(t, http.StatusOK, doRequest(h, "192.0.2.10:5000").Code)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "192.0.2.10:5000").Code)
		counter.AssertExpectations(t)
	})

	t.Run("fails open when redis errors", func(t *testing.T) {
		counter := new(MockCounter)
		counter.On("Incr", mock.Anything, key).Return(int64(0), errors.New("connection refused")).Once()

		h := newRateLimiterMiddleware(cfg, counter, discardLogger()).Middleware(okHandler())

		assert.Equal(t, http.StatusOK, doRequest(h, "192.0.2.10:5000").Code)
		counter.AssertExpectations(t)
	})
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{"forwarded for wins", "203.0.113.5, 10.0.0.1", "198.51.100.1", "127.0.0.1:80", "203.0.113.5"},
		{"invalid forwarded for falls through", "not-an-ip", "198.51.100.1", "127.0.0.1:80", "198.51.100.1"},
		{"remote addr host", "", "", "127.0.0.1:80", "127.0.0.1"},
		{"remote addr without port", "", "", "127.0.0.1", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			assert.Equal(t, tt.want, extractIP(req))
		})
	}
}
