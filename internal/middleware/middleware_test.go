package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	user *domain.User
	err  error
}

func (s stubResolver) Resolve(_ context.Context, token string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != "good" {
		return nil, service.ErrUnauthorized
	}
	return s.user, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"Bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
		"bearer abc":   "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(req), "header %q", header)
	}
}

func TestAuth(t *testing.T) {
	user := &domain.User{ID: "u1", Name: "Ann"}

	newRouter := func(resolver UserResolver) *gin.Engine {
		r := gin.New()
		r.GET("/me", Auth(resolver), func(c *gin.Context) {
			c.String(http.StatusOK, CurrentUser(c).ID+":"+c.GetString(userIDContextKey))
		})
		return r
	}

	t.Run("missing token", func(t *testing.T) {
		rec := serve(newRouter(stubResolver{user: user}), httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := serve(newRouter(stubResolver{user: user}), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("resolver failure is a 500", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := serve(newRouter(stubResolver{err: errors.New("db down")}), req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := serve(newRouter(stubResolver{user: user}), req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1:u1", rec.Body.String())
	})
}

func TestCurrentUser_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDContextKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := serve(r, req)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
	assert.Equal(t, "req-123", rec.Body.String())

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(0.001, 2)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/bounded", Timeout(50*time.Millisecond), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusNoContent)
	})
	r.GET("/unbounded", Timeout(0), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/bounded", nil)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/unbounded", nil)).Code)
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	log := logrus.New()
	var buf strings.Builder
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"path":"/boom"`)
}

func TestRequestLogger_RedactsTokenParameter(t *testing.T) {
	log := logrus.New()
	var buf strings.Builder
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/api/chat/ws", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/chat/ws?token=eyJSECRET&ride_id=r1", nil))

	out := buf.String()
	assert.NotContains(t, out, "eyJSECRET")
	assert.Contains(t, out, "token=REDACTED")
	assert.Contains(t, out, "ride_id=r1")
}

// ──────────────────────────────────────────────
// IDEMPOTENCY
// ──────────────────────────────────────────────

func newIdempotentRouter(t *testing.T) (*gin.Engine, *miniredis.Miniredis, *int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var calls int32
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			SetUser(c, &domain.User{ID: id})
		}
		c.Next()
	})
	r.Use(IdempotencyMiddleware(client, internalRedis.NewLockStore(client), quietLogger()))
	r.POST("/bookings", func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})
	return r, mr, &calls
}

func idempotentRequest(user, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	r, _, calls := newIdempotentRouter(t)

	first := serve(r, idempotentRequest("u1", "k1"))
	second := serve(r, idempotentRequest("u1", "k1"))

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	serve(r, idempotentRequest("u1", "k2"))
	serve(r, idempotentRequest("u1", ""))
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))

	// Same key from another user is a different request.
	other := serve(r, idempotentRequest("u2", "k1"))
	assert.Empty(t, other.Header().Get("Idempotent-Replayed"))
	assert.EqualValues(t, 4, atomic.LoadInt32(calls))
}

func TestIdempotency_AnonymousRequestsAreNeverReplayed(t *testing.T) {
	r, mr, calls := newIdempotentRouter(t)

	first := serve(r, idempotentRequest("", "k1"))
	second := serve(r, idempotentRequest("", "k1"))

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get("Idempotent-Replayed"))
	assert.NotEqual(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
	assert.Empty(t, mr.Keys())
}

func TestIdempotency_InFlightDuplicateConflicts(t *testing.T) {
	r, mr, calls := newIdempotentRouter(t)
	require.NoError(t, mr.Set("lock:idempotency:u1:POST:/bookings:k1", "1"))

	rec := serve(r, idempotentRequest("u1", "k1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}
