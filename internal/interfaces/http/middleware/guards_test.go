package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/halo-extras/backend/internal/interfaces/http/dto"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	ok, remaining, _ := rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, remaining, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	ok, _, _ = rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "window resets")
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewRedisRateLimiter(client, "halo:", 2, time.Minute)
	ctx := context.Background()

	for i := range 2 {
		ok, remaining, err := rl.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1-i, remaining)
	}
	ok, _, err := rl.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("halo:ratelimit:ip"))

	mr.FastForward(time.Minute + time.Second)
	ok, _, err = rl.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	r := gin.New()
	r.Use(RateLimit(NewRedisRateLimiter(client, "", 1, time.Minute), nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.Use(RequestID(), RateLimit(rl, nil))
	r.POST("/api/v1/conversation", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/conversation", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/conversation", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, dto.ErrCodeRateLimited, body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		buf := make([]byte, 64)
		n, err := c.Request.Body.Read(buf)
		if err != nil && n == 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, string(buf[:n]))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "small", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too large body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeFileTooLarge)
}

type validationRequest struct {
	Name  string `json:"name" binding:"required,max=5"`
	Count int    `json:"count" binding:"gte=1"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	r := gin.New()
	r.Use(RequestID())
	r.POST("/", func(c *gin.Context) {
		var req validationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolong","count":0}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, dto.ErrCodeValidation, body.Error.Code)
	assert.ElementsMatch(t, []dto.ValidationDetail{
		{Field: "name", Message: "Must be at most 5 characters"},
		{Field: "count", Message: "Must be greater than or equal to 1"},
	}, body.Error.Details)
}

func TestSwaggerProtection(t *testing.T) {
	newRouter := func(cfg SwaggerConfig, jwt gin.HandlerFunc) *gin.Engine {
		r := gin.New()
		r.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}
	get := func(r *gin.Engine, remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, get(newRouter(SwaggerConfig{}, nil), "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, get(newRouter(SwaggerConfig{Enabled: true}, nil), "10.0.0.1:1234"))

	allowlisted := newRouter(SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8", "192.168.1.5", "bogus"}}, nil)
	assert.Equal(t, http.StatusOK, get(allowlisted, "10.2.3.4:1234"))
	assert.Equal(t, http.StatusOK, get(allowlisted, "192.168.1.5:1234"))
	assert.Equal(t, http.StatusForbidden, get(allowlisted, "172.16.0.1:1234"))

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	assert.Equal(t, http.StatusUnauthorized, get(newRouter(SwaggerConfig{Enabled: true, RequireAuth: true}, deny), "10.0.0.1:1234"))
}
