package mw_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"studyroom-backend/internal/auth"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/mw"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCache_FlushedAfterMutation(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	hits := 0
	status := "Available"

	r := gin.New()
	r.Use(mw.FlushOnMutation(store))
	r.GET("/rooms", mw.Cache(store, time.Minute), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"status": status})
	})
	r.POST("/bookings", func(c *gin.Context) {
		status = "Booked"
		c.Status(http.StatusCreated)
	})
	r.POST("/broken", func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	first := serve(r, http.MethodGet, "/rooms", "")
	second := serve(r, http.MethodGet, "/rooms", "")
	assert.Equal(t, 1, hits)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	serve(r, http.MethodPost, "/broken", "")
	serve(r, http.MethodGet, "/rooms", "")
	assert.Equal(t, 1, hits, "failed mutations keep the cache")

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/bookings", "").Code)
	third := serve(r, http.MethodGet, "/rooms", "")
	assert.Equal(t, 2, hits)
	assert.Contains(t, third.Body.String(), "Booked")
}

func TestRateLimiter_PerClient(t *testing.T) {
	r := gin.New()
	r.GET("/rooms", mw.RateLimiter(rate.Limit(0.001), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/rooms", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/rooms", "").Code)
	w := serve(r, http.MethodGet, "/rooms", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestClientRateLimiter_ReusesLimiter(t *testing.T) {
	l := mw.NewClientRateLimiter(rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("ip:10.0.0.1"), l.GetLimiter("ip:10.0.0.1"))
	assert.NotSame(t, l.GetLimiter("ip:10.0.0.1"), l.GetLimiter("account:alice"))
}

type stubGuard struct{}

func (stubGuard) Authenticate(_ context.Context, header string) (auth.Principal, error) {
	switch header {
	case "":
		return auth.Principal{}, auth.ErrUnauthenticated
	case "Bearer good":
		return auth.Principal{AccountID: "acc-1", Role: model.RoleStudent}, nil
	default:
		return auth.Principal{}, auth.ErrInvalidToken
	}
}

func TestAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/bookings", mw.Authenticate(stubGuard{}), func(c *gin.Context) {
		p, ok := auth.PrincipalFrom(c.Request.Context())
		require.True(t, ok)
		c.String(http.StatusOK, p.AccountID)
	})

	w := serve(r, http.MethodGet, "/bookings", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acc-1", w.Body.String())

	w = serve(r, http.MethodGet, "/bookings", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = serve(r, http.MethodGet, "/bookings", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, w.Body.String())
}
