package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"studyroom-backend/internal/auth"
	"studyroom-backend/internal/mw"
)

// RouterOptions tunes the middleware in front of the handlers.
type RouterOptions struct {
	RateLimit rate.Limit
	Burst     int
	// CacheTTL is how long slot listings are cached. Zero disables caching.
	CacheTTL time.Duration
	// Gatherer backs GET /metrics. Nil omits the endpoint.
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, guard auth.Guard, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(10)
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	rateLimiter := mw.RateLimiter(opts.RateLimit, opts.Burst)
	authenticated := mw.Authenticate(guard)

	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL+time.Minute)
	caching := mw.Cache(cacheStore, opts.CacheTTL)
	r.Use(mw.FlushOnMutation(cacheStore))

	r.GET("/healthz", h.Healthz)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// Public endpoints are limited per IP.
	public := r.Group("/")
	public.Use(rateLimiter)
	{
		public.GET("/rooms", caching, h.ListRooms)
		public.GET("/rooms/:roomId", caching, h.GetRoom)
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
	}

	// Authenticated endpoints are limited per account.
	private := r.Group("/")
	private.Use(authenticated, rateLimiter)
	{
		private.PUT("/rooms/slot/:slotId", h.UpdateSlotStatus)

		private.POST("/bookings", h.CreateBooking)
		private.GET("/bookings", h.ListBookings)
		private.DELETE("/bookings/:id", h.CancelBooking)

		private.GET("/admin/consistency", h.Consistency)
	}

	return r
}
