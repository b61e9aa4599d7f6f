package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salonkit/salon-api/internal/config"
	"github.com/salonkit/salon-api/internal/middleware"
	"github.com/salonkit/salon-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	healthH       Handler
	appointmentH  Handler
	availabilityH Handler
	attendanceH   Handler
	metrics       *metrics.Metrics
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH Handler,
	appointmentH Handler,
	availabilityH Handler,
	attendanceH Handler,
	m *metrics.Metrics,
	cfg *config.Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		healthH:       healthH,
		appointmentH:  appointmentH,
		availabilityH: availabilityH,
		attendanceH:   attendanceH,
		metrics:       m,
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{
			Duration: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		}),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	{
		r.appointmentH.RegisterRoutes(protected)
		r.availabilityH.RegisterRoutes(protected)
		r.attendanceH.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(r.metrics.HTTPLatency.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		))
		defer timer.ObserveDuration()

		c.Next()

		r.metrics.HTTPRequests.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
