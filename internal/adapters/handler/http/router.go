package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/adapters/handler/http/middleware"
)

const (
	healthTimeout = 2 * time.Second

	statusConnected   = "connected"
	statusUnreachable = "unreachable"
	statusDisabled    = "disabled"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterDependencies struct {
	AuthHandler        *AuthHandler
	HabitHandler       *HabitHandler
	EntryHandler       *EntryHandler
	StatsHandler       *StatsHandler
	AchievementHandler *AchievementHandler
	TokenValidator     middleware.TokenValidator

	// DB and Redis are optional. A nil value is reported as disabled.
	DB    Pinger
	Redis *redis.Client

	AllowOrigins []string
	RateLimit    int
	RateWindow   time.Duration
	StartTime    time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept-Encoding", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(deps.AllowOrigins) == 0 || (len(deps.AllowOrigins) == 1 && deps.AllowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.AllowOrigins
	}
	router.Use(cors.New(corsConfig))

	if deps.Redis != nil && deps.RateLimit > 0 {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, deps.RateWindow))
	}

	router.GET("/health", health(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenValidator))
	{
		deps.AuthHandler.RegisterProfileRoutes(protected)
		deps.HabitHandler.RegisterRoutes(protected)
		deps.EntryHandler.RegisterRoutes(protected)
		deps.StatsHandler.RegisterRoutes(protected)
		deps.AchievementHandler.RegisterRoutes(protected)
	}

	return router
}

func health(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		dbStatus := statusDisabled
		if deps.DB != nil {
			dbStatus = probe(deps.DB.PingContext(ctx))
		}

		redisStatus := statusDisabled
		if deps.Redis != nil {
			redisStatus = probe(deps.Redis.Ping(ctx).Err())
		}

		code, status := http.StatusOK, "ok"
		if dbStatus == statusUnreachable || redisStatus == statusUnreachable {
			code, status = http.StatusServiceUnavailable, "degraded"
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).Round(time.Second).String(),
		})
	}
}

func probe(err error) string {
	if err != nil {
		return statusUnreachable
	}
	return statusConnected
}
