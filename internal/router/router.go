package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/renovahub/renewal-api/internal/middleware"
	"github.com/renovahub/renewal-api/internal/model"
)

// Handler is anything that can wire its routes into a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AdminHandler additionally exposes routes restricted to administrators.
type AdminHandler interface {
	RegisterAdminRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	db     *sqlx.DB

	authH         Handler
	licenseH      Handler
	userH         AdminHandler
	userSelfH     Handler
	notificationH Handler
	integrationH  Handler
	emailCfgH     Handler

	registry *prometheus.Registry
}

func New(
	auth *middleware.AuthMiddleware,
	db *sqlx.DB,
	authH Handler,
	licenseH Handler,
	userH interface {
		Handler
		AdminHandler
	},
	notificationH Handler,
	integrationH Handler,
	emailCfgH Handler,
	registry *prometheus.Registry,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.CORS(cfg.CORSConfig),
	)

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine:        engine,
		auth:          auth,
		db:            db,
		authH:         authH,
		licenseH:      licenseH,
		userH:         userH,
		userSelfH:     userH,
		notificationH: notificationH,
		integrationH:  integrationH,
		emailCfgH:     emailCfgH,
		registry:      registry,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.healthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api/v1")

	// public
	r.authH.RegisterRoutes(api)

	// authenticated
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.licenseH.RegisterRoutes(protected)
	r.userSelfH.RegisterRoutes(protected)

	// administrators only
	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(model.RoleAdministrator))
	r.userH.RegisterAdminRoutes(admin)
	r.notificationH.RegisterRoutes(admin)
	r.integrationH.RegisterRoutes(admin)
	r.emailCfgH.RegisterRoutes(admin)
}

func (r *Router) healthCheck(c *gin.Context) {
	if err := r.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
