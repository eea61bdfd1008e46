package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/estatehub/auth-service/internal/api/http/handler"
	"github.com/estatehub/auth-service/internal/api/http/middleware"
	"github.com/estatehub/auth-service/internal/logger"
	"github.com/estatehub/auth-service/internal/metrics"
)

// Router assembles middleware and handlers into a gin engine.
type Router struct {
	auth         *handler.Auth
	authenticate *middleware.Authenticate
	registry     *prometheus.Registry
	logger       *logger.Logger
}

func New(auth *handler.Auth, authenticate *middleware.Authenticate, registry *prometheus.Registry, logger *logger.Logger) *Router {
	return &Router{
		auth:         auth,
		authenticate: authenticate,
		registry:     registry,
		logger:       logger,
	}
}

// Register wires all routes and returns the engine.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logging(r.logger))
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler(r.registry)))

	api := engine.Group("/api/auth")
	{
		api.POST("/register", r.auth.Register)
		api.POST("/login", r.auth.Login)
		api.POST("/refresh", r.auth.Refresh)
		api.POST("/logout", r.auth.Logout)

		authorized := api.Group("")
		authorized.Use(r.authenticate.Handler())
		authorized.GET("/me", r.auth.Me)
		authorized.POST("/change-password", r.auth.ChangePassword)
	}

	return engine
}
