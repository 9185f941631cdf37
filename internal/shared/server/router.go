// Package server assembles the Gin engine from handlers and middleware.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gtakpsi-software-dev/resume-app/internal/shared/auth"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/config"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/metrics"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server/middleware"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server/respond"
)

// RouteRegistrar attaches routes that distinguish public from
// session-protected endpoints.
type RouteRegistrar interface {
	RegisterRoutes(public, authed *gin.RouterGroup)
}

// RouterDeps carries everything NewRouter needs.
type RouterDeps struct {
	Config       config.Config
	Tokens       *auth.Service
	ResumeRoutes RouteRegistrar
	AuthRoutes   RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	public := r.Group("/api")
	authed := r.Group("/api", middleware.Auth(deps.Tokens))

	if deps.AuthRoutes != nil {
		deps.AuthRoutes.RegisterRoutes(public, authed)
	}
	if deps.ResumeRoutes != nil {
		deps.ResumeRoutes.RegisterRoutes(public, authed)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
