// Package router maps the HTTP surface onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sqlbay/sqlbay/internal/config"
	"github.com/sqlbay/sqlbay/internal/handler"
	"github.com/sqlbay/sqlbay/internal/middleware"
)

// Register wires every route.  The credential endpoints (register/login)
// sit behind the rate limiter; everything under /project and the session
// endpoints require authentication.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client,
	auth *handler.AuthHandler, projects *handler.ProjectHandler, conns *handler.ConnectionHandler) {

	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	authenticated := middleware.Auth(cfg.JWTSecret)

	u := e.Group("/user")
	u.POST("/register", auth.Register, limiter)
	u.POST("/login", auth.Login, limiter)
	u.POST("/logout", auth.Logout, authenticated)
	u.GET("/me", auth.Me, authenticated)
	u.PATCH("/me/update", auth.UpdateMe, authenticated)

	p := e.Group("/project", authenticated)
	p.GET("", projects.List)
	p.POST("", projects.Create)
	p.GET("/:projectId", projects.Get)
	p.PATCH("/:projectId", projects.Update)
	p.DELETE("/:projectId", projects.Delete)
	p.PUT("/:projectId/db-connection", conns.Upsert)
	p.GET("/:projectId/db-connection/test", conns.Test)
}
