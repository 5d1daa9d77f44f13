package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sqlbay/sqlbay/internal/config"
	"github.com/sqlbay/sqlbay/internal/database"
	"github.com/sqlbay/sqlbay/internal/handler"
	"github.com/sqlbay/sqlbay/internal/logger"
	"github.com/sqlbay/sqlbay/internal/middleware"
	"github.com/sqlbay/sqlbay/internal/queue"
	"github.com/sqlbay/sqlbay/internal/repository"
	"github.com/sqlbay/sqlbay/internal/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.New(cfg.IsProd())
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database open failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting disabled")
	}

	events := queue.NewPublisher(log)
	go queue.StartAuditConsumer(log)

	users := repository.NewUserRepo(db)
	projects := repository.NewProjectRepo(db)
	connections := repository.NewConnectionRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, events)
	projectHandler := handler.NewProjectHandler(projects)
	connHandler := handler.NewConnectionHandler(cfg, projects, connections,
		handler.PgProber{Timeout: cfg.ProbeTimeout}, events)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log, cfg.IsProd())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(log))
	e.Use(echomw.Recover())

	router.Register(e, cfg, rdb, authHandler, projectHandler, connHandler)

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
