package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flux_irrigation/internal/config"
	"flux_irrigation/internal/handlers"
	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/proxy"
	"flux_irrigation/internal/repository"
	"flux_irrigation/internal/repository/db"
	"flux_irrigation/internal/server"
	"flux_irrigation/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title                       Flux Irrigation API
// @version                     1.0
// @description                 Homeowner and management federation API for Flux irrigation systems.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	configDir := flag.String("config", "configs", "directory holding config.yml")
	flag.Parse()

	// load config.yml
	cfg, err := config.Load(*configDir)
	if err != nil {
		logger.New(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	// open DB
	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer closeDB(sqlDB, log)

	// wire dependencies
	repos := repository.NewRepository(sqlDB, cfg.DataDir, log)
	relay := proxy.NewClient(cfg.Proxy.Timeout, cfg.Proxy.InsecureSkipVerify, log.Named("proxy"))
	services := service.NewService(repos, relay, cfg, log)
	apiHandler := handlers.NewHandler(services, handlers.Options{
		Mode:               cfg.Mode,
		APIKey:             cfg.Homeowner.APIKey,
		RateLimitPerMinute: cfg.RateLimit.PerMinute,
	}, log.Named("http"))

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsManagement() {
		go services.Poller.Run(ctx, cfg.Management.PollInterval)
		log.Infow("poller_started", "interval", cfg.Management.PollInterval, "concurrency", cfg.Management.PollConcurrency)
	} else if cfg.Homeowner.APIKey == "" {
		log.Warnw("homeowner.api_key is empty; management requests will be rejected")
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func closeDB(sqlDB *sql.DB, log *logger.Logger) {
	if err := sqlDB.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg *config.Config, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", cfg.Port, "mode", cfg.Mode)
		err := srv.Run(cfg.Port, handler.InitRoutes(), cfg.Proxy.Timeout)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
