package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/zahrat-boutique/api/internal/advisor"
	"github.com/zahrat-boutique/api/internal/config"
	"github.com/zahrat-boutique/api/internal/router"
	"github.com/zahrat-boutique/api/internal/service"
	"github.com/zahrat-boutique/api/internal/store/postgres"
	"github.com/zahrat-boutique/api/internal/ws"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg := config.Load()

	// Run database migrations before opening the pool.
	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create database pool")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ping database")
	}
	logger.Info("Connected to database")

	store := postgres.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	adviser := advisor.NewClient(cfg.AdvisorURL, cfg.AdvisorTimeout, logger)
	orderSvc := service.NewOrderService(store, store, hub, logger)

	r := router.New(cfg, store, orderSvc, adviser, hub)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
	logger.Info("Server exited")
}
