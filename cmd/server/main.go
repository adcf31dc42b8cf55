package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"retailpos/m/internal/api"
	"retailpos/m/internal/catalog"
	"retailpos/m/internal/config"
	"retailpos/m/internal/database"
	"retailpos/m/internal/migrations"
	"retailpos/m/internal/mirror"
	"retailpos/m/internal/sales"
	"retailpos/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	seed.LoadProducts(db, cfg.ProductCSV, logger)

	sink, err := mirror.New(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to initialise mirror sink", zap.Error(err))
	}

	store := catalog.New(db)
	engine := sales.NewEngine(db, store, sink, logger)
	handler := api.New(store, engine, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("POS server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
