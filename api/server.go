package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgmu/planttracker/api/database"
	"github.com/mgmu/planttracker/api/handlers"
	"github.com/mgmu/planttracker/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := cfg.Logger()
	slog.SetDefault(logger)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Connect(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to %s database: %w", cfg.DBDriver, err)
	}
	defer db.Close()
	logger.Info("database ready", "driver", cfg.DBDriver)

	httpServer := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           handlers.NewRouter(db, cfg.APIPrefix, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("plant store listening", "addr", cfg.APIAddr, "prefix", cfg.APIPrefix)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-exit:
		logger.Info("Signal caught", "sig", sig)
	case err := <-errc:
		return fmt.Errorf("server listen failed: %w", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func openDatabase(cfg config.AppConfig) (database.Database, error) {
	switch cfg.DBDriver {
	case "memory":
		return database.NewMemoryDatabase(), nil
	case "sqlite":
		return database.NewSQLiteDatabase(cfg.DBPath), nil
	case "postgres":
		return database.NewPostgresDatabase(cfg.DBURL), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
}
