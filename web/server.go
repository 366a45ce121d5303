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

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/mgmu/planttracker/internal/config"
	"github.com/mgmu/planttracker/internal/controller"
	"github.com/mgmu/planttracker/internal/storeclient"
	"github.com/mgmu/planttracker/web/handlers"
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

	store, err := storeclient.New(cfg.StoreURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
	if err != nil {
		return err
	}
	renderer, err := handlers.NewRenderer()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	env := handlers.New(controller.New(store, logger), logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info("handled",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"duration", v.Latency,
			)
			return nil
		},
	}))
	env.Register(e)

	errc := make(chan error, 1)
	go func() {
		logger.Info("web front-end listening", "addr", cfg.WebAddr, "store", cfg.StoreURL)
		if err := e.Start(cfg.WebAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
