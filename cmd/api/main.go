package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/app"
	"github.com/ann82/dv-assistant-sub003/internal/config"
	"github.com/ann82/dv-assistant-sub003/internal/handler"
	"github.com/ann82/dv-assistant-sub003/internal/logging"
	"github.com/ann82/dv-assistant-sub003/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Warnf("failed to load .env file, continuing with system environment variables only: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logging.Setup(cfg.Log)

	observability.SetMetricsEnabled(cfg.Metrics.Enabled)
	if cfg.Metrics.Enabled {
		observability.RegisterMetrics()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	router := handler.NewRouter(a.Engine, handler.Options{MetricsEnabled: cfg.Metrics.Enabled})
	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Infof("DV assistant listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
