// roastd runs the headless RoastApp client: it restores the session,
// subscribes to the realtime feed, and serves the local status surface
// until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/roastlabs/roastapp-client/internal/app"
	"github.com/roastlabs/roastapp-client/internal/config"
	"github.com/roastlabs/roastapp-client/internal/httpapi"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		envFile    = flag.String("env", "", "Path to .env file with ROASTAPP_* variables")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("load env (%s): %v", *envFile, err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New("roastd", cfg.LogLevel)

	client, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("build client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Init(ctx); err != nil {
		log.Fatalf("init client: %v", err)
	}
	defer client.Teardown()

	var status *httpapi.Server
	if cfg.Status.Addr != "" {
		status = httpapi.New(cfg.Status.Addr, client.Sessions(), client.Metrics().Registry(), logging.Named(logger, "status"))
		go func() {
			if err := status.Start(); err != nil {
				logger.Error("status server failed", "err", err)
				stop()
			}
		}()
	}

	logger.Info("roastd running",
		"backend", cfg.Backend.ProjectURL,
		"status_addr", cfg.Status.Addr,
		"realtime", cfg.Realtime.Enabled)

	<-ctx.Done()
	logger.Info("shutting down")

	if status != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := status.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown failed", "err", err)
		}
	}
}
