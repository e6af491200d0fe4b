package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funding-arb-bot/internal/app"
	"funding-arb-bot/internal/config"
	"funding-arb-bot/internal/logging"
	"funding-arb-bot/internal/metrics"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	envPath := flag.String("env", ".env", "path to the env file holding credentials")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	if err := config.LoadEnv(envPath); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return err
	}

	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewNoop()
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheus()
		m = prom.Metrics
		server := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: prom.Handler()}
		go func() {
			log.Info("metrics listening", zap.String("addr", cfg.Metrics.ListenAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	bot, err := app.New(ctx, cfg, creds, log, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			log.Warn("shutdown cleanup failed", zap.Error(err))
		}
	}()

	log.Info("funding arb bot starting",
		zap.Int("pairs", len(cfg.Pairs)),
		zap.Float64("notional_usd", cfg.Strategy.NotionalUSD),
	)
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("funding arb bot stopped")
	return nil
}
