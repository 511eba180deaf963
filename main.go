package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/handlers"
	"github.com/giygas/prescriptions-api/llm"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/prescription"
	"github.com/giygas/prescriptions-api/scheduler"
	"github.com/giygas/prescriptions-api/server"
	"github.com/joho/godotenv"
)

// loadEnv reads .env from the working directory, falling back to the
// executable's directory
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		slog.Warn("Failed to get executable path", "error", err)
		return
	}
	if err := godotenv.Load(filepath.Join(filepath.Dir(ex), ".env")); err != nil {
		slog.Info("No .env file found, using process environment")
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("Prescriptions API stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.InitLoggerWithConfig(cfg)
	defer logging.Close()

	generator, err := llm.New(context.Background(), cfg.LLM)
	if err != nil {
		return fmt.Errorf("create %s generator: %w", cfg.LLM.Provider, err)
	}
	defer generator.Close()

	service := prescription.NewService(generator, prescription.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})

	srv := server.NewServer(cfg, handlers.NewHTTPHandler(service))

	sched := scheduler.NewScheduler(srv.RateLimiter(), logging.CleanupOldLogs)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	logging.Info("Prescriptions API configured",
		"env", cfg.Env.String(),
		"provider", generator.Name(),
		"model", cfg.LLM.Model(),
		"timeout", cfg.LLM.Timeout.String(),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
