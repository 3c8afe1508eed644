package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/logger"
	"github.com/acheong08/pkgdrift/internal/server"
	"github.com/acheong08/pkgdrift/internal/tree"
)

// Config holds all environment configuration
type Config struct {
	// Server
	Port     string
	LogLevel string

	// Project
	Root     string
	Lockfile string
	Tree     tree.Options
}

func loadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("PKGDRIFT_LOG_LEVEL", "info"),
		Root:     getEnv("PKGDRIFT_ROOT", "."),
		Lockfile: getEnv("PKGDRIFT_LOCKFILE", ""),
		Tree:     tree.DefaultOptions(),
	}

	if depth := getEnv("PKGDRIFT_DEPTH", ""); depth != "" {
		d, err := strconv.Atoi(depth)
		if err != nil || d < -1 {
			return nil, fmt.Errorf("%w: PKGDRIFT_DEPTH must be an integer >= -1, got %q", errUtils.ErrInvalidConfig, depth)
		}
		config.Tree.MaxDepth = d
	}

	if _, err := os.Stat(config.Root); err != nil {
		return nil, fmt.Errorf("%w: PKGDRIFT_ROOT %s: %v", errUtils.ErrInvalidConfig, config.Root, err)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	if _, err := logger.Setup(config.LogLevel, os.Stderr); err != nil {
		log.Fatal("Failed to set up logging", "error", err)
	}

	srv := &http.Server{
		Addr: ":" + config.Port,
		Handler: server.NewHandler(server.Config{
			Root:     config.Root,
			Lockfile: config.Lockfile,
			Tree:     config.Tree,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Server starting", "port", config.Port, "root", config.Root)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed", "error", err)
	}
}
