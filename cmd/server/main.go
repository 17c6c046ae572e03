package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/babybento/aeo-command/internal/api"
	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/collector"
	"github.com/babybento/aeo-command/internal/config"
	"github.com/babybento/aeo-command/internal/gsc"
	"github.com/babybento/aeo-command/internal/insights"
	"github.com/babybento/aeo-command/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog from %s: %w", cfg.Catalog.Path, err)
	}
	logger.Info("loaded catalog file", "path", cfg.Catalog.Path, "nodes", cat.Len())
	return cat, nil
}

func buildInsights(ctx context.Context, cfg *config.Config) (*insights.Service, error) {
	var provider insights.Provider
	switch cfg.Insights.Provider {
	case "bedrock":
		p, err := insights.NewBedrockProvider(ctx, cfg.Bedrock.ModelID, cfg.Bedrock.Region)
		if err != nil {
			return nil, err
		}
		provider = p
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			logger.Warn("GEMINI_API_KEY not set, insights endpoint will be unavailable")
			return nil, nil
		}
		p, err := insights.NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout())
		if err != nil {
			return nil, err
		}
		if cfg.Gemini.BaseURL != "" {
			p.SetBaseURL(cfg.Gemini.BaseURL)
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown insights provider %q", cfg.Insights.Provider)
	}

	return insights.NewService(provider, "Baby Bento", cfg.GSC.SiteURL)
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := checkPortAvailable(cfg.Server.GetHost(), cfg.Server.Port); err != nil {
		logger.Error("port check failed", "error", err)
		os.Exit(1)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	var cache gsc.Cache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, running without fetch cache", "error", err)
		} else {
			cache = gsc.NewRedisCache(redisClient)
			logger.Info("redis fetch cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	gscClient, err := gsc.NewClient(cfg.GSC, cache, cfg.Redis.TTL())
	if err != nil {
		logger.Error("failed to create search console client", "error", err)
		os.Exit(1)
	}

	coll := collector.New(gscClient, cat, cfg.Polling.Interval())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	insightsSvc, err := buildInsights(ctx, cfg)
	if err != nil {
		logger.Error("failed to configure insights provider", "error", err)
		os.Exit(1)
	}

	if cfg.Polling.Enabled {
		go coll.Start(ctx)
	} else {
		go func() {
			if err := coll.Refresh(ctx); err != nil {
				logger.Warn("initial fetch failed", "error", err)
			}
		}()
	}

	handlers := api.NewHandlers(coll, cat, insightsSvc)
	router := api.SetupRoutes(handlers, cfg.Server.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
