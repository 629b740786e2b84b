package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marketplace/internal/allowlist"
	"marketplace/internal/auth"
	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/handler"
	"marketplace/internal/repository"
	"marketplace/internal/router"
	"marketplace/internal/service"
	"marketplace/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting marketplace API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	productCache, closeCache := newProductCache(ctx, cfg.Redis, logger)
	defer closeCache()

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	loader := newAllowListLoader(ctx, cfg.Import, logger)

	sellerRepo := repository.NewSellerRepository(pool, logger)
	customerRepo := repository.NewCustomerRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	catalog := service.NewCatalog(productRepo, productCache, logger)

	authService := service.NewAuthService(sellerRepo, customerRepo, tokens, 0, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	customerService := service.NewCustomerService(customerRepo, loader, cfg.Defaults, logger)
	productService := service.NewProductService(productRepo, categoryRepo, catalog, store, cfg.Defaults, cfg.Storage.MaxImageBytes, logger)
	cartService := service.NewCartService(cartRepo, catalog, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, customerRepo, sellerRepo, catalog, logger)

	mux := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		Category: handler.NewCategoryHandler(categoryService, logger),
		Customer: handler.NewCustomerHandler(customerService, logger),
		Product:  handler.NewProductHandler(productService, cfg.Storage.MaxImageBytes, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
	}, tokens, cfg.Storage, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newProductCache connects to Redis when enabled. An unreachable Redis
// degrades to no caching rather than failing startup.
func newProductCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (cache.ProductCache, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("product cache disabled")
		return cache.NewNop(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unreachable, product cache disabled")
		_ = client.Close()
		return cache.NewNop(), func() {}
	}

	logger.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("product cache enabled")
	return cache.NewRedisProductCache(client, "marketplace", cfg.TTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

// newAllowListLoader reads customer files from disk, trying S3 first when
// import from S3 is enabled.
func newAllowListLoader(ctx context.Context, cfg config.ImportConfig, logger zerolog.Logger) allowlist.Loader {
	fileLoader := allowlist.NewFileLoader(logger)
	if !cfg.S3Enabled {
		logger.Info().Msg("using local file system for customer imports (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := allowlist.NewS3Loader(ctx, cfg.S3Bucket, cfg.S3Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}

	return allowlist.NewFallbackLoader(s3Loader, fileLoader, cfg.S3Prefix, true, logger)
}
