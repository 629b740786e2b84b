package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a migrated test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the migrations and
// opens a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.MigrateUp(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SetupRedis starts a Redis container and returns a connected client.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return client
}

// TestServer is the fully wired API plus the pieces tests inspect directly.
type TestServer struct {
	Handler   http.Handler
	Products  repository.ProductRepository
	Orders    repository.OrderRepository
	UploadDir string
}

// SetupTestServer wires repositories, services and handlers the same way the
// API binary does, with local image storage in a temp dir. A nil redis client
// disables the product cache.
func SetupTestServer(t *testing.T, testDB *TestDB, rdb *redis.Client) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()

	storageCfg := config.StorageConfig{
		Driver:         "local",
		LocalDir:       t.TempDir(),
		LocalURLPrefix: "/uploads",
		MaxImageBytes:  1 << 20,
	}
	store, err := storage.New(ctx, storageCfg, logger)
	require.NoError(t, err)

	productCache := cache.NewNop()
	if rdb != nil {
		productCache = cache.NewRedisProductCache(rdb, "itest", time.Minute, logger)
	}

	defaults := config.Defaults{Country: "India", StockStatus: "in_stock"}

	sellerRepo := repository.NewSellerRepository(testDB.Pool, logger)
	customerRepo := repository.NewCustomerRepository(testDB.Pool, logger)
	categoryRepo := repository.NewCategoryRepository(testDB.Pool, logger)
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	tokens := auth.NewTokens("integration-secret", time.Hour)
	catalog := service.NewCatalog(productRepo, productCache, logger)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(sellerRepo, customerRepo, tokens, 4, logger), logger),
		Category: handler.NewCategoryHandler(service.NewCategoryService(categoryRepo, logger), logger),
		Customer: handler.NewCustomerHandler(service.NewCustomerService(customerRepo, allowlist.NewFileLoader(logger), defaults, logger), logger),
		Product: handler.NewProductHandler(
			service.NewProductService(productRepo, categoryRepo, catalog, store, defaults, storageCfg.MaxImageBytes, logger),
			storageCfg.MaxImageBytes, logger),
		Cart:  handler.NewCartHandler(service.NewCartService(cartRepo, catalog, logger), logger),
		Order: handler.NewOrderHandler(service.NewOrderService(orderRepo, productRepo, cartRepo, customerRepo, sellerRepo, catalog, logger), logger),
	}

	return &TestServer{
		Handler:   router.New(h, tokens, storageCfg, logger),
		Products:  productRepo,
		Orders:    orderRepo,
		UploadDir: storageCfg.LocalDir,
	}
}
