package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/repository/sqlstore"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// TestDB represents a test database connection
type TestDB struct {
	Store  *sqlstore.DB
	Logger *zap.Logger
}

// SetupSQLiteDB открывает чистую in-memory базу sqlite со схемой маршрутов
func SetupSQLiteDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	// каждое соединение :memory: - отдельная база
	db.SetMaxOpenConns(1)

	return prepare(t, db)
}

// SetupPostgresDB подключается к тестовому PostgreSQL; тест пропускается, если база недоступна
func SetupPostgresDB(t *testing.T) *TestDB {
	t.Helper()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5433"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "route_planner_test"),
		getEnv("TEST_DB_SSLMODE", "disable"),
	)

	// Retry connection with exponential backoff to wait for DB recovery
	var db *sqlx.DB
	var err error
	maxRetries := 3
	retryDelay := 200 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", connStr)
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	return prepare(t, db)
}

func prepare(t *testing.T, db *sqlx.DB) *TestDB {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	if logger == nil {
		logger = zap.NewNop()
	}

	store := sqlstore.NewDBForTest(db, logger)
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return &TestDB{Store: store, Logger: logger}
}

// NewRouteRepository creates a route repository over the test database
func (tdb *TestDB) NewRouteRepository() repository.RouteRepository {
	return sqlstore.NewRouteRepository(tdb.Store, tdb.Logger)
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	if tdb.Store != nil {
		tdb.Store.DB.Close()
	}
}

// Cleanup cleans up test data
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	// Order respects the route_paths -> routes reference
	for _, table := range []string{"route_paths", "routes"} {
		if _, err := tdb.Store.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("cleanup %s: %w", table, err)
		}
	}
	return nil
}

// getEnv gets environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
