// Package integration runs the repositories, the HTTP API and the Redis
// preference store against real PostgreSQL and Redis containers.
package integration

import (
	"context"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/joaodebarro/backend/internal/infrastructure/migration"
	"github.com/joaodebarro/backend/internal/infrastructure/persistence"
	"github.com/joaodebarro/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	postgresImage = "postgres:16-alpine"
	redisImage    = "redis:7-alpine"
	testDBName    = "bookkeeping_test"
	testDBUser    = "postgres"
	testDBPass    = "bookkeeping"
)

// One migrated PostgreSQL container serves the whole package; tests isolate
// themselves with CleanTables.
var sharedDB struct {
	mu        sync.Mutex
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
}

// TestDB is a connection to the shared, migrated database
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewSharedTestDB starts the container and applies the embedded migrations on
// first use, then opens a connection closed at the end of the test.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	cfg := sharedDatabase(t)

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := persistence.NewDatabase(&cfg, persistence.WithLogger(zap.NewExample(), level, 0))
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{DB: db.DB, t: t}
}

func sharedDatabase(t *testing.T) config.DatabaseConfig {
	t.Helper()

	sharedDB.mu.Lock()
	defer sharedDB.mu.Unlock()
	if sharedDB.container != nil {
		return sharedDB.cfg
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            testDBUser,
		Password:        testDBPass,
		DBName:          testDBName,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
	}

	db, err := persistence.NewDatabase(&cfg)
	require.NoError(t, err, "Failed to connect for migrations")
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
	_ = db.Close()

	sharedDB.container = container
	sharedDB.cfg = cfg
	return cfg
}

// CleanTables empties receivables and payables
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE receivables, payables").Error)
}

// CleanupSharedContainer terminates the shared container; TestMain calls it.
func CleanupSharedContainer() {
	sharedDB.mu.Lock()
	defer sharedDB.mu.Unlock()

	if sharedDB.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = sharedDB.container.Terminate(ctx)
	sharedDB.container = nil
}

// NewTestRedis starts a Redis container for the test and returns host:port.
func NewTestRedis(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "Failed to get Redis endpoint")
	return addr
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, rawPort, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(rawPort)
	require.NoError(t, err)
	return host, port
}
