//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/go-redis/redis/v8"
	"github.com/huangsam/firewatch/internal/state"
	"github.com/huangsam/firewatch/internal/store"
	"github.com/huangsam/firewatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a container and returns host:port for the first exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, mapped.Port()
}

// exerciseStore runs the same Record/List/Latest/DeleteAll sequence against any backend.
func exerciseStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	ctx := context.Background()

	_, err := store.Migrate(backend, connStr, -1)
	require.NoError(t, err)

	rs, err := store.NewReadingStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = rs.Close() }()

	_, err = rs.DeleteAll(ctx)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		at := base.Add(time.Duration(i) * time.Minute)
		reading := schema.SensorReading{Temperature: schema.Float(28 + float64(i)), TVOC: schema.Float(320), ObservedAt: &at}
		verdict := schema.RiskVerdict{Score: 25 * i, Level: schema.LevelLow, Factors: []string{"tvoc 320 > 300"}}
		_, err := rs.Record(ctx, "kitchen", reading, verdict)
		require.NoError(t, err)
	}

	page, err := rs.List(ctx, schema.ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Data, 2)
	assert.True(t, page.Data[0].ObservedAt.After(page.Data[1].ObservedAt))

	latest, err := rs.Latest(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, 50, latest.RiskScore)
	assert.Equal(t, []string{"tvoc 320 > 300"}, latest.RiskFactors)

	stats, err := rs.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecords)

	deleted, err := rs.DeleteOlderThan(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = rs.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	id, err := rs.Record(ctx, "kitchen", schema.SensorReading{Humidity: schema.Float(50)}, schema.RiskVerdict{Level: schema.LevelSafe})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id, "ids restart after DeleteAll")
}

// exerciseCLI drives the store commands through the built binary.
func exerciseCLI(t *testing.T, env []string) {
	_, err := runFirewatch(t, env, "store", "clear")
	require.NoError(t, err)

	_, err = runFirewatch(t, env, "store", "migrate")
	require.NoError(t, err)

	out, err := runFirewatch(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")

	_, err = runFirewatch(t, env, "readings", "--top", "5")
	require.NoError(t, err)

	_, err = runFirewatch(t, env, "cleanup", "--days", "1")
	require.NoError(t, err)
}

// TestFirewatchWithMySQL tests the reading store and CLI with a MySQL backend.
func TestFirewatchWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "firewatch",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/firewatch?parseTime=true", host, port)

	exerciseStore(t, schema.MySQLBackend, connStr)
	exerciseCLI(t, []string{
		"FIREWATCH_STORE_BACKEND=mysql",
		"FIREWATCH_STORE_DB_CONNECT=" + connStr,
	})
}

// TestFirewatchWithPostgres tests the reading store and CLI with a PostgreSQL backend.
func TestFirewatchWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port)

	exerciseStore(t, schema.PostgreSQLBackend, connStr)
	exerciseCLI(t, []string{
		"FIREWATCH_STORE_BACKEND=postgresql",
		"FIREWATCH_STORE_DB_CONNECT=" + connStr,
	})
}

// TestRedisStateWithContainer checks the gatekeeper state round trip against a real Redis.
func TestRedisStateWithContainer(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port})
	rs := state.NewRedisStore(client, state.DefaultKeyPrefix, time.Minute)
	defer func() { _ = rs.Close() }()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	last := schema.SensorReading{Temperature: schema.Float(31)}
	require.NoError(t, rs.Save(ctx, "kitchen", schema.GatekeeperState{LastReading: &last, LastAlertAt: &at}))

	got, err := rs.Load(ctx, "kitchen")
	require.NoError(t, err)
	require.NotNil(t, got.LastAlertAt)
	assert.True(t, at.Equal(*got.LastAlertAt))
	assert.Equal(t, 31.0, *got.LastReading.Temperature)

	status, err := rs.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Devices)

	require.NoError(t, rs.Delete(ctx, "kitchen"))
	got, err = rs.Load(ctx, "kitchen")
	require.NoError(t, err)
	assert.Nil(t, got.LastReading)
}
