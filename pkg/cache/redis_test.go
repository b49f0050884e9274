package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ghuser/circulationledger/pkg/config"
)

func newTestConfig(url string) *config.Config {
	return &config.Config{
		RedisURL: url,
	}
}

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// setupRedis returns a client for REDIS_URL, or for a shared container when
// REDIS_URL is unset. Skipped under -short.
func setupRedis(t *testing.T) *RedisClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in -short mode")
	}

	url := os.Getenv("REDIS_URL")
	if url == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		redisOnce.Do(func() { redisAddr, redisErr = startRedis() })
		if redisErr != nil {
			t.Fatalf("start redis: %v", redisErr)
		}
		url = redisAddr
	}

	rc, err := NewRedisClient(context.Background(), newTestConfig(url))
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func startRedis() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port()), nil
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), newTestConfig("not-a-valid-url"))
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	_, err := NewRedisClient(context.Background(), newTestConfig("redis://localhost:19999"))
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

func TestRedisIntegration(t *testing.T) {
	rc := setupRedis(t)

	t.Run("Ping_Success", func(t *testing.T) {
		if err := rc.Ping(context.Background()); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})

	t.Run("Client_NotNil", func(t *testing.T) {
		if rc.Client() == nil {
			t.Fatal("expected non-nil underlying client")
		}
	})

	t.Run("IsMiss", func(t *testing.T) {
		err := rc.Client().Get(context.Background(), "circulation:test:missing").Err()
		if !IsMiss(err) {
			t.Fatalf("expected miss, got %v", err)
		}
	})
}
