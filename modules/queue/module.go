package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis client behind the matchmaking queue.
type Module struct {
	queue     *Queue
	client    *redis.Client
	redisAddr string
	key       string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a queue module for the given Redis address and list key.
func NewModule(redisAddr, key string) *Module {
	return &Module{redisAddr: redisAddr, key: key}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "queue"
}

// Start connects to Redis and creates the queue.
func (m *Module) Start(_ context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.queue = New(m.client, m.key)
	log.Printf("[queue] Connected to Redis at %s (key: %s)", m.redisAddr, m.key)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	log.Println("[queue] Module stopped")
	return nil
}

// Health reports Redis connectivity and queue depth.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis not initialized"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"waiting": m.queue.Len(ctx)},
	}
}

// Queue returns the matchmaking queue. Nil until Start has run.
func (m *Module) Queue() *Queue {
	return m.queue
}
