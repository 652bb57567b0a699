package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/proximity-chat/modules/match"
	"github.com/example/proximity-chat/modules/queue"
	"github.com/example/proximity-chat/modules/room"
	"github.com/example/proximity-chat/modules/store"
	"github.com/example/proximity-chat/modules/wsserver"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	port := getEnvInt("PORT", 8080)
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	dbPath := getEnv("DB_PATH", "./chat.db")
	queueKey := getEnv("QUEUE_KEY", "matching:queue")

	log.Println("=== Proximity Chat - Realtime Messaging Core ===")
	log.Printf("Port: %d", port)
	log.Printf("Redis: %s", redisAddr)
	log.Printf("Database: %s", dbPath)
	log.Printf("Matchmaking queue key: %s", queueKey)

	// Create modules
	storeModule := store.NewModule(dbPath)
	queueModule := queue.NewModule(redisAddr, queueKey)
	roomModule := room.NewModule()
	matchModule := match.NewModule()
	wsModule := wsserver.NewModule(fmt.Sprintf(":%d", port), roomModule, matchModule)

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Register modules: infrastructure first, the server last
	app.Register(storeModule)
	app.Register(queueModule)
	app.Register(roomModule)
	app.Register(matchModule)
	app.Register(wsModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wire cross-module dependencies after start, once the store and queue
	// connections exist
	roomModule.SetStore(storeModule.Repo())
	matchModule.SetQueue(queueModule.Queue())
	wsModule.SetHistory(storeModule.Repo())

	printStartupInfo(port)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%d/ws):", port)
	log.Println("  Group chat frames:  join, message")
	log.Println("  Random chat frames: random:join, random:message, random:typing,")
	log.Println("                      random:stop_typing, random:leave")
	log.Println("")
	log.Printf("REST Endpoints (http://localhost:%d):", port)
	log.Println("  GET /health                        - Health check")
	log.Println("  GET /api/v1/groups/:id/messages    - Group message history")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
