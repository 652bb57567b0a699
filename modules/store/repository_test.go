package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&GroupMessage{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// seedMessage inserts a record with an explicit timestamp, bypassing the
// repository's clock.
func seedMessage(t *testing.T, db *gorm.DB, id, groupID string, createdAt time.Time) {
	t.Helper()
	record := &GroupMessage{
		ID:        id,
		GroupID:   groupID,
		UserID:    "u1",
		Content:   "msg " + id,
		CreatedAt: createdAt,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to seed message %s: %v", id, err)
	}
}

func TestRepository_CreateMessage(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	before := time.Now().UTC()
	msg, err := repo.CreateMessage(ctx, "g1", "u1", "hello")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	if msg.ID == "" {
		t.Error("message ID must be minted by the repository")
	}
	if msg.GroupID != "g1" || msg.UserID != "u1" || msg.Content != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.CreatedAt.Before(before) {
		t.Errorf("CreatedAt %v is before the call", msg.CreatedAt)
	}

	// Distinct IDs per message.
	second, err := repo.CreateMessage(ctx, "g1", "u1", "again")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if second.ID == msg.ID {
		t.Error("two messages share an ID")
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.CreateMessage(ctx, "g1", "u1", "hello")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.ID != created.ID || found.Content != "hello" {
		t.Errorf("unexpected message: %+v", found)
	}
}

func TestRepository_FindByIDNotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRepository_RecentMessagesAscending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Seed newest-last so insertion order differs from nothing by accident.
	seedMessage(t, db, "m1", "g1", base)
	seedMessage(t, db, "m2", "g1", base.Add(time.Second))
	seedMessage(t, db, "m3", "g1", base.Add(2*time.Second))

	messages, err := repo.RecentMessages(context.Background(), "g1", 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if messages[i].ID != want {
			t.Errorf("messages[%d].ID = %q, want %q", i, messages[i].ID, want)
		}
	}
}

func TestRepository_RecentMessagesLimitKeepsNewest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedMessage(t, db, fmt.Sprintf("m%d", i+1), "g1", base.Add(time.Duration(i)*time.Second))
	}

	messages, err := repo.RecentMessages(context.Background(), "g1", 3)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	// The three newest, still in ascending order.
	for i, want := range []string{"m3", "m4", "m5"} {
		if messages[i].ID != want {
			t.Errorf("messages[%d].ID = %q, want %q", i, messages[i].ID, want)
		}
	}
}

func TestRepository_RecentMessagesScopedToGroup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	seedMessage(t, db, "m1", "g1", now)
	seedMessage(t, db, "m2", "g2", now)

	messages, err := repo.RecentMessages(context.Background(), "g1", 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != "m1" {
		t.Errorf("unexpected messages: %+v", messages)
	}
}

func TestRepository_RecentMessagesEmptyGroup(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	messages, err := repo.RecentMessages(context.Background(), "empty", 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages, want 0", len(messages))
	}
}

func TestRepository_RecentMessagesDefaultLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		seedMessage(t, db, fmt.Sprintf("m%03d", i), "g1", base.Add(time.Duration(i)*time.Second))
	}

	messages, err := repo.RecentMessages(context.Background(), "g1", 0)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 50 {
		t.Errorf("got %d messages, want default limit of 50", len(messages))
	}
}
