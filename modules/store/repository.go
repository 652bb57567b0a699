package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/proximity-chat/domain/chat"
)

// ErrNotFound is returned when a message is not found.
var ErrNotFound = errors.New("message not found")

// Repository persists and retrieves group chat messages. It is the single
// authority for message IDs and timestamps.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new message repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateMessage persists a message, minting its ID and CreatedAt.
func (r *Repository) CreateMessage(ctx context.Context, groupID, userID, content string) (*chat.Message, error) {
	record := &GroupMessage{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &chat.Message{
		ID:        record.ID,
		GroupID:   record.GroupID,
		UserID:    record.UserID,
		Content:   record.Content,
		CreatedAt: record.CreatedAt,
	}, nil
}

// FindByID retrieves a single message by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*chat.Message, error) {
	var record GroupMessage
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return toDomain(&record), nil
}

// RecentMessages returns up to limit messages for a group in ascending
// CreatedAt order, ties broken by insertion order via id.
func (r *Repository) RecentMessages(ctx context.Context, groupID string, limit int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []*GroupMessage
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	// Query is newest-first to apply the limit; flip to ascending for clients.
	messages := make([]*chat.Message, len(records))
	for i, record := range records {
		messages[len(records)-1-i] = toDomain(record)
	}
	return messages, nil
}

func toDomain(record *GroupMessage) *chat.Message {
	return &chat.Message{
		ID:        record.ID,
		GroupID:   record.GroupID,
		UserID:    record.UserID,
		Content:   record.Content,
		CreatedAt: record.CreatedAt,
	}
}
