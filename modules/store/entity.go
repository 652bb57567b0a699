package store

import "time"

// GroupMessage is the persistence model for a group chat message.
type GroupMessage struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	GroupID   string    `gorm:"size:36;not null;index" json:"group_id"`
	UserID    string    `gorm:"size:36;not null" json:"user_id"`
	Content   string    `gorm:"size:5000;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the table name for GroupMessage.
func (GroupMessage) TableName() string {
	return "group_messages"
}
