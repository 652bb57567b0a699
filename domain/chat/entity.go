package chat

import "time"

// Message is a persisted group chat message. ID and CreatedAt are minted by
// the message store on persist; the struct is immutable afterwards.
type Message struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// QueueEntry is the serialized value held in the distributed matchmaking
// queue while a user waits for a random-chat partner.
type QueueEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
