// Package queue implements the distributed matchmaking queue as a Redis
// list. Entries are JSON-serialized so removeEntry can match an exact value
// regardless of which process enqueued it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/example/proximity-chat/domain/chat"
)

// Queue is a FIFO of users waiting for a random-chat partner, backed by a
// single Redis list. All operations are best-effort: a Redis failure logs
// and degrades to "empty / not found" rather than surfacing to the
// connection handling loop.
type Queue struct {
	client *redis.Client
	key    string
}

// New creates a queue over the given Redis list key.
func New(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Enqueue appends an entry to the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, entry chat.QueueEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal queue entry: %w", err)
	}

	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		log.Printf("[queue] RPUSH failed for %s: %v", entry.UserID, err)
		return fmt.Errorf("failed to enqueue entry: %w", err)
	}
	return nil
}

// DequeueOldest pops the entry at the head of the queue. The second return
// value is false when the queue is empty or the store is unreachable.
func (q *Queue) DequeueOldest(ctx context.Context) (chat.QueueEntry, bool) {
	data, err := q.client.LPop(ctx, q.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[queue] LPOP failed: %v", err)
		}
		return chat.QueueEntry{}, false
	}

	var entry chat.QueueEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt value; discard it rather than re-serving it forever.
		log.Printf("[queue] Discarding unreadable entry: %v", err)
		return chat.QueueEntry{}, false
	}
	return entry, true
}

// Remove deletes all occurrences of an entry's exact serialized value. Used
// to purge stale self-entries before a re-join and on explicit leave.
func (q *Queue) Remove(ctx context.Context, entry chat.QueueEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal queue entry: %w", err)
	}

	if err := q.client.LRem(ctx, q.key, 0, data).Err(); err != nil {
		log.Printf("[queue] LREM failed for %s: %v", entry.UserID, err)
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	return nil
}

// Len returns the current queue depth, or 0 on store errors.
func (q *Queue) Len(ctx context.Context) int {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0
	}
	return int(n)
}
