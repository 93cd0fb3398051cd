package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Snapshot mirrors presence entries into Redis so another node can
// hydrate a client's presence view for users connected elsewhere.
// The in-memory store stays authoritative per node; the mirror is a
// best-effort cache with a TTL.
type Snapshot struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshot creates a snapshot mirror on an established Redis client
func NewSnapshot(rdb *redis.Client, ttl time.Duration) *Snapshot {
	return &Snapshot{rdb: rdb, ttl: ttl}
}

func snapshotKey(userID int) string {
	return fmt.Sprintf("presence:%d", userID)
}

// Save writes the entry hash and refreshes its TTL
func (s *Snapshot) Save(ctx context.Context, entry Entry) error {
	key := snapshotKey(entry.UserID)
	fields := map[string]interface{}{
		"name":         entry.Name,
		"avatar_url":   entry.AvatarURL,
		"status":       string(entry.Status),
		"last_seen_at": entry.LastSeenAt.Format(time.RFC3339Nano),
		"socket_id":    entry.SocketID,
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

// Load reads an entry back; returns nil when none is stored
func (s *Snapshot) Load(ctx context.Context, userID int) (*Entry, error) {
	fields, err := s.rdb.HGetAll(ctx, snapshotKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	entry := &Entry{
		UserID:    userID,
		Name:      fields["name"],
		AvatarURL: fields["avatar_url"],
		Status:    Status(fields["status"]),
		SocketID:  fields["socket_id"],
	}
	if raw, ok := fields["last_seen_at"]; ok && raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_seen_at for user %s: %w", strconv.Itoa(userID), err)
		}
		entry.LastSeenAt = ts
	}
	return entry, nil
}
