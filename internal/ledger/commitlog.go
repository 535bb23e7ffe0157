package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CommitLog remembers which batch rows already reached the store so a retry
// after a partial failure does not write them twice.
type CommitLog interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// MemoryCommitLog is a process-local CommitLog.
type MemoryCommitLog struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]time.Time
	now  func() time.Time
}

// NewMemoryCommitLog constructs an in-memory log whose entries expire after ttl.
func NewMemoryCommitLog(ttl time.Duration) *MemoryCommitLog {
	return &MemoryCommitLog{ttl: ttl, keys: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryCommitLog) Seen(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.keys[key]
	if !ok {
		return false, nil
	}
	if l.ttl > 0 && l.now().After(exp) {
		delete(l.keys, key)
		return false, nil
	}
	return true, nil
}

func (l *MemoryCommitLog) Mark(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[key] = l.now().Add(l.ttl)
	return nil
}

// RedisCommitLog stores commit markers in Redis with a TTL.
type RedisCommitLog struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCommitLog constructs a Redis-backed log.
func NewRedisCommitLog(client *redis.Client, prefix string, ttl time.Duration) *RedisCommitLog {
	if prefix == "" {
		prefix = "stockledger:commit:"
	}
	return &RedisCommitLog{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisCommitLog) Seen(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("commit log exists: %w", err)
	}
	return n > 0, nil
}

func (l *RedisCommitLog) Mark(ctx context.Context, key string) error {
	if err := l.client.SetNX(ctx, l.prefix+key, time.Now().Unix(), l.ttl).Err(); err != nil {
		return fmt.Errorf("commit log mark: %w", err)
	}
	return nil
}
