package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"assessment-backend/internal/logger"
)

// DocumentLocker serializes question set generation per document.
// The returned release func must be called exactly once.
type DocumentLocker interface {
	Lock(ctx context.Context, documentID int64) (release func(), err error)
}

func lockBusyError(documentID int64) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf("Questions for document %d are already being generated", documentID)}
}

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease held in Redis so every instance sees the same lock.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
	log    *logger.Logger
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, log *logger.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait, poll: 250 * time.Millisecond, log: log}
}

func lockKey(documentID int64) string {
	return fmt.Sprintf("quiz_generation_lock:%d", documentID)
}

func (l *RedisLocker) Lock(ctx context.Context, documentID int64) (func(), error) {
	key := lockKey(documentID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire generation lock: %w", err)
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
					l.log.Warn("failed to release generation lock", "document_id", documentID, "error", err)
				}
			}, nil
		}

		if !time.Now().Before(deadline) {
			return nil, lockBusyError(documentID)
		}
		if err := sleepCtx(ctx, l.poll); err != nil {
			return nil, err
		}
	}
}

// LocalLocker is an in-process keyed lock for single-instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[int64]chan struct{}
	wait time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{held: make(map[int64]chan struct{}), wait: wait}
}

func (l *LocalLocker) Lock(ctx context.Context, documentID int64) (func(), error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for {
		l.mu.Lock()
		done, busy := l.held[documentID]
		if !busy {
			done = make(chan struct{})
			l.held[documentID] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, documentID)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, lockBusyError(documentID)
		}
	}
}
