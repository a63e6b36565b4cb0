package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Run locks expire on their own in case a process dies mid-run.
const runLockTTL = 30 * time.Minute

type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func runLockKey(sessionID string) string {
	return "debate:run:" + sessionID
}

// Acquire claims the cross-process run lock for a session. false means some
// other process holds it.
func (s *Store) Acquire(ctx context.Context, sessionID string) (bool, error) {
	return s.client.SetNX(ctx, runLockKey(sessionID), 1, runLockTTL).Result()
}

func (s *Store) Release(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, runLockKey(sessionID)).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
