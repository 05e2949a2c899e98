package cache

import (
	"context"
	"fmt"
	"time"

	"dental-clinic-api/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "access_token"
	scanBatchSize    = 100
)

// redisSessionStore keeps one key per issued token: access_token:<userID>:<tokenID>.
type redisSessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) repository.SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(userID uint, tokenID string) string {
	return fmt.Sprintf("%s:%d:%s", sessionKeyPrefix, userID, tokenID)
}

func (s *redisSessionStore) Save(ctx context.Context, userID uint, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKey(userID, tokenID), "valid", ttl).Err()
}

func (s *redisSessionStore) Exists(ctx context.Context, userID uint, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(userID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, userID uint, tokenID string) error {
	return s.client.Del(ctx, sessionKey(userID, tokenID)).Err()
}

// RevokeAll drops every token of the user, walking the keyspace with SCAN.
func (s *redisSessionStore) RevokeAll(ctx context.Context, userID uint) error {
	pattern := fmt.Sprintf("%s:%d:*", sessionKeyPrefix, userID)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
