package repository

import (
	"context"
	"time"
)

// SessionStore is the allow-list of issued bearer tokens.
type SessionStore interface {
	Save(ctx context.Context, userID uint, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, userID uint, tokenID string) (bool, error)
	Revoke(ctx context.Context, userID uint, tokenID string) error
	RevokeAll(ctx context.Context, userID uint) error
}
