package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/userhub/user-management/internal/core/domain"
)

// VerificationStore holds one-time email-verification tokens in Redis.
// Key format: verify:<token> -> user id, expiring after the configured TTL.
type VerificationStore struct {
	client *redis.Client
}

// NewVerificationStore creates a VerificationStore wrapping the given client.
func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

// Put stores the token for userID with the given TTL.
func (s *VerificationStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}
	return nil
}

// Take consumes the token: it is deleted in the same round trip, so a second
// Take of the same token fails with ErrTokenInvalid. Expired tokens are gone
// by then and fail the same way.
func (s *VerificationStore) Take(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return "", domain.ErrTokenInvalid
	}
	if err != nil {
		return "", fmt.Errorf("take verification token: %w", err)
	}
	return userID, nil
}

func (s *VerificationStore) key(token string) string {
	return "verify:" + token
}
