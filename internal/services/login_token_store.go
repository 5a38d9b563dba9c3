package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidLoginToken = errors.New("login link is invalid or expired")
	ErrRateLimited       = errors.New("too many login requests, try again later")
)

// LoginTokenStore keeps one-time login tokens and per-email rate limits in Redis
type LoginTokenStore struct {
	client *redis.Client
}

// NewLoginTokenStore creates a token store on an existing Redis client
func NewLoginTokenStore(client *redis.Client) *LoginTokenStore {
	return &LoginTokenStore{client: client}
}

// GenerateToken returns a new random login token
func (r *LoginTokenStore) GenerateToken() string {
	return uuid.NewString()
}

// StoreToken stores a token for email until ttl elapses
func (r *LoginTokenStore) StoreToken(ctx context.Context, token, email string, ttl time.Duration) error {
	key := fmt.Sprintf("login_token:%s", token)

	data := map[string]interface{}{
		"email":      email,
		"created_at": time.Now().Unix(),
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// ConsumeToken returns the email for token and deletes it so it works once.
func (r *LoginTokenStore) ConsumeToken(ctx context.Context, token string) (string, error) {
	key := fmt.Sprintf("login_token:%s", token)

	var email *redis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		email = pipe.HGet(ctx, key, "email")
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidLoginToken
		}
		return "", err
	}
	return email.Val(), nil
}

// AllowLoginRequest claims the rate limit slot for email; false means a
// request was already made within window.
func (r *LoginTokenStore) AllowLoginRequest(ctx context.Context, email string, window time.Duration) (bool, error) {
	key := fmt.Sprintf("login_rate_limit:%s", email)
	return r.client.SetNX(ctx, key, "1", window).Result()
}
