package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitmotion/fitmotion/pkg"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitmotion-session||"
)

var ErrNoSession = errors.New("session not found")

// Service creates and destroys login sessions. A session is a random token
// mapped to a user id in redis, expiring via the key TTL.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *Service) Login(ctx context.Context, userID int) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token
	removed, err := s.redisClient.Del(ctx, sessionKey).Result()
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if removed == 0 {
		return ErrNoSession
	}
	return nil
}
