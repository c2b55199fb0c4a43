package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	redisClient *redis.Client
}

func NewLoginChecker(redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		redisClient: redisClient,
	}
}

// GetUserID resolves a session token to the logged in user.
// Expired sessions vanish through the redis key TTL, so a missing key
// simply means not logged in.
func (c *LoginChecker) GetUserID(ctx context.Context, token string) (int, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := c.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNoSession
		}
		return 0, err
	}

	userID, err := strconv.Atoi(cmd.Val())
	if err != nil {
		return 0, err
	}

	return userID, nil
}

func (c *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	_, err := c.GetUserID(ctx, token)
	if errors.Is(err, ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
