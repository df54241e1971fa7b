package auth

import (
	"context"
	"errors"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	sessionKeyPrefix = "fittracker-session||"

	// session cache above redis, sized for a few thousand tokens
	sessionCacheSize   = 1024 * 1024
	sessionCacheExpiry = 60 // seconds
)

// SessionChecker resolves tokens against the redis session store,
// with a small freecache layer in front to skip repeated round trips
// for the same token. Session expiry itself is enforced by the TTL the
// auth provider sets on the redis key.
type SessionChecker struct {
	redisClient *redis.Client
	cache       *freecache.Cache
}

func NewSessionChecker(redisClient *redis.Client) *SessionChecker {
	return &SessionChecker{
		redisClient: redisClient,
		cache:       freecache.NewCache(sessionCacheSize),
	}
}

func (c *SessionChecker) UserID(ctx context.Context, token string) (string, error) {
	if cached, err := c.cache.Get([]byte(token)); err == nil {
		return string(cached), nil
	}

	cmd := c.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}

	userID := cmd.Val()
	if userID == "" {
		return "", ErrSessionNotFound
	}

	if err := c.cache.Set([]byte(token), []byte(userID), sessionCacheExpiry); err != nil {
		log.Tracef("failed to cache session token: %s", err)
	}

	return userID, nil
}

// InvalidateCached drops the local cache entry for the token, so the next
// check goes to redis again. Used when the auth provider reports a logout.
func (c *SessionChecker) InvalidateCached(token string) {
	c.cache.Del([]byte(token))
}

// ScanAndClean clears the local cache fully. Ran periodically so that
// sessions revoked in redis do not linger here past their grace period.
func (c *SessionChecker) ScanAndClean(_ context.Context) {
	c.cache.Clear()
}
