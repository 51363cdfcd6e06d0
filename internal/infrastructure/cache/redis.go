package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

const (
	keyPrefix  = "recommendations:"
	defaultTTL = 15 * time.Minute
	scanBatch  = 100
)

// RedisCache stores rendered recommendation lists as JSON.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.RecommendationCache = (*RedisCache)(nil)

// NewRedisCache wraps a go-redis client. A non-positive ttl selects 15 minutes.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// NewClient builds a go-redis client from connection settings.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Key returns the cache key of one user and limit.
func Key(username string, limit int) string {
	return keyPrefix + username + ":" + strconv.Itoa(limit)
}

// userPattern matches the keys of one user; glob characters in the name are escaped.
func userPattern(username string) string {
	return keyPrefix + globEscaper.Replace(username) + ":*"
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// ownedBy reports whether key is Key(username, n) for some limit n. Names
// containing ':' would otherwise let "bob" match the keys of "bob:x".
func ownedBy(key, username string) bool {
	rest, ok := strings.CutPrefix(key, keyPrefix+username+":")
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}

// Get returns the cached list; found is false on a miss.
func (c *RedisCache) Get(ctx context.Context, username string, limit int) ([]domain.ScoredArticle, bool, error) {
	raw, err := c.client.Get(ctx, Key(username, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached recommendations: %w", err)
	}

	var items []domain.ScoredArticle
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached recommendations: %w", err)
	}
	return items, true, nil
}

// Set stores the list with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, username string, limit int, items []domain.ScoredArticle) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	if err := c.client.Set(ctx, Key(username, limit), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached recommendations: %w", err)
	}
	return nil
}

// InvalidateUser drops every cached list of the user, whatever the limit.
func (c *RedisCache) InvalidateUser(ctx context.Context, username string) error {
	return c.deleteMatching(ctx, userPattern(username), func(key string) bool {
		return ownedBy(key, username)
	})
}

// InvalidateAll drops every cached list, e.g. after new articles were stored.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	return c.deleteMatching(ctx, keyPrefix+"*", func(string) bool { return true })
}

func (c *RedisCache) deleteMatching(ctx context.Context, pattern string, keep func(string) bool) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		if key := iter.Val(); keep(key) {
			keys = append(keys, key)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached recommendations: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cached recommendations: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
