package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	redisclient "github.com/richxcame/osrm-route/pkg/redis"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Manager stores raw payloads in Redis under a common key prefix.
type Manager struct {
	redis  redisclient.ClientInterface
	prefix string
}

// NewManager creates a new cache manager. Keys are stored as "<prefix>:<key>".
func NewManager(client redisclient.ClientInterface, prefix string) *Manager {
	return &Manager{redis: client, prefix: prefix}
}

// GetBytes returns the payload stored under key, or ErrMiss.
func (m *Manager) GetBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := m.redis.GetString(ctx, m.key(key))
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// SetBytes stores value under key for ttl.
func (m *Manager) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.redis.SetWithExpiration(ctx, m.key(key), string(value), ttl)
}

func (m *Manager) key(key string) string {
	if m.prefix == "" {
		return key
	}
	return m.prefix + ":" + key
}
