package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// ConfigLoader fetches game configs from a backing store (games dir, Postgres).
type ConfigLoader interface {
	LoadConfig(ctx context.Context, name string) (domain.GameConfig, error)
}

// ConfigRepository caches game configs in Redis and falls back to a loader on cache miss.
// Configs are stored as JSON: SET game:config:{name} {json} EX ttl
type ConfigRepository struct {
	client *redis.Client
	loader ConfigLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewConfigRepository(client *redis.Client, loader ConfigLoader, ttl time.Duration) *ConfigRepository {
	return &ConfigRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConfigRepository) GetConfig(ctx context.Context, name string) (domain.GameConfig, error) {
	if cfg, ok := r.fromCache(ctx, name); ok {
		return cfg, nil
	}

	result, err, _ := r.sf.Do(name, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cfg, ok := r.fromCache(ctx, name); ok {
			return cfg, nil
		}

		cfg, err := r.loader.LoadConfig(ctx, name)
		if err != nil {
			return domain.GameConfig{}, err
		}

		payload, err := json.Marshal(cfg)
		if err != nil {
			return domain.GameConfig{}, err
		}
		if err := r.client.Set(ctx, r.key(name), payload, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("redis: cache config %q: %v", name, err)
		}
		return cfg, nil
	})
	if err != nil {
		return domain.GameConfig{}, err
	}
	return result.(domain.GameConfig).Clone(), nil
}

func (r *ConfigRepository) fromCache(ctx context.Context, name string) (domain.GameConfig, bool) {
	raw, err := r.client.Get(ctx, r.key(name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("redis: read config %q: %v", name, err)
		}
		return domain.GameConfig{}, false
	}
	var cfg domain.GameConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		log.Printf("redis: decode config %q: %v", name, err)
		return domain.GameConfig{}, false
	}
	return cfg, true
}

func (r *ConfigRepository) key(name string) string {
	return "game:config:" + name
}

func (r *ConfigRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
