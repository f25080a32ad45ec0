package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// ConfigLoader fetches game configs from a backing store (games dir, Postgres).
type ConfigLoader interface {
	LoadConfig(ctx context.Context, name string) (domain.GameConfig, error)
}

// ConfigRepository caches game configs with TTL to avoid repeated loads.
type ConfigRepository struct {
	loader ConfigLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedConfig
}

type cachedConfig struct {
	config    domain.GameConfig
	expiresAt time.Time
}

func NewConfigRepository(loader ConfigLoader, ttl time.Duration) *ConfigRepository {
	return &ConfigRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedConfig),
	}
}

// GetConfig returns a copy so callers may not mutate the cached entry.
func (r *ConfigRepository) GetConfig(ctx context.Context, name string) (domain.GameConfig, error) {
	if cfg, ok := r.cached(name); ok {
		return cfg.Clone(), nil
	}

	result, err, _ := r.sf.Do(name, func() (interface{}, error) {
		if cfg, ok := r.cached(name); ok {
			return cfg, nil
		}

		cfg, err := r.loader.LoadConfig(ctx, name)
		if err != nil {
			return domain.GameConfig{}, err
		}

		r.mu.Lock()
		r.cache[name] = cachedConfig{
			config:    cfg,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return domain.GameConfig{}, err
	}
	return result.(domain.GameConfig).Clone(), nil
}

func (r *ConfigRepository) cached(name string) (domain.GameConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[name]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.GameConfig{}, false
	}
	return entry.config, true
}

func (r *ConfigRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticConfigLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticConfigLoader struct {
	configs map[string]domain.GameConfig
}

func NewStaticConfigLoader(configs map[string]domain.GameConfig) *StaticConfigLoader {
	return &StaticConfigLoader{configs: configs}
}

func (l *StaticConfigLoader) LoadConfig(_ context.Context, name string) (domain.GameConfig, error) {
	if cfg, ok := l.configs[name]; ok {
		return cfg.Clone(), nil
	}
	return domain.GameConfig{}, domain.ErrConfigNotFound
}

func (l *StaticConfigLoader) ListConfigs(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(l.configs))
	for name := range l.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
