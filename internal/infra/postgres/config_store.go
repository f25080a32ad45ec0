package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"live-quiz-service/internal/domain"
)

type gameConfigRow struct {
	bun.BaseModel `bun:"table:game_configs"`

	Name      string            `bun:"name,pk"`
	Data      domain.GameConfig `bun:"data,type:jsonb"`
	UpdatedAt time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ConfigStore writes game configs through bun; reads go through ConfigLoader.
type ConfigStore struct {
	db *bun.DB
}

func NewConfigStore(db *bun.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Save validates cfg and inserts or replaces the row keyed by its name.
func (s *ConfigStore) Save(ctx context.Context, cfg domain.GameConfig) error {
	domain.InferAnswerTypes(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrMalformedConfig)
	}
	row := &gameConfigRow{Name: cfg.Name, Data: cfg, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (name) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save game config %q: %w", cfg.Name, err)
	}
	return nil
}
