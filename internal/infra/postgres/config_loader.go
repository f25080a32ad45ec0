package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// ConfigLoader loads game config JSONB from Postgres.
type ConfigLoader struct {
	pool *pgxpool.Pool
}

func NewConfigLoader(pool *pgxpool.Pool) *ConfigLoader {
	return &ConfigLoader{pool: pool}
}

func (l *ConfigLoader) LoadConfig(ctx context.Context, name string) (domain.GameConfig, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM game_configs WHERE name=$1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameConfig{}, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, name)
	}
	if err != nil {
		return domain.GameConfig{}, fmt.Errorf("load game config: %w", err)
	}
	var cfg domain.GameConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.GameConfig{}, fmt.Errorf("unmarshal game config: %w", err)
	}
	domain.InferAnswerTypes(&cfg)
	return cfg, nil
}

func (l *ConfigLoader) ListConfigs(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT name FROM game_configs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list game configs: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
