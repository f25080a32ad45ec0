package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"live-quiz-service/internal/domain"
)

var extensions = []string{".yaml", ".yml"}

// ConfigLoader reads game configs from YAML files in a directory. The config
// name is the file name without its extension.
type ConfigLoader struct {
	dir string
}

func NewConfigLoader(dir string) *ConfigLoader {
	return &ConfigLoader{dir: dir}
}

func (l *ConfigLoader) LoadConfig(_ context.Context, name string) (domain.GameConfig, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return domain.GameConfig{}, fmt.Errorf("%w: %q", domain.ErrConfigNotFound, name)
	}
	for _, ext := range extensions {
		path := filepath.Join(l.dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := LoadFile(path)
		if err != nil {
			return domain.GameConfig{}, err
		}
		if cfg.Name == "" {
			cfg.Name = name
		}
		return cfg, nil
	}
	return domain.GameConfig{}, fmt.Errorf("%w: %q", domain.ErrConfigNotFound, name)
}

// ListConfigs returns the names of all YAML files in the directory.
func (l *ConfigLoader) ListConfigs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

// LoadFile parses a single YAML game file, infers missing answer types and
// validates the result.
func LoadFile(path string) (domain.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GameConfig{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (domain.GameConfig, error) {
	var cfg domain.GameConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return domain.GameConfig{}, fmt.Errorf("%w: %v", domain.ErrMalformedConfig, err)
	}
	domain.InferAnswerTypes(&cfg)
	if err := cfg.Validate(); err != nil {
		return domain.GameConfig{}, err
	}
	return cfg, nil
}
