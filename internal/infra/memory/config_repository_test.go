package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func TestConfigRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		ConfigLoader: NewStaticConfigLoader(map[string]domain.GameConfig{
			"basics": sampleConfig(),
		}),
	}
	repo := NewConfigRepository(loader, time.Minute)

	if _, err := repo.GetConfig(context.Background(), "basics"); err != nil {
		t.Fatalf("get config: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	cfg, err := repo.GetConfig(context.Background(), "basics")
	if err != nil {
		t.Fatalf("get config 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}

	cfg.Questions[0].Answers[1].Correct = false
	again, _ := repo.GetConfig(context.Background(), "basics")
	if !again.Questions[0].Answers[1].Correct {
		t.Fatalf("cached config was mutated through a returned copy")
	}
}

func TestConfigRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		ConfigLoader: NewStaticConfigLoader(map[string]domain.GameConfig{
			"basics": sampleConfig(),
		}),
	}
	repo := NewConfigRepository(loader, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := repo.GetConfig(ctx, "basics"); err != nil {
		t.Fatalf("get config: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetConfig(ctx, "basics"); err != nil {
		t.Fatalf("get config after expiry: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", loader.calls.Load())
	}
}

func TestConfigRepositoryCollapsesConcurrentLoads(t *testing.T) {
	release := make(chan struct{})
	loader := &countingLoader{
		ConfigLoader: NewStaticConfigLoader(map[string]domain.GameConfig{"basics": sampleConfig()}),
		gate:         release,
	}
	repo := NewConfigRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetConfig(context.Background(), "basics"); err != nil {
				t.Errorf("get config: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if loader.calls.Load() != 1 {
		t.Fatalf("expected a single load, got %d", loader.calls.Load())
	}
}

func TestConfigRepositoryNotFound(t *testing.T) {
	repo := NewConfigRepository(NewStaticConfigLoader(nil), time.Minute)
	if _, err := repo.GetConfig(context.Background(), "missing"); !errors.Is(err, domain.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

type countingLoader struct {
	ConfigLoader
	calls atomic.Int32
	gate  chan struct{}
}

func (l *countingLoader) LoadConfig(ctx context.Context, name string) (domain.GameConfig, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.ConfigLoader.LoadConfig(ctx, name)
}

func sampleConfig() domain.GameConfig {
	return domain.GameConfig{
		Name:     "basics",
		Settings: domain.Settings{PointsPerCorrectAnswer: 100},
		Questions: []domain.Question{
			{
				Question:   "What is 2 + 2?",
				Answers:    []domain.Answer{{Text: "3"}, {Text: "4", Correct: true}},
				AnswerType: domain.AnswerSingle,
				TimeLimit:  20,
			},
		},
	}
}
