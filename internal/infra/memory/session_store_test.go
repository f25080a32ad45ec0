package memory

import (
	"errors"
	"testing"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewSession("ABCD", sampleConfig())
	if err := store.Create(session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, ok := store.Get("ABCD"); !ok || got != session {
		t.Fatalf("expected session present")
	}
	if err := store.Create(app.NewSession("ABCD", sampleConfig())); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
	if ids := store.IDs(); len(ids) != 1 || ids[0] != "ABCD" {
		t.Fatalf("unexpected ids %v", ids)
	}

	store.Delete("ABCD")
	if _, ok := store.Get("ABCD"); ok {
		t.Fatalf("expected session removed")
	}
	store.Delete("ABCD")
}
