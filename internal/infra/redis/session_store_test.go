package redis

import (
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	if err := store.Create(app.NewSession("ABCD", sampleConfig())); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("game:session:ABCD") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("game:session:ABCD"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}
	if _, ok := store.Get("ABCD"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("ABCD")
	if mr.Exists("game:session:ABCD") {
		t.Fatalf("expected redis key to be removed")
	}
	if len(store.IDs()) != 0 {
		t.Fatalf("expected no sessions")
	}
}

func TestSessionStoreRejectsIDClaimedByAnotherInstance(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	first := NewSessionStore(newClient(mr), time.Minute)
	second := NewSessionStore(newClient(mr), time.Minute)

	if err := first.Create(app.NewSession("WXYZ", sampleConfig())); err != nil {
		t.Fatalf("create: %v", err)
	}
	err = second.Create(app.NewSession("WXYZ", sampleConfig()))
	if !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
	if _, ok := second.Get("WXYZ"); ok {
		t.Fatalf("second instance must not hold the session")
	}
}
