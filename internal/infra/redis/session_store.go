package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions and their timers live in process; Redis holds a liveness marker per
// game id so that ids stay unique across instances sharing the same Redis.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Create(session *app.Session) error {
	id := session.ID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return domain.ErrSessionExists
	}
	claimed, err := s.client.SetNX(context.Background(), s.key(id), session.CreatedAt().Unix(), s.ttl).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return domain.ErrSessionExists
	}
	s.sessions[id] = session
	return nil
}

// Get also refreshes the liveness marker of an active session.
func (s *SessionStore) Get(gameID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[gameID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		// best-effort
		_ = s.client.Expire(context.Background(), s.key(gameID), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[gameID]; !ok {
		return
	}
	delete(s.sessions, gameID)
	if err := s.client.Del(context.Background(), s.key(gameID)).Err(); err != nil {
		log.Printf("redis: release session %s: %v", gameID, err)
	}
}

func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (s *SessionStore) key(gameID string) string {
	return "game:session:" + gameID
}
