package app

import (
	"strings"
	"time"

	"live-quiz-service/internal/domain"
)

// Registry maps connection identities to player records for one session and
// keeps a name-indexed score ledger that outlives individual records.
// It is not safe for concurrent use; the owning Session serializes access.
type Registry struct {
	players map[string]*domain.Player
	ledger  map[string]int
	nextSeq int
}

// NewRegistry wraps the given player map, which stays shared with the game state.
func NewRegistry(players map[string]*domain.Player) *Registry {
	return &Registry{
		players: players,
		ledger:  make(map[string]int),
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsNameTaken reports whether a connected player other than excludingID uses name.
func (r *Registry) IsNameTaken(name, excludingID string) bool {
	key := nameKey(name)
	for id, p := range r.players {
		if id == excludingID || !p.Connected {
			continue
		}
		if nameKey(p.Name) == key {
			return true
		}
	}
	return false
}

// Join creates a player for the connection, restoring any score the name
// earned before a disconnect.
func (r *Registry) Join(playerID, name string) (*domain.Player, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return nil, domain.ErrInvalidName
	}
	if _, ok := r.players[playerID]; ok {
		return nil, domain.ErrAlreadyJoined
	}
	if r.IsNameTaken(clean, "") {
		return nil, domain.ErrNameTaken
	}

	key := nameKey(clean)
	for id, p := range r.players {
		if !p.Connected && nameKey(p.Name) == key {
			delete(r.players, id)
		}
	}

	restored := r.ledger[key]
	player := &domain.Player{
		ID:          playerID,
		Name:        clean,
		Score:       restored,
		Answers:     make(map[int][]int),
		AnswerTimes: make(map[int]time.Time),
		Connected:   true,
		JoinOrder:   r.nextSeq,
	}
	r.nextSeq++
	r.players[playerID] = player
	r.ledger[key] = restored
	return player, nil
}

// Get returns the player record for id.
func (r *Registry) Get(playerID string) (*domain.Player, bool) {
	p, ok := r.players[playerID]
	return p, ok
}

// MarkDisconnected flags the player offline and snapshots its score.
func (r *Registry) MarkDisconnected(playerID string) (*domain.Player, error) {
	p, ok := r.players[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	p.Connected = false
	r.ledger[nameKey(p.Name)] = p.Score
	return p, nil
}

// Rename changes a display name. Both the old and new ledger keys keep the
// current score so restoration works under either name.
func (r *Registry) Rename(playerID, newName string) (string, error) {
	clean := strings.TrimSpace(newName)
	if clean == "" {
		return "", domain.ErrInvalidName
	}
	p, ok := r.players[playerID]
	if !ok {
		return "", domain.ErrPlayerNotFound
	}
	if r.IsNameTaken(clean, playerID) {
		return "", domain.ErrNameTaken
	}

	oldName := p.Name
	p.Name = clean
	r.ledger[nameKey(oldName)] = p.Score
	r.ledger[nameKey(clean)] = p.Score
	return oldName, nil
}

// RecordScore syncs the ledger after the player's score changed.
func (r *Registry) RecordScore(playerID string) {
	if p, ok := r.players[playerID]; ok {
		r.ledger[nameKey(p.Name)] = p.Score
	}
}

// StoredScore returns the ledger score for a name, 0 if unknown.
func (r *Registry) StoredScore(name string) int {
	return r.ledger[nameKey(name)]
}

// PurgeDisconnected deletes offline player records; the ledger is kept.
func (r *Registry) PurgeDisconnected() int {
	removed := 0
	for id, p := range r.players {
		if !p.Connected {
			delete(r.players, id)
			removed++
		}
	}
	return removed
}

// ConnectedCount returns the number of connected players.
func (r *Registry) ConnectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}
