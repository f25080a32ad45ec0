package app

import (
	"log"
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// Session owns the authoritative state of one game. All mutation happens
// under mu; the exported transition methods lock for callers outside the
// GameService, which drives the *Locked variants directly.
type Session struct {
	mu        sync.Mutex
	state     *domain.GameState
	registry  *Registry
	scored    map[int]bool
	now       func() time.Time
	createdAt time.Time

	readTimer    Timer
	proceedTimer Timer
}

// NewSession creates a lobby-phase session for cfg.
func NewSession(id string, cfg domain.GameConfig) *Session {
	return NewSessionWithClock(id, cfg, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, cfg domain.GameConfig, now func() time.Time) *Session {
	players := make(map[string]*domain.Player)
	return &Session{
		state: &domain.GameState{
			GameID:               id,
			Config:               cfg.Clone(),
			CurrentQuestionIndex: -1,
			Phase:                domain.PhaseLobby,
			Players:              players,
		},
		registry:  NewRegistry(players),
		scored:    make(map[int]bool),
		now:       now,
		createdAt: now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.state.GameID
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase
}

func (s *Session) StartGame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startGameLocked()
}

func (s *Session) StartAnswering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startAnsweringLocked()
}

func (s *Session) RevealAnswers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealAnswersLocked()
}

func (s *Session) ShowDistribution() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showDistributionLocked()
}

// ShowScoreboard scores the current question and moves to the scoreboard.
func (s *Session) ShowScoreboard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showScoreboardLocked()
}

func (s *Session) NextQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextQuestionLocked()
}

// EndGame forces the finished phase; it always succeeds.
func (s *Session) EndGame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endGameLocked()
}

func (s *Session) moveLocked(to domain.Phase) bool {
	if !domain.CanTransition(s.state.Phase, to) {
		return false
	}
	s.state.Phase = to
	return true
}

// startGameLocked only leaves the lobby; scoreboard also reaches
// question-reading but that edge belongs to nextQuestionLocked.
func (s *Session) startGameLocked() bool {
	if s.state.Phase != domain.PhaseLobby || !s.moveLocked(domain.PhaseQuestionReading) {
		return false
	}
	now := s.now()
	s.state.CurrentQuestionIndex = 0
	s.state.QuestionStartTime = &now
	s.state.AnswerStartTime = nil
	return true
}

func (s *Session) startAnsweringLocked() bool {
	if !s.moveLocked(domain.PhaseQuestionAnswering) {
		return false
	}
	now := s.now()
	s.state.AnswerStartTime = &now
	return true
}

func (s *Session) revealAnswersLocked() bool {
	return s.moveLocked(domain.PhaseAnswerReview)
}

func (s *Session) showDistributionLocked() bool {
	return s.moveLocked(domain.PhaseDistribution)
}

func (s *Session) showScoreboardLocked() bool {
	if !domain.CanTransition(s.state.Phase, domain.PhaseScoreboard) {
		return false
	}
	s.scoreCurrentQuestionLocked()
	s.state.Phase = domain.PhaseScoreboard
	return true
}

func (s *Session) nextQuestionLocked() bool {
	if s.state.Phase != domain.PhaseScoreboard {
		return false
	}
	s.state.CurrentQuestionIndex++
	if s.state.CurrentQuestionIndex >= len(s.state.Config.Questions) {
		return s.moveLocked(domain.PhaseLeaderboard)
	}
	s.moveLocked(domain.PhaseQuestionReading)
	now := s.now()
	s.state.QuestionStartTime = &now
	s.state.AnswerStartTime = nil
	return true
}

func (s *Session) endGameLocked() bool {
	s.state.Phase = domain.PhaseFinished
	return true
}

// scoreCurrentQuestionLocked applies the current question's awards once.
// It reports false when the question was already scored or is out of range.
func (s *Session) scoreCurrentQuestionLocked() bool {
	idx := s.state.CurrentQuestionIndex
	if s.scored[idx] {
		log.Printf("session %s: question %d already scored, skipping", s.state.GameID, idx)
		return false
	}
	if _, ok := s.state.CurrentQuestion(); !ok {
		log.Printf("session %s: cannot score question index %d out of range", s.state.GameID, idx)
		return false
	}
	for id, delta := range CalculateScores(s.state) {
		if delta <= 0 {
			continue
		}
		s.state.Players[id].Score += delta
		s.registry.RecordScore(id)
	}
	s.scored[idx] = true
	return true
}

// submitAnswerLocked records a player's selection for the current question.
func (s *Session) submitAnswerLocked(playerID string, indices []int) ([]int, error) {
	if s.state.Phase != domain.PhaseQuestionAnswering {
		return nil, domain.ErrInvalidTransition
	}
	player, ok := s.registry.Get(playerID)
	if !ok || !player.Connected {
		return nil, domain.ErrPlayerNotFound
	}
	idx := s.state.CurrentQuestionIndex
	if _, done := player.Answers[idx]; done {
		return nil, domain.ErrAlreadyAnswered
	}
	question, ok := s.state.CurrentQuestion()
	if !ok {
		return nil, domain.ErrInvalidTransition
	}

	selected, err := normalizeSelection(indices, len(question.Answers))
	if err != nil {
		return nil, err
	}
	player.Answers[idx] = selected
	player.AnswerTimes[idx] = s.now()
	return selected, nil
}

func normalizeSelection(indices []int, answerCount int) ([]int, error) {
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= answerCount {
			return nil, domain.ErrInvalidAnswer
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// answeredLocked counts connected players who answered the current question.
func (s *Session) answeredLocked() (answered, connected int) {
	idx := s.state.CurrentQuestionIndex
	for _, p := range s.state.Players {
		if !p.Connected {
			continue
		}
		connected++
		if _, ok := p.Answers[idx]; ok {
			answered++
		}
	}
	return answered, connected
}

// answerCountsLocked returns how many players picked each answer index.
func (s *Session) answerCountsLocked() map[int]int {
	counts := make(map[int]int)
	if s.state.CurrentQuestionIndex < 0 {
		return counts
	}
	for _, p := range s.state.Players {
		for _, i := range p.Answers[s.state.CurrentQuestionIndex] {
			counts[i]++
		}
	}
	return counts
}

func (s *Session) stopTimersLocked() {
	if s.readTimer != nil {
		s.readTimer.Stop()
		s.readTimer = nil
	}
	if s.proceedTimer != nil {
		s.proceedTimer.Stop()
		s.proceedTimer = nil
	}
}
