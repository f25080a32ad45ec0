package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sort"
	"time"

	"live-quiz-service/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Create(session *Session) error
	Get(id string) (*Session, bool)
	Delete(id string)
	IDs() []string
}

// ConfigRepository loads stored game configs (from cache/backing store).
type ConfigRepository interface {
	GetConfig(ctx context.Context, name string) (domain.GameConfig, error)
}

const (
	defaultAutoProceedDelay = time.Second
	sessionIDLength         = 4
	sessionIDAlphabet       = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxSessionIDAttempts    = 16
)

// Option configures a GameService.
type Option func(*GameService)

// WithClock overrides the time source used for new sessions.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

// WithScheduler overrides how auto-advance timers are scheduled.
func WithScheduler(scheduler Scheduler) Option {
	return func(s *GameService) { s.scheduler = scheduler }
}

// WithAutoProceedDelay sets the pause between the last answer and the reveal.
func WithAutoProceedDelay(d time.Duration) Option {
	return func(s *GameService) { s.autoProceedDelay = d }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *GameService) { s.newID = gen }
}

// GameService drives the session state machine: it validates intents against
// the current phase, mutates sessions, and emits audience-specific events.
type GameService struct {
	sessions         SessionRepository
	configs          ConfigRepository
	broadcaster      Broadcaster
	scheduler        Scheduler
	now              func() time.Time
	newID            func() string
	autoProceedDelay time.Duration
}

func NewGameService(store SessionRepository, configs ConfigRepository, broadcaster Broadcaster, opts ...Option) *GameService {
	s := &GameService{
		sessions:         store,
		configs:          configs,
		broadcaster:      broadcaster,
		scheduler:        clockScheduler{},
		now:              time.Now,
		newID:            randomSessionID,
		autoProceedDelay: defaultAutoProceedDelay,
	}
	if s.broadcaster == nil {
		s.broadcaster = NopBroadcaster{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomSessionID() string {
	buf := make([]byte, sessionIDLength)
	limit := big.NewInt(int64(len(sessionIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(fmt.Sprintf("session id entropy: %v", err))
		}
		buf[i] = sessionIDAlphabet[n.Int64()]
	}
	return string(buf)
}

// CreateSession validates cfg and registers a new lobby-phase session.
func (s *GameService) CreateSession(_ context.Context, cfg domain.GameConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	for attempt := 0; attempt < maxSessionIDAttempts; attempt++ {
		session := NewSessionWithClock(s.newID(), cfg, s.now)
		err := s.sessions.Create(session)
		if errors.Is(err, domain.ErrSessionExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		log.Printf("session %s created: %q with %d questions", session.ID(), cfg.Name, len(cfg.Questions))
		return session.ID(), nil
	}
	return "", fmt.Errorf("allocate session id: %w", domain.ErrSessionExists)
}

// CreateSessionFromConfig loads a stored config by name and creates a session from it.
func (s *GameService) CreateSessionFromConfig(ctx context.Context, name string) (string, error) {
	if s.configs == nil {
		return "", domain.ErrConfigNotFound
	}
	cfg, err := s.configs.GetConfig(ctx, name)
	if err != nil {
		return "", err
	}
	return s.CreateSession(ctx, cfg)
}

// DeleteSession stops pending timers and forgets the session.
func (s *GameService) DeleteSession(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	session.stopTimersLocked()
	session.mu.Unlock()
	s.sessions.Delete(id)
	log.Printf("session %s deleted", id)
	return nil
}

// SessionIDs lists live sessions.
func (s *GameService) SessionIDs() []string {
	ids := s.sessions.IDs()
	sort.Strings(ids)
	return ids
}

// HasSession reports whether the session exists.
func (s *GameService) HasSession(id string) bool {
	_, ok := s.sessions.Get(id)
	return ok
}

// State returns the session as seen by the audience.
func (s *GameService) State(_ context.Context, id string, audience Audience) (StateView, error) {
	session, err := s.session(id)
	if err != nil {
		return StateView{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.viewLocked(audience), nil
}

// AttachHost hands the host view to attach while the session is locked, so a
// host connection registered inside attach sees its snapshot before any
// later event of the session.
func (s *GameService) AttachHost(_ context.Context, id string, attach func(StateView)) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	attach(session.viewLocked(AudienceHost))
	return nil
}

// Leaderboard returns the current ranking of the session.
func (s *GameService) Leaderboard(_ context.Context, id string) ([]domain.LeaderboardEntry, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return BuildLeaderboard(session.state.Players), nil
}

func (s *GameService) session(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func invalidTransition(action string, phase domain.Phase) error {
	return fmt.Errorf("%w: cannot %s during %s", domain.ErrInvalidTransition, action, phase)
}

// StartGame leaves the lobby and opens the first question for reading.
func (s *GameService) StartGame(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.startGameLocked() {
		return invalidTransition("start game", session.state.Phase)
	}
	log.Printf("session %s started with %d players", id, len(session.state.Players))
	s.publishStateLocked(session, EventGameStarted)
	s.scheduleReadTimerLocked(session)
	return nil
}

// StartAnswering opens answer submission for the current question.
func (s *GameService) StartAnswering(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.startAnsweringLocked() {
		return invalidTransition("start answering", session.state.Phase)
	}
	if session.readTimer != nil {
		session.readTimer.Stop()
		session.readTimer = nil
	}
	s.publishStateLocked(session, EventStateUpdate)
	return nil
}

// RevealAnswers moves to answer review and announces the correct indices.
func (s *GameService) RevealAnswers(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.revealAnswersLocked() {
		return invalidTransition("reveal answers", session.state.Phase)
	}
	session.stopTimersLocked()
	s.publishRevealLocked(session)
	return nil
}

// ShowDistribution shows the answer histogram for the current question.
func (s *GameService) ShowDistribution(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.showDistributionLocked() {
		return invalidTransition("show distribution", session.state.Phase)
	}
	s.publishStateLocked(session, EventStateUpdate)
	return nil
}

// ShowScoreboard scores the current question exactly once and shows standings.
func (s *GameService) ShowScoreboard(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.showScoreboardLocked() {
		return invalidTransition("show scoreboard", session.state.Phase)
	}
	s.publishScoreboardLocked(session, EventScoreboard)
	return nil
}

// NextQuestion advances to the next question, or to the final leaderboard
// after the last one.
func (s *GameService) NextQuestion(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.nextQuestionLocked() {
		return invalidTransition("advance question", session.state.Phase)
	}
	if session.state.Phase == domain.PhaseLeaderboard {
		s.publishScoreboardLocked(session, EventScoreboard)
		return nil
	}
	s.publishStateLocked(session, EventStateUpdate)
	s.scheduleReadTimerLocked(session)
	return nil
}

// EndGame finishes the session from any phase.
func (s *GameService) EndGame(_ context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	session.stopTimersLocked()
	session.endGameLocked()
	log.Printf("session %s ended", id)
	s.publishScoreboardLocked(session, EventGameEnded)
	s.publishStateLocked(session, EventStateUpdate)
	return nil
}

// JoinResult is returned to a player that joined successfully.
type JoinResult struct {
	PlayerID string
	Player   PlayerView
}

// Join adds a player for the connection, restoring a prior score by name.
func (s *GameService) Join(_ context.Context, id, playerID, name string) (JoinResult, error) {
	session, err := s.session(id)
	if err != nil {
		return JoinResult{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	player, err := session.registry.Join(playerID, name)
	if err != nil {
		return JoinResult{}, err
	}
	view := playerView(player)
	log.Printf("session %s: player %q joined (restored score %d)", id, player.Name, player.Score)

	s.broadcaster.SendToPlayer(id, playerID, Event{Type: EventJoined, Payload: JoinedPayload{PlayerID: playerID, Player: view}})
	s.broadcaster.Publish(id, AudienceHost, Event{Type: EventPlayerAdded, Payload: view})
	s.publishStateLocked(session, EventStateUpdate)
	return JoinResult{PlayerID: playerID, Player: view}, nil
}

// RenamePlayer is the host renaming a player; the player is told directly.
func (s *GameService) RenamePlayer(_ context.Context, id, playerID, newName string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	oldName, err := session.registry.Rename(playerID, newName)
	if err != nil {
		return err
	}
	player, _ := session.registry.Get(playerID)
	s.broadcaster.SendToPlayer(id, playerID, Event{Type: EventNameUpdatedByHost, Payload: NameUpdatedPayload{
		OldName: oldName,
		NewName: player.Name,
		Message: fmt.Sprintf("Host updated your name from %q to %q", oldName, player.Name),
	}})
	s.broadcaster.Publish(id, AudienceHost, Event{Type: EventPlayerRenamed, Payload: PlayerRenamedPayload{
		PlayerID: playerID,
		OldName:  oldName,
		NewName:  player.Name,
	}})
	s.publishStateLocked(session, EventStateUpdate)
	return nil
}

// RenameSelf is a player changing their own name.
func (s *GameService) RenameSelf(_ context.Context, id, playerID, newName string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	oldName, err := session.registry.Rename(playerID, newName)
	if err != nil {
		return err
	}
	player, _ := session.registry.Get(playerID)
	s.broadcaster.Publish(id, AudienceHost, Event{Type: EventPlayerRenamed, Payload: PlayerRenamedPayload{
		PlayerID: playerID,
		OldName:  oldName,
		NewName:  player.Name,
	}})
	s.publishStateLocked(session, EventStateUpdate)
	return nil
}

// SubmitAnswer records the player's selection for the current question.
func (s *GameService) SubmitAnswer(_ context.Context, id, playerID string, indices []int) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	selected, err := session.submitAnswerLocked(playerID, indices)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return invalidTransition("submit answer", session.state.Phase)
		}
		return err
	}

	answered, connected := session.answeredLocked()
	s.broadcaster.SendToPlayer(id, playerID, Event{Type: EventAnswerSubmitted, Payload: AnswerSubmittedPayload{AnswerIndices: selected}})
	answeredEvt := Event{Type: EventPlayerAnswered, Payload: PlayerAnsweredPayload{
		PlayerID:      playerID,
		AnsweredCount: answered,
		TotalPlayers:  connected,
	}}
	s.broadcaster.Publish(id, AudienceHost, answeredEvt)
	s.broadcaster.Publish(id, AudiencePlayers, answeredEvt)
	s.publishStateLocked(session, EventStateUpdate)
	s.maybeAutoProceedLocked(session)
	return nil
}

// Disconnect marks the player offline. Unknown sessions or players are ignored
// so late or duplicate disconnects are harmless.
func (s *GameService) Disconnect(_ context.Context, id, playerID string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	player, err := session.registry.MarkDisconnected(playerID)
	if err != nil {
		return
	}
	log.Printf("session %s: player %q disconnected, %d still connected", id, player.Name, session.registry.ConnectedCount())
	s.broadcaster.Publish(id, AudienceHost, Event{Type: EventPlayerDisconnected, Payload: PlayerDisconnectedPayload{
		PlayerID: playerID,
		Name:     player.Name,
	}})
	s.publishStateLocked(session, EventStateUpdate)
	s.maybeAutoProceedLocked(session)
}

// ClearDisconnected purges offline player records and returns how many were removed.
func (s *GameService) ClearDisconnected(_ context.Context, id string) (int, error) {
	session, err := s.session(id)
	if err != nil {
		return 0, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	removed := session.registry.PurgeDisconnected()
	if removed > 0 {
		s.publishStateLocked(session, EventStateUpdate)
	}
	return removed, nil
}

func (s *GameService) publishStateLocked(session *Session, eventType string) {
	id := session.ID()
	s.broadcaster.Publish(id, AudienceHost, Event{Type: eventType, Payload: session.viewLocked(AudienceHost)})
	s.broadcaster.Publish(id, AudiencePlayers, Event{Type: eventType, Payload: session.viewLocked(AudiencePlayers)})
}

func (s *GameService) publishScoreboardLocked(session *Session, eventType string) {
	id := session.ID()
	leaderboard := BuildLeaderboard(session.state.Players)
	for _, audience := range []Audience{AudienceHost, AudiencePlayers} {
		s.broadcaster.Publish(id, audience, Event{Type: eventType, Payload: ScoreboardPayload{
			Game:        session.viewLocked(audience),
			Leaderboard: leaderboard,
		}})
	}
}

func (s *GameService) publishRevealLocked(session *Session) {
	id := session.ID()
	var correct []int
	if q, ok := session.state.CurrentQuestion(); ok {
		correct = q.CorrectIndices()
	} else {
		log.Printf("session %s: reveal with question index %d out of range", id, session.state.CurrentQuestionIndex)
	}
	revealed := Event{Type: EventAnswerRevealed, Payload: AnswerRevealedPayload{Answers: correct}}
	s.broadcaster.Publish(id, AudiencePlayers, revealed)
	s.broadcaster.Publish(id, AudienceHost, revealed)
	s.publishStateLocked(session, EventStateUpdate)
}

// scheduleReadTimerLocked arms the one-shot timer that opens answering once
// the current question's read time elapses.
func (s *GameService) scheduleReadTimerLocked(session *Session) {
	q, ok := session.state.CurrentQuestion()
	if !ok {
		return
	}
	if session.readTimer != nil {
		session.readTimer.Stop()
	}
	id, idx := session.ID(), session.state.CurrentQuestionIndex
	delay := time.Duration(q.ReadTime) * time.Second
	session.readTimer = s.scheduler.AfterFunc(delay, func() {
		s.autoStartAnswering(id, idx)
	})
}

func (s *GameService) autoStartAnswering(id string, questionIndex int) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state.CurrentQuestionIndex != questionIndex {
		return
	}
	session.readTimer = nil
	if !session.startAnsweringLocked() {
		return
	}
	s.publishStateLocked(session, EventStateUpdate)
}

// maybeAutoProceedLocked schedules the reveal once every connected player answered.
func (s *GameService) maybeAutoProceedLocked(session *Session) {
	if !session.state.Config.Settings.AutoProceedWhenAllAnswered || session.state.Phase != domain.PhaseQuestionAnswering {
		return
	}
	if session.proceedTimer != nil {
		return
	}
	answered, connected := session.answeredLocked()
	if connected == 0 || answered < connected {
		return
	}
	id, idx := session.ID(), session.state.CurrentQuestionIndex
	session.proceedTimer = s.scheduler.AfterFunc(s.autoProceedDelay, func() {
		s.autoReveal(id, idx)
	})
}

func (s *GameService) autoReveal(id string, questionIndex int) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state.CurrentQuestionIndex != questionIndex {
		return
	}
	session.proceedTimer = nil
	if !session.revealAnswersLocked() {
		log.Printf("session %s: auto-proceed for question %d superseded", id, questionIndex)
		return
	}
	log.Printf("session %s: all players answered question %d, revealing", id, questionIndex)
	s.publishRevealLocked(session)
}
