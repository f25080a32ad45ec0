package app

import "live-quiz-service/internal/domain"

// Outbound event types.
const (
	EventHostJoined         = "host-joined"
	EventJoined             = "joined"
	EventJoinFailed         = "join-failed"
	EventPlayerAdded        = "player-added"
	EventPlayerRenamed      = "player-renamed"
	EventNameUpdatedByHost  = "name-updated-by-host"
	EventPlayerDisconnected = "player-disconnected"
	EventGameStarted        = "game-started"
	EventStateUpdate        = "state-update"
	EventAnswerSubmitted    = "answer-submitted"
	EventPlayerAnswered     = "player-answered"
	EventAnswerRevealed     = "answer-revealed"
	EventScoreboard         = "scoreboard"
	EventGameEnded          = "game-ended"
	EventError              = "error"
)

// Event is a message for the fan-out layer.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Broadcaster delivers events to the audiences and connections of a session.
// Implementations must not block: events are published while the session
// lock is held so that their order matches the order of state changes.
type Broadcaster interface {
	Publish(sessionID string, audience Audience, evt Event)
	SendToPlayer(sessionID, playerID string, evt Event)
}

type JoinedPayload struct {
	PlayerID string     `json:"playerId"`
	Player   PlayerView `json:"player"`
}

type PlayerRenamedPayload struct {
	PlayerID string `json:"playerId"`
	OldName  string `json:"oldName"`
	NewName  string `json:"newName"`
}

type NameUpdatedPayload struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
	Message string `json:"message"`
}

type PlayerDisconnectedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type AnswerSubmittedPayload struct {
	AnswerIndices []int `json:"answerIndices"`
}

type PlayerAnsweredPayload struct {
	PlayerID      string `json:"playerId"`
	AnsweredCount int    `json:"answeredCount"`
	TotalPlayers  int    `json:"totalPlayers"`
}

type AnswerRevealedPayload struct {
	Answers []int `json:"answers"`
}

// ScoreboardPayload is used for both scoreboard and game-ended events.
type ScoreboardPayload struct {
	Game        StateView                 `json:"game"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NopBroadcaster drops every event.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(string, Audience, Event)    {}
func (NopBroadcaster) SendToPlayer(string, string, Event) {}
