package domain

import "time"

// AnswerType distinguishes all-or-nothing questions from partial-credit ones.
type AnswerType string

const (
	AnswerSingle   AnswerType = "single"
	AnswerMultiple AnswerType = "multiple"
)

// Answer is one selectable option of a question.
type Answer struct {
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct" yaml:"correct"`
}

// Question models a timed question with one or more correct answers.
type Question struct {
	Question      string     `json:"question" yaml:"question"`
	Answers       []Answer   `json:"answers" yaml:"answers" validate:"required,min=1,dive"`
	AnswerType    AnswerType `json:"answerType" yaml:"answerType" validate:"oneof=single multiple"`
	TimeLimit     int        `json:"timeLimit" yaml:"timeLimit" validate:"gt=0"` // seconds
	ReadTime      int        `json:"readTime" yaml:"readTime" validate:"gte=0"`  // seconds before answering opens
	MediaType     string     `json:"mediaType,omitempty" yaml:"mediaType,omitempty"`
	MediaURL      string     `json:"mediaUrl,omitempty" yaml:"mediaUrl,omitempty"`
	BackgroundURL string     `json:"backgroundUrl,omitempty" yaml:"backgroundUrl,omitempty"`
}

// CorrectIndices returns the indices of all correct answers in order.
func (q Question) CorrectIndices() []int {
	indices := make([]int, 0, len(q.Answers))
	for i, a := range q.Answers {
		if a.Correct {
			indices = append(indices, i)
		}
	}
	return indices
}

// Settings tunes scoring and flow for a game.
type Settings struct {
	PointsPerCorrectAnswer           int  `json:"pointsPerCorrectAnswer" yaml:"pointsPerCorrectAnswer" validate:"gt=0"`
	TimeBonus                        bool `json:"timeBonus" yaml:"timeBonus"`
	ShowLeaderboardAfterEachQuestion bool `json:"showLeaderboardAfterEachQuestion" yaml:"showLeaderboardAfterEachQuestion"`
	ShowCountdown                    bool `json:"showCountdown,omitempty" yaml:"showCountdown,omitempty"`
	AutoProceedWhenAllAnswered       bool `json:"autoProceedWhenAllAnswered,omitempty" yaml:"autoProceedWhenAllAnswered,omitempty"`
}

// GameConfig is the immutable content a session is created from.
type GameConfig struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Settings    Settings   `json:"settings" yaml:"settings"`
	Questions   []Question `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
}

// Clone returns a deep copy so sessions never share question slices with callers.
func (c GameConfig) Clone() GameConfig {
	out := c
	out.Questions = make([]Question, len(c.Questions))
	for i, q := range c.Questions {
		q.Answers = append([]Answer(nil), q.Answers...)
		out.Questions[i] = q
	}
	return out
}

// Player is a participant record inside one session.
type Player struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Score       int               `json:"score"`
	Answers     map[int][]int     `json:"answers"`
	AnswerTimes map[int]time.Time `json:"answerTimes,omitempty"`
	Connected   bool              `json:"connected"`
	// JoinOrder breaks leaderboard ties by insertion order.
	JoinOrder int `json:"-"`
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	out := *p
	out.Answers = make(map[int][]int, len(p.Answers))
	for k, v := range p.Answers {
		out.Answers[k] = append([]int(nil), v...)
	}
	out.AnswerTimes = make(map[int]time.Time, len(p.AnswerTimes))
	for k, v := range p.AnswerTimes {
		out.AnswerTimes[k] = v
	}
	return &out
}

// GameState is the authoritative state of one session.
type GameState struct {
	GameID               string             `json:"gameId"`
	Config               GameConfig         `json:"config"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	Phase                Phase              `json:"phase"`
	Players              map[string]*Player `json:"players"`
	QuestionStartTime    *time.Time         `json:"questionStartTime,omitempty"`
	AnswerStartTime      *time.Time         `json:"answerStartTime,omitempty"`
}

// CurrentQuestion returns the active question. There is none in the lobby,
// after the last question, or when the index is out of range.
func (s *GameState) CurrentQuestion() (Question, bool) {
	if !s.Phase.HasActiveQuestion() || s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Config.Questions) {
		return Question{}, false
	}
	return s.Config.Questions[s.CurrentQuestionIndex], true
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() GameState {
	out := *s
	out.Config = s.Config.Clone()
	out.Players = make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		out.Players[id] = p.Clone()
	}
	if s.QuestionStartTime != nil {
		t := *s.QuestionStartTime
		out.QuestionStartTime = &t
	}
	if s.AnswerStartTime != nil {
		t := *s.AnswerStartTime
		out.AnswerStartTime = &t
	}
	return out
}

// LeaderboardEntry is a derived ranking row.
type LeaderboardEntry struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Rank       int    `json:"rank"`
}
