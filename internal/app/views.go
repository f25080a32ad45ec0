package app

import (
	"time"

	"live-quiz-service/internal/domain"
)

// Audience is one of the two broadcast groups of a session.
type Audience string

const (
	AudienceHost    Audience = "host"
	AudiencePlayers Audience = "players"
)

// AnswerView is an answer as shown to an audience. Correct is nil when the
// audience may not see correctness yet.
type AnswerView struct {
	Text    string `json:"text"`
	Correct *bool  `json:"correct,omitempty"`
}

type QuestionView struct {
	Question      string            `json:"question"`
	Answers       []AnswerView      `json:"answers"`
	AnswerType    domain.AnswerType `json:"answerType"`
	TimeLimit     int               `json:"timeLimit"`
	ReadTime      int               `json:"readTime"`
	MediaType     string            `json:"mediaType,omitempty"`
	MediaURL      string            `json:"mediaUrl,omitempty"`
	BackgroundURL string            `json:"backgroundUrl,omitempty"`
}

type ConfigView struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Settings    domain.Settings `json:"settings"`
	Questions   []QuestionView  `json:"questions"`
}

type PlayerView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Score     int           `json:"score"`
	Answers   map[int][]int `json:"answers"`
	Connected bool          `json:"connected"`
}

// StateView is the projection of a GameState sent to clients.
type StateView struct {
	GameID               string                `json:"gameId"`
	Config               ConfigView            `json:"config"`
	CurrentQuestionIndex int                   `json:"currentQuestionIndex"`
	Phase                domain.Phase          `json:"phase"`
	Players              map[string]PlayerView `json:"players"`
	QuestionStartTime    *time.Time            `json:"questionStartTime,omitempty"`
	AnswerStartTime      *time.Time            `json:"answerStartTime,omitempty"`
	AnswerCounts         map[int]int           `json:"answerCounts,omitempty"`
}

// includesCorrect reports whether the audience may see correctness flags in phase.
func includesCorrect(audience Audience, phase domain.Phase) bool {
	return audience == AudienceHost || phase.RevealsAnswers()
}

// viewLocked builds an independent copy of the state for the audience.
func (s *Session) viewLocked(audience Audience) StateView {
	st := s.state
	withCorrect := includesCorrect(audience, st.Phase)

	questions := make([]QuestionView, len(st.Config.Questions))
	for i, q := range st.Config.Questions {
		answers := make([]AnswerView, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = AnswerView{Text: a.Text}
			if withCorrect {
				correct := a.Correct
				answers[j].Correct = &correct
			}
		}
		questions[i] = QuestionView{
			Question:      q.Question,
			Answers:       answers,
			AnswerType:    q.AnswerType,
			TimeLimit:     q.TimeLimit,
			ReadTime:      q.ReadTime,
			MediaType:     q.MediaType,
			MediaURL:      q.MediaURL,
			BackgroundURL: q.BackgroundURL,
		}
	}

	players := make(map[string]PlayerView, len(st.Players))
	for id, p := range st.Players {
		players[id] = playerView(p)
	}

	view := StateView{
		GameID: st.GameID,
		Config: ConfigView{
			Name:        st.Config.Name,
			Description: st.Config.Description,
			Settings:    st.Config.Settings,
			Questions:   questions,
		},
		CurrentQuestionIndex: st.CurrentQuestionIndex,
		Phase:                st.Phase,
		Players:              players,
	}
	if st.QuestionStartTime != nil {
		t := *st.QuestionStartTime
		view.QuestionStartTime = &t
	}
	if st.AnswerStartTime != nil {
		t := *st.AnswerStartTime
		view.AnswerStartTime = &t
	}
	if st.Phase == domain.PhaseDistribution {
		view.AnswerCounts = s.answerCountsLocked()
	}
	return view
}

func playerView(p *domain.Player) PlayerView {
	answers := make(map[int][]int, len(p.Answers))
	for k, v := range p.Answers {
		answers[k] = append([]int(nil), v...)
	}
	return PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Score:     p.Score,
		Answers:   answers,
		Connected: p.Connected,
	}
}
