package domain

import "fmt"

// Phase is the stage of a game session lifecycle.
type Phase string

const (
	PhaseLobby             Phase = "lobby"
	PhaseQuestionReading   Phase = "question-reading"
	PhaseQuestionAnswering Phase = "question-answering"
	PhaseAnswerReview      Phase = "answer-review"
	PhaseDistribution      Phase = "distribution"
	PhaseScoreboard        Phase = "scoreboard"
	PhaseLeaderboard       Phase = "leaderboard"
	PhaseFinished          Phase = "finished"
)

// Phases lists every phase in lifecycle order.
var Phases = []Phase{
	PhaseLobby,
	PhaseQuestionReading,
	PhaseQuestionAnswering,
	PhaseAnswerReview,
	PhaseDistribution,
	PhaseScoreboard,
	PhaseLeaderboard,
	PhaseFinished,
}

// transitions holds the legal forward edges. Ending the game is handled
// separately because it is legal from every phase.
var transitions = map[Phase][]Phase{
	PhaseLobby:             {PhaseQuestionReading},
	PhaseQuestionReading:   {PhaseQuestionAnswering, PhaseAnswerReview},
	PhaseQuestionAnswering: {PhaseAnswerReview},
	PhaseAnswerReview:      {PhaseDistribution, PhaseScoreboard},
	PhaseDistribution:      {PhaseScoreboard},
	PhaseScoreboard:        {PhaseQuestionReading, PhaseLeaderboard},
	PhaseLeaderboard:       {PhaseFinished},
	PhaseFinished:          {},
}

func init() {
	if err := checkTransitionTable(); err != nil {
		panic(err)
	}
}

func checkTransitionTable() error {
	if len(transitions) != len(Phases) {
		return fmt.Errorf("transition table covers %d phases, want %d", len(transitions), len(Phases))
	}
	for _, p := range Phases {
		targets, ok := transitions[p]
		if !ok {
			return fmt.Errorf("phase %q has no transition entry", p)
		}
		for _, t := range targets {
			if _, ok := transitions[t]; !ok {
				return fmt.Errorf("phase %q transitions to unknown phase %q", p, t)
			}
		}
	}
	return nil
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}

// CanTransition reports whether moving from one phase to another is a legal edge.
func CanTransition(from, to Phase) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// RevealsAnswers reports whether answer correctness is visible to players.
func (p Phase) RevealsAnswers() bool {
	switch p {
	case PhaseAnswerReview, PhaseDistribution, PhaseScoreboard, PhaseLeaderboard, PhaseFinished:
		return true
	case PhaseLobby, PhaseQuestionReading, PhaseQuestionAnswering:
		return false
	}
	return false
}

// HasActiveQuestion reports whether CurrentQuestionIndex must point at a question.
func (p Phase) HasActiveQuestion() bool {
	switch p {
	case PhaseQuestionReading, PhaseQuestionAnswering, PhaseAnswerReview, PhaseDistribution, PhaseScoreboard:
		return true
	}
	return false
}
