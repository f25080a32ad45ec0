package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"live-quiz-service/internal/domain"
)

func singleQuestion() domain.Question {
	return domain.Question{
		Question:   "Pick B",
		Answers:    []domain.Answer{{Text: "A"}, {Text: "B", Correct: true}, {Text: "C"}},
		AnswerType: domain.AnswerSingle,
		TimeLimit:  20,
	}
}

func multipleQuestion() domain.Question {
	return domain.Question{
		Question:   "Pick A and B",
		Answers:    []domain.Answer{{Text: "A", Correct: true}, {Text: "B", Correct: true}, {Text: "C"}, {Text: "D"}},
		AnswerType: domain.AnswerMultiple,
		TimeLimit:  20,
	}
}

func TestScoreAnswerSingleChoice(t *testing.T) {
	settings := domain.Settings{PointsPerCorrectAnswer: 100}
	q := singleQuestion()

	assert.Equal(t, 100, ScoreAnswer(q, settings, []int{1}, nil, nil))
	assert.Equal(t, 0, ScoreAnswer(q, settings, []int{0, 1}, nil, nil))
	assert.Equal(t, 0, ScoreAnswer(q, settings, []int{}, nil, nil))
	assert.Equal(t, 0, ScoreAnswer(q, settings, nil, nil, nil))
	assert.Equal(t, 0, ScoreAnswer(q, settings, []int{2}, nil, nil))
}

func TestScoreAnswerMultipleChoicePartialCredit(t *testing.T) {
	settings := domain.Settings{PointsPerCorrectAnswer: 100}
	q := multipleQuestion()

	cases := []struct {
		name     string
		selected []int
		want     int
	}{
		{"all correct", []int{0, 1}, 100},
		{"half", []int{0}, 50},
		{"half with one miss", []int{0, 2}, 37},
		{"all with two misses", []int{0, 1, 2, 3}, 50},
		{"only wrong", []int{2, 3}, 0},
		{"nothing", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreAnswer(q, settings, tc.selected, nil, nil))
		})
	}
}

func TestScoreAnswerPenaltyNeverNegative(t *testing.T) {
	settings := domain.Settings{PointsPerCorrectAnswer: 100}
	q := domain.Question{
		Answers: []domain.Answer{
			{Correct: true}, {Correct: true}, {}, {}, {}, {}, {},
		},
		AnswerType: domain.AnswerMultiple,
		TimeLimit:  10,
	}
	assert.Equal(t, 0, ScoreAnswer(q, settings, []int{0, 2, 3, 4, 5, 6}, nil, nil))
}

func TestScoreAnswerTimeBonus(t *testing.T) {
	settings := domain.Settings{PointsPerCorrectAnswer: 100, TimeBonus: true}
	q := singleQuestion()
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	answered := start.Add(5 * time.Second)

	assert.Equal(t, 475, ScoreAnswer(q, settings, []int{1}, &answered, &start))

	// no bonus on a wrong answer regardless of timing
	assert.Equal(t, 0, ScoreAnswer(q, settings, []int{0}, &answered, &start))

	late := start.Add(30 * time.Second)
	assert.Equal(t, 100, ScoreAnswer(q, settings, []int{1}, &late, &start))

	early := start.Add(-time.Second)
	assert.Equal(t, 100, ScoreAnswer(q, settings, []int{1}, &early, &start))

	assert.Equal(t, 100, ScoreAnswer(q, settings, []int{1}, nil, &start))

	settings.TimeBonus = false
	assert.Equal(t, 100, ScoreAnswer(q, settings, []int{1}, &answered, &start))
}

func TestCalculateScoresIsPure(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	state := &domain.GameState{
		Config: domain.GameConfig{
			Settings:  domain.Settings{PointsPerCorrectAnswer: 100},
			Questions: []domain.Question{singleQuestion()},
		},
		CurrentQuestionIndex: 0,
		Phase:                domain.PhaseAnswerReview,
		AnswerStartTime:      &start,
		Players: map[string]*domain.Player{
			"p1": {ID: "p1", Score: 10, Answers: map[int][]int{0: {1}}, AnswerTimes: map[int]time.Time{0: start}},
			"p2": {ID: "p2", Answers: map[int][]int{0: {2}}},
			"p3": {ID: "p3", Answers: map[int][]int{}},
		},
	}

	first := CalculateScores(state)
	second := CalculateScores(state)
	assert.Equal(t, first, second)
	assert.Equal(t, map[string]int{"p1": 100, "p2": 0, "p3": 0}, first)
	assert.Equal(t, 10, state.Players["p1"].Score)

	state.CurrentQuestionIndex = 5
	assert.Nil(t, CalculateScores(state))
}
