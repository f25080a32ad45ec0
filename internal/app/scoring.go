package app

import (
	"math"
	"time"

	"live-quiz-service/internal/domain"
)

// maxTimeBonus is awarded for an answer submitted the instant answering opens.
const maxTimeBonus = 500

// ScoreAnswer computes the points one submission earns for a question.
// answeredAt and answeringStartedAt may be nil when no timing was recorded.
func ScoreAnswer(q domain.Question, settings domain.Settings, selected []int, answeredAt, answeringStartedAt *time.Time) int {
	correct := make(map[int]bool)
	for _, i := range q.CorrectIndices() {
		correct[i] = true
	}
	chosen := make(map[int]bool, len(selected))
	for _, i := range selected {
		chosen[i] = true
	}

	var award int
	switch q.AnswerType {
	case domain.AnswerSingle:
		if len(chosen) == len(correct) && len(chosen) > 0 {
			award = settings.PointsPerCorrectAnswer
			for i := range chosen {
				if !correct[i] {
					award = 0
					break
				}
			}
		}
	case domain.AnswerMultiple:
		hit, miss := 0, 0
		for i := range chosen {
			if correct[i] {
				hit++
			} else {
				miss++
			}
		}
		if hit > 0 && len(correct) > 0 {
			base := float64(hit) / float64(len(correct)) * float64(settings.PointsPerCorrectAnswer)
			penalty := math.Max(0, 1-0.25*float64(miss))
			award = int(math.Floor(base * penalty))
		}
	}

	if award > 0 && settings.TimeBonus {
		award += timeBonus(q.TimeLimit, answeredAt, answeringStartedAt)
	}
	return award
}

func timeBonus(limitSeconds int, answeredAt, startedAt *time.Time) int {
	if answeredAt == nil || startedAt == nil || limitSeconds <= 0 || answeredAt.Before(*startedAt) {
		return 0
	}
	limit := float64(limitSeconds)
	elapsed := answeredAt.Sub(*startedAt).Seconds()
	remaining := math.Max(0, limit-elapsed)
	return int(math.Max(0, math.Floor(remaining/limit*maxTimeBonus)))
}

// CalculateScores returns the points each player earns for the current
// question. It does not mutate the state.
func CalculateScores(state *domain.GameState) map[string]int {
	question, ok := state.CurrentQuestion()
	if !ok {
		return nil
	}
	idx := state.CurrentQuestionIndex
	deltas := make(map[string]int, len(state.Players))
	for id, p := range state.Players {
		var answeredAt *time.Time
		if t, ok := p.AnswerTimes[idx]; ok {
			answeredAt = &t
		}
		deltas[id] = ScoreAnswer(question, state.Config.Settings, p.Answers[idx], answeredAt, state.AnswerStartTime)
	}
	return deltas
}
