package app

import (
	"sort"

	"live-quiz-service/internal/domain"
)

// BuildLeaderboard orders players by score, breaking ties by join order.
// Equal scores share a rank and the following rank is skipped.
func BuildLeaderboard(players map[string]*domain.Player) []domain.LeaderboardEntry {
	ordered := make([]*domain.Player, 0, len(players))
	for _, p := range players {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].JoinOrder < ordered[j].JoinOrder
	})

	entries := make([]domain.LeaderboardEntry, len(ordered))
	for i, p := range ordered {
		rank := i + 1
		if i > 0 && p.Score == ordered[i-1].Score {
			rank = entries[i-1].Rank
		}
		entries[i] = domain.LeaderboardEntry{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Score:      p.Score,
			Rank:       rank,
		}
	}
	return entries
}
