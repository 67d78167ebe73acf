package leaderboard

import (
	"github.com/samber/lo"

	ws "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

// toWSEntries assigns 1-based ranks in slice order.
func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	return lo.Map(entries, func(e Entry, i int) ws.LeaderboardEntry {
		return ws.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      e.UserID.String(),
			DisplayName: e.DisplayName,
			Score:       e.Score,
			Wins:        e.Wins,
			Games:       e.Games,
			Accuracy:    e.Accuracy,
		}
	})
}

func isValidWindow(window string) bool {
	return lo.Contains(defaultWindows, window)
}
