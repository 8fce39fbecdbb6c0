package game

import (
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/rules"
)

// ReplayCumulativeScore folds a game's event log back into the final
// cumulative score by summing the awarded scores of every round.completed
// event. The flag is false when a running sum differs from the cumulative
// totals that event carries, or when a payload is not a
// RoundCompletedPayload.
func ReplayCumulativeScore(log []events.Event) ([2]int, bool) {
	var scores [2]int
	consistent := true
	for _, ev := range log {
		if ev.Type != events.TypeRoundCompleted {
			continue
		}
		p, ok := ev.Payload.(RoundCompletedPayload)
		if !ok {
			consistent = false
			continue
		}
		scores[rules.TeamA] += p.Result.Awarded[rules.TeamA]
		scores[rules.TeamB] += p.Result.Awarded[rules.TeamB]
		if scores != p.Cumulative {
			consistent = false
		}
	}
	return scores, consistent
}
