package stats

import (
	"sort"

	"github.com/verte-zerg/flipdrill/internal/model"
)

// SelectWeakShots selects the lowest-accuracy shot sides from aggregates.
// Keys follow model.ShotAggregate.Key ("label/side").
func SelectWeakShots(aggs []model.ShotAggregate, top int) map[string]struct{} {
	weakSet := map[string]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := make([]model.ShotAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := aggAccuracy(candidates[i])
		aj := aggAccuracy(candidates[j])
		if ai == aj {
			return candidates[i].Key() < candidates[j].Key()
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		weakSet[candidates[i].Key()] = struct{}{}
	}
	return weakSet
}

// TopShotsByAttempts returns the top N shot keys by attempt count.
func TopShotsByAttempts(aggs []model.ShotAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	candidates := make([]model.ShotAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Attempts == candidates[j].Attempts {
			return candidates[i].Key() < candidates[j].Key()
		}
		return candidates[i].Attempts > candidates[j].Attempts
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, candidates[i].Key())
	}
	return out
}

func aggAccuracy(agg model.ShotAggregate) float64 {
	if agg.Attempts == 0 {
		return 1.0
	}
	return float64(agg.Exact) / float64(agg.Attempts)
}
