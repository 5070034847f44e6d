package session

import (
	"math/rand"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/sequence"
	"github.com/verte-zerg/flipdrill/internal/solver"
)

// maxOffsetSteps caps randomization and drift at four grid steps from the
// base value regardless of configuration.
const maxOffsetSteps = 4

// Hidden holds the session's truth values, parallel to the shot sequence
// and joined by shot id.
type Hidden struct {
	entries []hiddenEntry
}

type hiddenEntry struct {
	shotID string
	left   model.Percent
	right  model.Percent
}

// Truth returns the current hidden value for a shot side.
func (h Hidden) Truth(shotID string, side model.Side) (model.Percent, bool) {
	for _, e := range h.entries {
		if e.shotID == shotID {
			if side == model.Right {
				return e.right, true
			}
			return e.left, true
		}
	}
	return model.Percent{}, false
}

// randomizeHidden derives truth values from the base sequence: each
// non-sentinel base value is offset by a uniform draw in
// {-steps..+steps}*Step, then the whole side is re-solved with per-entry
// bounds of the same width so no value ends up further from its base than
// the configured offset. Sentinels pass through. The base sequence already
// satisfies the invariant within every bound, so the solve cannot fail; if
// it somehow does, the base values are used as-is.
func randomizeHidden(seq *sequence.Sequence, steps int, rnd *rand.Rand) Hidden {
	steps = clampSteps(steps)
	shots := seq.Shots()
	h := Hidden{entries: make([]hiddenEntry, len(shots))}
	for i, shot := range shots {
		h.entries[i].shotID = shot.ID
	}
	for _, side := range []model.Side{model.Left, model.Right} {
		values := make([]model.Percent, len(shots))
		bounds := make([]solver.Bounds, len(shots))
		for i, shot := range shots {
			base := shot.Value(side)
			if !base.Possible() {
				values[i] = model.NotPossible()
				continue
			}
			offset := (rnd.Intn(2*steps+1) - steps) * model.Step
			values[i] = model.NewPercent(base.Value() + offset)
			bounds[i] = solver.Bounds{
				Min: base.Value() - steps*model.Step,
				Max: base.Value() + steps*model.Step,
			}
		}
		solved, err := solver.Solve(values, directionFor(side), bounds)
		if err != nil {
			solved = make([]model.Percent, len(shots))
			for i, shot := range shots {
				solved[i] = shot.Value(side)
			}
		}
		for i := range h.entries {
			if side == model.Right {
				h.entries[i].right = solved[i]
			} else {
				h.entries[i].left = solved[i]
			}
		}
	}
	return h
}

func clampSteps(steps int) int {
	if steps < 0 {
		return 0
	}
	if steps > maxOffsetSteps {
		return maxOffsetSteps
	}
	return steps
}

func directionFor(side model.Side) solver.Direction {
	if side == model.Right {
		return solver.Descending
	}
	return solver.Ascending
}
