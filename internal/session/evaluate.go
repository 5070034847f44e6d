package session

import "github.com/verte-zerg/flipdrill/internal/model"

// maxAbsError is the error charged when exactly one of guess/truth is the
// "not possible" sentinel.
const maxAbsError = model.MaxValue - model.MinValue

// Evaluation is the outcome of scoring one guess.
type Evaluation struct {
	AbsError   int
	Severity   model.Severity
	Adjustment model.Adjustment
}

// evaluate scores a guess against the current truth. prev is the most recent
// attempt on the same shot and side within this session, or nil for a first
// attempt.
//
// Sentinels compare binarily: both sentinel is an exact hit, a mismatch is
// maximal error. Adjustment quality is only computed for repeat attempts
// where the previous guess, its truth, and the new guess all carry
// magnitudes.
func evaluate(guess, truth model.Percent, prev *model.Attempt) Evaluation {
	ev := Evaluation{Adjustment: model.AdjustNone}

	switch {
	case !guess.Possible() && !truth.Possible():
		ev.AbsError = 0
	case !guess.Possible() || !truth.Possible():
		ev.AbsError = maxAbsError
	default:
		ev.AbsError = abs(guess.Value() - truth.Value())
	}
	ev.Severity = severityFor(ev.AbsError)

	if prev != nil && prev.Guess.Possible() && prev.Truth.Possible() && guess.Possible() {
		ev.Adjustment = adjustmentFor(guess, *prev)
	}
	return ev
}

func severityFor(absError int) model.Severity {
	switch {
	case absError == 0:
		return model.Perfect
	case absError <= model.Step:
		return model.Slight
	case absError <= 2*model.Step:
		return model.Fairly
	default:
		return model.Very
	}
}

// adjustmentFor compares the new guess against the previous attempt: the
// correct direction is the one that walks back the previous signed error.
// When the previous guess was exact, holding it is correct and moving away
// is not.
func adjustmentFor(guess model.Percent, prev model.Attempt) model.Adjustment {
	moved := guess.Value() - prev.Guess.Value()
	if moved == 0 {
		prevDelta := prev.Guess.Value() - prev.Truth.Value()
		if prevDelta == 0 {
			return model.AdjustCorrect
		}
		return model.AdjustNoChange
	}
	prevDelta := prev.Guess.Value() - prev.Truth.Value()
	if prevDelta == 0 {
		return model.AdjustIncorrect
	}
	if (prevDelta > 0) == (moved < 0) {
		return model.AdjustCorrect
	}
	return model.AdjustIncorrect
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
