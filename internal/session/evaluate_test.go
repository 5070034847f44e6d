package session

import (
	"testing"

	"github.com/verte-zerg/flipdrill/internal/model"
)

func TestEvaluateSeverityBuckets(t *testing.T) {
	cases := []struct {
		guess int
		truth int
		want  model.Severity
		err   int
	}{
		{50, 50, model.Perfect, 0},
		{45, 50, model.Slight, 5},
		{60, 50, model.Fairly, 10},
		{65, 50, model.Very, 15},
		{90, 50, model.Very, 40},
	}
	for _, c := range cases {
		ev := evaluate(model.NewPercent(c.guess), model.NewPercent(c.truth), nil)
		if ev.AbsError != c.err {
			t.Fatalf("guess %d truth %d: absError %d, want %d", c.guess, c.truth, ev.AbsError, c.err)
		}
		if ev.Severity != c.want {
			t.Fatalf("guess %d truth %d: severity %v, want %v", c.guess, c.truth, ev.Severity, c.want)
		}
		if ev.Adjustment != model.AdjustNone {
			t.Fatalf("first attempt must not be adjustment-scored")
		}
	}
}

func TestEvaluateSentinels(t *testing.T) {
	ev := evaluate(model.NotPossible(), model.NotPossible(), nil)
	if ev.AbsError != 0 || ev.Severity != model.Perfect {
		t.Fatalf("matching sentinels should be perfect, got %+v", ev)
	}
	ev = evaluate(model.NewPercent(50), model.NotPossible(), nil)
	if ev.AbsError != maxAbsError || ev.Severity != model.Very {
		t.Fatalf("sentinel mismatch should be maximal error, got %+v", ev)
	}
	ev = evaluate(model.NotPossible(), model.NewPercent(50), nil)
	if ev.AbsError != maxAbsError || ev.Severity != model.Very {
		t.Fatalf("sentinel mismatch should be maximal error, got %+v", ev)
	}
}

func TestEvaluateRepeatAttemptScenario(t *testing.T) {
	truth := model.NewPercent(50)

	first := evaluate(model.NewPercent(30), truth, nil)
	if first.AbsError != 20 || first.Severity != model.Very {
		t.Fatalf("first attempt: got %+v", first)
	}
	if first.Adjustment != model.AdjustNone {
		t.Fatalf("first attempt must have no adjustment score")
	}

	prev := &model.Attempt{
		Guess: model.NewPercent(30),
		Truth: truth,
	}
	second := evaluate(model.NewPercent(60), truth, prev)
	if second.AbsError != 10 || second.Severity != model.Fairly {
		t.Fatalf("second attempt: got %+v", second)
	}
	if second.Adjustment != model.AdjustCorrect {
		t.Fatalf("moving toward the deficit should be correct, got %v", second.Adjustment)
	}
}

func TestEvaluateAdjustmentDirections(t *testing.T) {
	truth := model.NewPercent(50)
	prevHigh := &model.Attempt{Guess: model.NewPercent(70), Truth: truth}

	if ev := evaluate(model.NewPercent(60), truth, prevHigh); ev.Adjustment != model.AdjustCorrect {
		t.Fatalf("downward from an overshoot should be correct, got %v", ev.Adjustment)
	}
	if ev := evaluate(model.NewPercent(80), truth, prevHigh); ev.Adjustment != model.AdjustIncorrect {
		t.Fatalf("upward from an overshoot should be incorrect, got %v", ev.Adjustment)
	}
	if ev := evaluate(model.NewPercent(70), truth, prevHigh); ev.Adjustment != model.AdjustNoChange {
		t.Fatalf("repeating the guess should be no change, got %v", ev.Adjustment)
	}
}

func TestEvaluateAdjustmentAfterExactGuess(t *testing.T) {
	truth := model.NewPercent(50)
	prevExact := &model.Attempt{Guess: model.NewPercent(50), Truth: truth}

	if ev := evaluate(model.NewPercent(50), truth, prevExact); ev.Adjustment != model.AdjustCorrect {
		t.Fatalf("holding an exact guess should be correct, got %v", ev.Adjustment)
	}
	if ev := evaluate(model.NewPercent(55), truth, prevExact); ev.Adjustment != model.AdjustIncorrect {
		t.Fatalf("moving off an exact guess should be incorrect, got %v", ev.Adjustment)
	}
}

func TestEvaluateAdjustmentSkipsSentinels(t *testing.T) {
	truth := model.NewPercent(50)
	prev := &model.Attempt{Guess: model.NotPossible(), Truth: truth}
	if ev := evaluate(model.NewPercent(60), truth, prev); ev.Adjustment != model.AdjustNone {
		t.Fatalf("sentinel previous guess must not be adjustment-scored")
	}
	prev = &model.Attempt{Guess: model.NewPercent(40), Truth: truth}
	if ev := evaluate(model.NotPossible(), truth, prev); ev.Adjustment != model.AdjustNone {
		t.Fatalf("sentinel new guess must not be adjustment-scored")
	}
}
