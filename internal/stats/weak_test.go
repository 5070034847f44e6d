package stats

import (
	"testing"

	"github.com/verte-zerg/flipdrill/internal/model"
)

func testAggs() []model.ShotAggregate {
	return []model.ShotAggregate{
		{Label: "Left Orbit", Side: model.Left, Attempts: 10, Exact: 9, AbsErrorSum: 5},
		{Label: "Right Ramp", Side: model.Right, Attempts: 8, Exact: 2, AbsErrorSum: 60},
		{Label: "Center Spinner", Side: model.Left, Attempts: 12, Exact: 6, AbsErrorSum: 40},
	}
}

func TestSelectWeakShots(t *testing.T) {
	weak := SelectWeakShots(testAggs(), 2)
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak shots, got %d", len(weak))
	}
	if _, ok := weak["Right Ramp/right"]; !ok {
		t.Fatalf("expected Right Ramp/right in weak set, got %v", weak)
	}
	if _, ok := weak["Center Spinner/left"]; !ok {
		t.Fatalf("expected Center Spinner/left in weak set, got %v", weak)
	}
	if _, ok := weak["Left Orbit/left"]; ok {
		t.Fatalf("strongest shot should not be in weak set")
	}
}

func TestSelectWeakShotsTopBounds(t *testing.T) {
	all := SelectWeakShots(testAggs(), 0)
	if len(all) != 3 {
		t.Fatalf("expected all shots for top=0, got %d", len(all))
	}
	if got := SelectWeakShots(nil, 3); len(got) != 0 {
		t.Fatalf("expected empty set for no aggregates, got %v", got)
	}
}

func TestTopShotsByAttempts(t *testing.T) {
	top := TopShotsByAttempts(testAggs(), 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(top))
	}
	if top[0] != "Center Spinner/left" {
		t.Fatalf("expected Center Spinner/left first, got %q", top[0])
	}
	if top[1] != "Left Orbit/left" {
		t.Fatalf("expected Left Orbit/left second, got %q", top[1])
	}
	if got := TopShotsByAttempts(nil, 2); got != nil {
		t.Fatalf("expected nil for no aggregates, got %v", got)
	}
}
