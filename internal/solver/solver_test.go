package solver

import (
	"math/rand"
	"testing"

	"github.com/verte-zerg/flipdrill/internal/model"
)

func pcts(vals ...int) []model.Percent {
	out := make([]model.Percent, len(vals))
	for i, v := range vals {
		if v < 0 {
			out[i] = model.NotPossible()
			continue
		}
		out[i] = model.NewPercent(v)
	}
	return out
}

func values(t *testing.T, seq []model.Percent) []int {
	t.Helper()
	out := make([]int, len(seq))
	for i, p := range seq {
		if !p.Possible() {
			out[i] = -1
			continue
		}
		out[i] = p.Value()
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSolveNoViolationUnchanged(t *testing.T) {
	got, err := Solve(pcts(20, 40, 60), Ascending, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !equalInts(values(t, got), []int{20, 40, 60}) {
		t.Fatalf("expected unchanged sequence, got %v", values(t, got))
	}
}

func TestSolveFullReversal(t *testing.T) {
	got, err := Solve(pcts(60, 40, 20), Ascending, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !equalInts(values(t, got), []int{35, 40, 45}) {
		t.Fatalf("expected [35 40 45], got %v", values(t, got))
	}
}

func TestSolveDescendingMirror(t *testing.T) {
	got, err := Solve(pcts(20, 40, 60), Descending, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !equalInts(values(t, got), []int{45, 40, 35}) {
		t.Fatalf("expected [45 40 35], got %v", values(t, got))
	}
}

func TestSolveSentinelFixed(t *testing.T) {
	got, err := Solve(pcts(-1, 50, 30), Ascending, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	vals := values(t, got)
	if vals[0] != -1 {
		t.Fatalf("sentinel entry must stay sentinel, got %v", vals)
	}
	if !(vals[1] < vals[2]) {
		t.Fatalf("non-sentinel entries not strictly increasing: %v", vals)
	}
	if !equalInts(vals, []int{-1, 40, 45}) {
		t.Fatalf("expected [-- 40 45], got %v", vals)
	}
}

func TestSolveAllSentinel(t *testing.T) {
	got, err := Solve(pcts(-1, -1, -1), Ascending, nil)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	for i, p := range got {
		if p.Possible() {
			t.Fatalf("entry %d changed from sentinel", i)
		}
	}
}

func TestSolveSingleEntryClampedToBounds(t *testing.T) {
	bounds := []Bounds{{Min: 60, Max: 80}}
	got, err := Solve(pcts(50), Ascending, bounds)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if got[0].Value() != 60 {
		t.Fatalf("expected clamp to 60, got %d", got[0].Value())
	}
}

func TestSolveRespectsBounds(t *testing.T) {
	in := pcts(70, 30, 50)
	bounds := []Bounds{
		{Min: 60, Max: 80},
		{Min: 20, Max: 90},
		{Min: 40, Max: 95},
	}
	got, err := Solve(in, Ascending, bounds)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	prev := 0
	for i, p := range got {
		v := p.Value()
		if v < bounds[i].Min || v > bounds[i].Max {
			t.Fatalf("entry %d value %d outside bounds %+v", i, v, bounds[i])
		}
		if v <= prev {
			t.Fatalf("not strictly increasing: %v", values(t, got))
		}
		prev = v
	}
}

func TestSolveInfeasibleBounds(t *testing.T) {
	in := pcts(50, 45)
	bounds := []Bounds{
		{Min: 50, Max: 50},
		{Min: 35, Max: 45},
	}
	if _, err := Solve(in, Ascending, bounds); err != ErrInfeasible {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestSolvePureInput(t *testing.T) {
	in := pcts(60, 40, 20)
	if _, err := Solve(in, Ascending, nil); err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !equalInts(values(t, in), []int{60, 40, 20}) {
		t.Fatalf("input mutated: %v", values(t, in))
	}
}

func TestSolvePropertiesRandomized(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := 1 + rnd.Intn(10)
		in := make([]model.Percent, n)
		for i := range in {
			if rnd.Intn(5) == 0 {
				in[i] = model.NotPossible()
				continue
			}
			in[i] = model.NewPercent(model.MinValue + rnd.Intn(19)*model.Step)
		}
		dir := Ascending
		if rnd.Intn(2) == 1 {
			dir = Descending
		}
		out, err := Solve(in, dir, nil)
		if err != nil {
			t.Fatalf("iter %d: solve: %v", iter, err)
		}
		assertInvariant(t, out, dir)
		again, err := Solve(out, dir, nil)
		if err != nil {
			t.Fatalf("iter %d: re-solve: %v", iter, err)
		}
		if !equalInts(values(t, out), values(t, again)) {
			t.Fatalf("iter %d: not idempotent: %v vs %v", iter, values(t, out), values(t, again))
		}
		for i := range in {
			if in[i].Possible() != out[i].Possible() {
				t.Fatalf("iter %d: sentinel tag changed at %d", iter, i)
			}
			if out[i].Possible() {
				v := out[i].Value()
				if v < model.MinValue || v > model.MaxValue || v%model.Step != 0 {
					t.Fatalf("iter %d: off-grid value %d", iter, v)
				}
			}
		}
	}
}

func assertInvariant(t *testing.T, seq []model.Percent, dir Direction) {
	t.Helper()
	prev := 0
	seen := false
	for i, p := range seq {
		if !p.Possible() {
			continue
		}
		v := p.Value()
		if seen {
			if dir == Ascending && v <= prev {
				t.Fatalf("ascending invariant violated at %d: %d <= %d", i, v, prev)
			}
			if dir == Descending && v >= prev {
				t.Fatalf("descending invariant violated at %d: %d >= %d", i, v, prev)
			}
		}
		prev = v
		seen = true
	}
}
