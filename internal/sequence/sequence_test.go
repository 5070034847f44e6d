package sequence

import (
	"testing"

	"github.com/verte-zerg/flipdrill/internal/model"
)

func testShots() []model.Shot {
	return []model.Shot{
		{Label: "Left Orbit", Left: model.NewPercent(20), Right: model.NewPercent(80)},
		{Label: "Left Ramp", Left: model.NewPercent(40), Right: model.NewPercent(60)},
		{Label: "Right Ramp", Left: model.NewPercent(60), Right: model.NewPercent(40)},
		{Label: "Right Orbit", Left: model.NewPercent(80), Right: model.NewPercent(20)},
	}
}

func assertInvariants(t *testing.T, s *Sequence) {
	t.Helper()
	prevLeft, prevRight := 0, 100
	for i, shot := range s.Shots() {
		if shot.Left.Possible() {
			if shot.Left.Value() <= prevLeft {
				t.Fatalf("left invariant violated at %d: %v", i, s.Shots())
			}
			prevLeft = shot.Left.Value()
		}
		if shot.Right.Possible() {
			if shot.Right.Value() >= prevRight {
				t.Fatalf("right invariant violated at %d: %v", i, s.Shots())
			}
			prevRight = shot.Right.Value()
		}
	}
}

func TestNewAssignsIDs(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	seen := map[string]bool{}
	for _, shot := range s.Shots() {
		if shot.ID == "" {
			t.Fatalf("shot %q missing id", shot.Label)
		}
		if seen[shot.ID] {
			t.Fatalf("duplicate id %q", shot.ID)
		}
		seen[shot.ID] = true
	}
}

func TestSetValueRestoresInvariant(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	first := s.Shots()[0]
	// A first-shot left value above every other left value forces a merge.
	if err := s.SetValue(first.ID, model.Left, model.NewPercent(95)); err != nil {
		t.Fatalf("set value: %v", err)
	}
	assertInvariants(t, s)
}

func TestSetSentinelToggleRestoresLastKnown(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	shot := s.Shots()[1]
	prev := shot.Left.Value()
	if err := s.SetSentinel(shot.ID, model.Left); err != nil {
		t.Fatalf("set sentinel: %v", err)
	}
	got, _ := s.ByID(shot.ID)
	if got.Left.Possible() {
		t.Fatalf("expected sentinel after toggle")
	}
	assertInvariants(t, s)
	if err := s.SetSentinel(shot.ID, model.Left); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	got, _ = s.ByID(shot.ID)
	if !got.Left.Possible() || got.Left.Value() != prev {
		t.Fatalf("expected restored value %d, got %v", prev, got.Left)
	}
	assertInvariants(t, s)
}

func TestMoveKeepsIDAndInvariant(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	id := s.Shots()[3].ID
	if err := s.Move(3, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if s.IndexOf(id) != 0 {
		t.Fatalf("expected moved shot at 0, got %d", s.IndexOf(id))
	}
	assertInvariants(t, s)
}

func TestInsertAtReSolves(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	shot := model.Shot{
		Label: "Saucer",
		Left:  model.NewPercent(90),
		Right: model.NewPercent(90),
	}
	if err := s.InsertAt(1, shot); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if s.Len() != 5 {
		t.Fatalf("expected 5 shots, got %d", s.Len())
	}
	assertInvariants(t, s)
}

func TestRemoveAt(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.RemoveAt(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 shots, got %d", s.Len())
	}
	assertInvariants(t, s)
}

func TestInsertDefaultMidpoint(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// Between left values 20 and 40.
	got := s.InsertDefault(1, model.Left)
	if got.Value() != 30 {
		t.Fatalf("expected midpoint 30, got %v", got)
	}
	// Between right values 80 and 60.
	got = s.InsertDefault(1, model.Right)
	if got.Value() != 70 {
		t.Fatalf("expected midpoint 70, got %v", got)
	}
}

func TestInsertDefaultExtrapolates(t *testing.T) {
	s, err := New(testShots())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// Appending past the last left value 80.
	got := s.InsertDefault(s.Len(), model.Left)
	if got.Value() != 85 {
		t.Fatalf("expected 85, got %v", got)
	}
	// Before the first left value 20.
	got = s.InsertDefault(0, model.Left)
	if got.Value() != 15 {
		t.Fatalf("expected 15, got %v", got)
	}
}

func TestInsertDefaultSkipsSentinels(t *testing.T) {
	shots := testShots()
	shots[1].Left = model.NotPossible()
	s, err := New(shots)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// Index 2 sits between left 20 (index 0, sentinel at 1 is transparent)
	// and left 60.
	got := s.InsertDefault(2, model.Left)
	if got.Value() != 40 {
		t.Fatalf("expected 40, got %v", got)
	}
}

func TestInsertDefaultEmptySide(t *testing.T) {
	shots := []model.Shot{
		{Label: "A", Left: model.NotPossible(), Right: model.NewPercent(60)},
	}
	s, err := New(shots)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := s.InsertDefault(0, model.Left)
	if got.Value() != 50 {
		t.Fatalf("expected domain midpoint 50, got %v", got)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	shots := testShots()
	shots[2].Right = model.NotPossible()
	s, err := New(shots)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	data, err := Export(s)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	back, err := Import(data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	orig := s.Shots()
	got := back.Shots()
	if len(got) != len(orig) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(orig))
	}
	for i := range orig {
		if got[i].Label != orig[i].Label {
			t.Fatalf("label mismatch at %d", i)
		}
		if got[i].Left != orig[i].Left || got[i].Right != orig[i].Right {
			t.Fatalf("values changed at %d: %v/%v vs %v/%v",
				i, got[i].Left, got[i].Right, orig[i].Left, orig[i].Right)
		}
	}
}

func TestImportMalformed(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"label":"x"}`),
		[]byte(`[{"left":50,"right":50}]`),
	}
	for _, data := range cases {
		if _, err := Import(data); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}

func TestImportSnapsOffGridValues(t *testing.T) {
	data := []byte(`[{"label":"A","left":23,"right":77}]`)
	s, err := Import(data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	shot := s.Shots()[0]
	if shot.Left.Value() != 25 || shot.Right.Value() != 75 {
		t.Fatalf("expected snapped 25/75, got %v/%v", shot.Left, shot.Right)
	}
}

func TestDefaultSatisfiesInvariants(t *testing.T) {
	seq := Default()
	assertInvariants(t, seq)

	// The built-in layout must be feasible exactly as authored: the solve
	// inside New may not move a single value, or Default could panic.
	wantLeft := []int{20, 35, 50, 65, 80}
	wantRight := []int{80, 70, 50, 35, 20}
	if seq.Len() != len(wantLeft) {
		t.Fatalf("expected %d shots, got %d", len(wantLeft), seq.Len())
	}
	for i, shot := range seq.Shots() {
		if !shot.Left.Possible() || shot.Left.Value() != wantLeft[i] {
			t.Fatalf("shot %d: expected left %d, got %v", i, wantLeft[i], shot.Left)
		}
		if !shot.Right.Possible() || shot.Right.Value() != wantRight[i] {
			t.Fatalf("shot %d: expected right %d, got %v", i, wantRight[i], shot.Right)
		}
	}
}
