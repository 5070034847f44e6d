// Package sequence maintains the ordered shot list and its ordering
// invariants.
package sequence

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/solver"
)

// Sequence is an ordered list of shots. Order is semantically meaningful:
// left values are strictly increasing and right values strictly decreasing
// by position, ignoring "not possible" entries. Every mutation re-solves the
// affected side before returning, so the invariant holds between calls.
type Sequence struct {
	shots []model.Shot
	// lastKnown remembers the magnitude a side held before it was toggled
	// to "not possible", keyed by shot id and side.
	lastKnown map[sideKey]model.Percent
}

type sideKey struct {
	id   string
	side model.Side
}

// New returns a sequence over the given shots, corrected to satisfy both
// ordering invariants. Shots without ids get fresh ones.
func New(shots []model.Shot) (*Sequence, error) {
	s := &Sequence{
		shots:     make([]model.Shot, len(shots)),
		lastKnown: map[sideKey]model.Percent{},
	}
	copy(s.shots, shots)
	for i := range s.shots {
		if s.shots[i].ID == "" {
			s.shots[i].ID = uuid.NewString()
		}
	}
	if err := s.resolve(model.Left, model.Right); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of shots.
func (s *Sequence) Len() int {
	return len(s.shots)
}

// Shots returns a copy of the shot list.
func (s *Sequence) Shots() []model.Shot {
	out := make([]model.Shot, len(s.shots))
	copy(out, s.shots)
	return out
}

// At returns the shot at index.
func (s *Sequence) At(index int) (model.Shot, error) {
	if index < 0 || index >= len(s.shots) {
		return model.Shot{}, fmt.Errorf("shot index %d out of range", index)
	}
	return s.shots[index], nil
}

// ByID returns the shot with the given id.
func (s *Sequence) ByID(id string) (model.Shot, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Shot{}, false
	}
	return s.shots[i], true
}

// IndexOf returns the position of the shot with the given id, or -1.
func (s *Sequence) IndexOf(id string) int {
	return s.indexOf(id)
}

// InsertAt inserts a shot at index, assigning a fresh id when missing, then
// restores both invariants. On infeasibility the sequence is unchanged.
func (s *Sequence) InsertAt(index int, shot model.Shot) error {
	if index < 0 || index > len(s.shots) {
		return fmt.Errorf("insert index %d out of range", index)
	}
	if shot.ID == "" {
		shot.ID = uuid.NewString()
	}
	next := make([]model.Shot, 0, len(s.shots)+1)
	next = append(next, s.shots[:index]...)
	next = append(next, shot)
	next = append(next, s.shots[index:]...)
	return s.apply(next, model.Left, model.Right)
}

// RemoveAt deletes the shot at index. Removal cannot introduce a violation,
// so no re-solve is needed.
func (s *Sequence) RemoveAt(index int) error {
	if index < 0 || index >= len(s.shots) {
		return fmt.Errorf("remove index %d out of range", index)
	}
	s.shots = append(s.shots[:index], s.shots[index+1:]...)
	return nil
}

// Move relocates a shot from one position to another, then restores both
// invariants.
func (s *Sequence) Move(fromIndex, toIndex int) error {
	if fromIndex < 0 || fromIndex >= len(s.shots) {
		return fmt.Errorf("move source %d out of range", fromIndex)
	}
	if toIndex < 0 || toIndex >= len(s.shots) {
		return fmt.Errorf("move target %d out of range", toIndex)
	}
	if fromIndex == toIndex {
		return nil
	}
	next := make([]model.Shot, 0, len(s.shots))
	for i, shot := range s.shots {
		if i != fromIndex {
			next = append(next, shot)
		}
	}
	moved := s.shots[fromIndex]
	next = append(next[:toIndex], append([]model.Shot{moved}, next[toIndex:]...)...)
	return s.apply(next, model.Left, model.Right)
}

// SetValue sets one side of a shot and re-solves that side.
func (s *Sequence) SetValue(shotID string, side model.Side, value model.Percent) error {
	i := s.indexOf(shotID)
	if i < 0 {
		return fmt.Errorf("unknown shot id %q", shotID)
	}
	next := make([]model.Shot, len(s.shots))
	copy(next, s.shots)
	setSide(&next[i], side, value)
	return s.apply(next, side)
}

// SetSentinel toggles a shot's side between "not possible" and its last
// known value (or a computed default), then re-solves that side.
func (s *Sequence) SetSentinel(shotID string, side model.Side) error {
	i := s.indexOf(shotID)
	if i < 0 {
		return fmt.Errorf("unknown shot id %q", shotID)
	}
	cur := s.shots[i].Value(side)
	if cur.Possible() {
		next := make([]model.Shot, len(s.shots))
		copy(next, s.shots)
		setSide(&next[i], side, model.NotPossible())
		if err := s.apply(next, side); err != nil {
			return err
		}
		s.lastKnown[sideKey{shotID, side}] = cur
		return nil
	}
	restored, ok := s.lastKnown[sideKey{shotID, side}]
	if !ok || !restored.Possible() {
		restored = s.InsertDefault(i, side)
	}
	next := make([]model.Shot, len(s.shots))
	copy(next, s.shots)
	setSide(&next[i], side, restored)
	return s.apply(next, side)
}

// InsertDefault computes a sensible value for the given position and side:
// the grid-snapped midpoint of the nearest non-sentinel neighbors (sentinel
// entries are transparent), one step beyond a single neighbor, or the domain
// midpoint when the side is empty.
func (s *Sequence) InsertDefault(index int, side model.Side) model.Percent {
	lower := s.neighborValue(index-1, side, -1)
	upper := s.neighborValue(index, side, +1)
	if side == model.Right {
		lower, upper = upper, lower
	}
	switch {
	case lower >= 0 && upper >= 0:
		return model.NewPercent((lower + upper) / 2)
	case lower >= 0:
		return model.NewPercent(lower + model.Step)
	case upper >= 0:
		return model.NewPercent(upper - model.Step)
	default:
		return model.NewPercent((model.MinValue + model.MaxValue) / 2)
	}
}

// Replace swaps in a whole new shot list (preset load, import), re-solving
// both sides. On infeasibility the sequence is unchanged.
func (s *Sequence) Replace(shots []model.Shot) error {
	next := make([]model.Shot, len(shots))
	copy(next, shots)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = uuid.NewString()
		}
	}
	return s.apply(next, model.Left, model.Right)
}

// SideValues returns the per-shot values for one side, in order.
func (s *Sequence) SideValues(side model.Side) []model.Percent {
	out := make([]model.Percent, len(s.shots))
	for i, shot := range s.shots {
		out[i] = shot.Value(side)
	}
	return out
}

// neighborValue walks from start in the given direction, skipping sentinel
// entries, and returns the first magnitude found or -1.
func (s *Sequence) neighborValue(start int, side model.Side, dir int) int {
	for i := start; i >= 0 && i < len(s.shots); i += dir {
		if v := s.shots[i].Value(side); v.Possible() {
			return v.Value()
		}
	}
	return -1
}

func (s *Sequence) indexOf(id string) int {
	for i := range s.shots {
		if s.shots[i].ID == id {
			return i
		}
	}
	return -1
}

// apply solves the given sides over the candidate list and commits it only
// when all of them are feasible.
func (s *Sequence) apply(next []model.Shot, sides ...model.Side) error {
	for _, side := range sides {
		vals := make([]model.Percent, len(next))
		for i := range next {
			vals[i] = next[i].Value(side)
		}
		solved, err := solver.Solve(vals, directionFor(side), nil)
		if err != nil {
			return fmt.Errorf("%s side: %w", side, err)
		}
		for i := range next {
			setSide(&next[i], side, solved[i])
		}
	}
	s.shots = next
	return nil
}

func (s *Sequence) resolve(sides ...model.Side) error {
	return s.apply(s.shots, sides...)
}

// directionFor maps a side onto its constraint axis: left accuracy grows
// down the list, right accuracy shrinks.
func directionFor(side model.Side) solver.Direction {
	if side == model.Right {
		return solver.Descending
	}
	return solver.Ascending
}

func setSide(shot *model.Shot, side model.Side, v model.Percent) {
	if side == model.Right {
		shot.Right = v
		return
	}
	shot.Left = v
}
