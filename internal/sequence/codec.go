package sequence

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verte-zerg/flipdrill/internal/model"
)

// ErrMalformed is returned when an imported shot configuration violates the
// schema. Callers fall back to a default sequence, never partial state.
var ErrMalformed = errors.New("malformed shot configuration")

// shotJSON is the import/export unit. Left/right are integers on the grid or
// null for "not possible".
type shotJSON struct {
	ID       string `json:"id,omitempty"`
	Label    string `json:"label"`
	Element  string `json:"element,omitempty"`
	Location string `json:"location,omitempty"`
	Left     *int   `json:"left"`
	Right    *int   `json:"right"`
}

// Export serializes the sequence as a shot configuration document.
func Export(s *Sequence) ([]byte, error) {
	shots := s.Shots()
	out := make([]shotJSON, len(shots))
	for i, shot := range shots {
		out[i] = shotJSON{
			ID:       shot.ID,
			Label:    shot.Label,
			Element:  shot.Element,
			Location: shot.Location,
			Left:     valuePtr(shot.Left),
			Right:    valuePtr(shot.Right),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode shots: %w", err)
	}
	return data, nil
}

// Import parses a shot configuration document into a sequence. Ids may be
// regenerated; relative order and values are preserved (after invariant
// correction). Out-of-grid values are snapped, not rejected.
func Import(data []byte) (*Sequence, error) {
	var raw []shotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	shots := make([]model.Shot, 0, len(raw))
	for i, entry := range raw {
		if entry.Label == "" {
			return nil, fmt.Errorf("%w: shot %d has no label", ErrMalformed, i)
		}
		shots = append(shots, model.Shot{
			ID:       entry.ID,
			Label:    entry.Label,
			Element:  entry.Element,
			Location: entry.Location,
			Left:     percentFrom(entry.Left),
			Right:    percentFrom(entry.Right),
		})
	}
	seq, err := New(shots)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return seq, nil
}

// Default returns the built-in starter layout used when nothing is persisted
// or an import fails.
func Default() *Sequence {
	shots := []model.Shot{
		{Label: "Left Orbit", Element: "orbit", Location: "upper left", Left: model.NewPercent(20), Right: model.NewPercent(80)},
		{Label: "Left Ramp", Element: "ramp", Location: "mid left", Left: model.NewPercent(35), Right: model.NewPercent(70)},
		{Label: "Center Spinner", Element: "spinner", Location: "center", Left: model.NewPercent(50), Right: model.NewPercent(50)},
		{Label: "Right Ramp", Element: "ramp", Location: "mid right", Left: model.NewPercent(65), Right: model.NewPercent(35)},
		{Label: "Right Orbit", Element: "orbit", Location: "upper right", Left: model.NewPercent(80), Right: model.NewPercent(20)},
	}
	seq, err := New(shots)
	if err != nil {
		// The built-in layout satisfies both invariants.
		panic(err)
	}
	return seq
}

func valuePtr(p model.Percent) *int {
	if !p.Possible() {
		return nil
	}
	v := p.Value()
	return &v
}

func percentFrom(v *int) model.Percent {
	if v == nil {
		return model.NotPossible()
	}
	return model.NewPercent(*v)
}
