// Package model defines shared data structures.
package model

import (
	"strconv"
	"time"
)

// Percentage grid constants. Valid magnitudes are multiples of Step between
// MinValue and MaxValue inclusive; "not possible" is a distinct tag, never a
// magnitude.
const (
	Step     = 5
	MinValue = 5
	MaxValue = 95
)

// Percent is either a quantized percentage or the "not possible" sentinel.
// The zero value is the sentinel.
type Percent struct {
	value    int
	possible bool
}

// NotPossible returns the sentinel value.
func NotPossible() Percent {
	return Percent{}
}

// NewPercent returns a Percent snapped onto the grid and clamped into the
// domain. Out-of-grid input is never rejected.
func NewPercent(v int) Percent {
	return Percent{value: SnapValue(v), possible: true}
}

// Possible reports whether p carries a magnitude.
func (p Percent) Possible() bool {
	return p.possible
}

// Value returns the magnitude. Only meaningful when Possible.
func (p Percent) Value() int {
	return p.value
}

// String renders the value for display.
func (p Percent) String() string {
	if !p.possible {
		return "--"
	}
	return strconv.Itoa(p.value) + "%"
}

// SnapValue clamps v into [MinValue, MaxValue] and rounds to the nearest
// multiple of Step, ties rounding up. Idempotent.
func SnapValue(v int) int {
	snapped := snapGrid(v)
	if snapped < MinValue {
		return MinValue
	}
	if snapped > MaxValue {
		return MaxValue
	}
	return snapped
}

func snapGrid(v int) int {
	rem := v % Step
	if rem < 0 {
		rem += Step
	}
	if rem*2 >= Step {
		return v + Step - rem
	}
	return v - rem
}

// Side identifies a flipper.
type Side int

// Flipper sides.
const (
	Left Side = iota
	Right
)

// String names the side.
func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Shot is a configured target with independent per-flipper accuracy values.
type Shot struct {
	ID       string
	Label    string
	Element  string
	Location string
	Left     Percent
	Right    Percent
}

// Value returns the base value for the given side.
func (s Shot) Value(side Side) Percent {
	if side == Right {
		return s.Right
	}
	return s.Left
}

// Severity buckets the absolute error of a guess.
type Severity int

// Severity buckets, fixed breakpoints on the step grid.
const (
	Perfect Severity = iota
	Slight
	Fairly
	Very
)

// String names the severity bucket.
func (s Severity) String() string {
	switch s {
	case Perfect:
		return "perfect"
	case Slight:
		return "slight"
	case Fairly:
		return "fairly off"
	default:
		return "very off"
	}
}

// Adjustment classifies how a repeat guess moved relative to the previous
// attempt's error direction.
type Adjustment int

// Adjustment outcomes. AdjustNone marks first attempts on a shot/side.
const (
	AdjustNone Adjustment = iota
	AdjustCorrect
	AdjustIncorrect
	AdjustNoChange
)

// String names the adjustment outcome.
func (a Adjustment) String() string {
	switch a {
	case AdjustCorrect:
		return "right direction"
	case AdjustIncorrect:
		return "wrong direction"
	case AdjustNoChange:
		return "no change"
	default:
		return ""
	}
}

// Attempt records one submitted guess.
type Attempt struct {
	ShotID     string
	Side       Side
	Guess      Percent
	Truth      Percent
	AbsError   int
	Severity   Severity
	PrevGuess  Percent
	Adjustment Adjustment
	At         time.Time
}

// Mode selects how the next shot/side is picked.
type Mode int

// Selection modes.
const (
	ModeRandom Mode = iota
	ModeManual
)

// String names the mode.
func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "random"
}

// ParseMode maps a config string onto a Mode. Unknown input means random.
func ParseMode(s string) Mode {
	if s == "manual" {
		return ModeManual
	}
	return ModeRandom
}

// Config defines practice settings.
type Config struct {
	DriftEvery  int
	DriftSteps  int
	OffsetSteps int
	Mode        Mode
	Seeded      bool
	Seed        int64
	FeedbackMs  int
	FocusWeak   bool
	WeakTop     int
	WeakFactor  float64
	WeakWindow  int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
	Shots       string
}

// SessionStats captures a completed practice session.
type SessionStats struct {
	StartedAt       time.Time
	EndedAt         time.Time
	Mode            Mode
	DriftEvery      int
	DriftSteps      int
	OffsetSteps     int
	Attempts        int
	Exact           int
	AbsErrorSum     int
	AdjustCorrect   int
	AdjustIncorrect int
	AdjustNoChange  int
	RecallTotal     int
	RecallCorrect   int
	DurationMs      int64
}

// ShotStats stores per-shot/side stats for a session. Shots are keyed by
// label and side across sessions; ids regenerate on import.
type ShotStats struct {
	Label       string
	Side        Side
	Attempts    int
	Exact       int
	AbsErrorSum int
}

// ShotAggregate aggregates shot stats across sessions.
type ShotAggregate struct {
	Label       string
	Side        Side
	Attempts    int
	Exact       int
	AbsErrorSum int
}

// Key joins label and side for cross-session identity.
func (a ShotAggregate) Key() string {
	return a.Label + "/" + a.Side.String()
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID   int64
	EndedAt     time.Time
	Attempts    int
	Exact       int
	AbsErrorSum int
	DurationMs  int64
}
