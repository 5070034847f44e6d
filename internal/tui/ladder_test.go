package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/session"
)

func TestParseGuess(t *testing.T) {
	cases := []struct {
		input string
		want  int
		ok    bool
	}{
		{"50", 50, true},
		{" 35 ", 35, true},
		{"35%", 35, true},
		{"23", 25, true},
		{"0", 5, true},
		{"100", 95, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
		{"120", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseGuess(tc.input)
		if ok != tc.ok {
			t.Fatalf("parseGuess(%q): expected ok=%v, got %v", tc.input, tc.ok, ok)
		}
		if ok && got.Value() != tc.want {
			t.Fatalf("parseGuess(%q): expected %d, got %d", tc.input, tc.want, got.Value())
		}
	}
}

func TestStepGuess(t *testing.T) {
	if got := stepGuess("50", 1); got != "55" {
		t.Fatalf("expected 55, got %q", got)
	}
	if got := stepGuess("50", -1); got != "45" {
		t.Fatalf("expected 45, got %q", got)
	}
	if got := stepGuess("95", 1); got != "95" {
		t.Fatalf("expected clamp at 95, got %q", got)
	}
	if got := stepGuess("5", -1); got != "5" {
		t.Fatalf("expected clamp at 5, got %q", got)
	}
	if got := stepGuess("", 1); got != "50" {
		t.Fatalf("expected midpoint for empty input, got %q", got)
	}
}

func TestSeverityLabels(t *testing.T) {
	cases := map[model.Severity]string{
		model.Perfect: "Perfect",
		model.Slight:  "Slightly off",
		model.Fairly:  "Fairly off",
		model.Very:    "Way off",
	}
	for sev, want := range cases {
		if got := severityLabel(sev); got != want {
			t.Fatalf("severity %v: expected %q, got %q", sev, want, got)
		}
	}
}

func TestBuildLadderRows(t *testing.T) {
	shots := []model.Shot{
		{ID: "a", Label: "Left Orbit", Left: model.NewPercent(20), Right: model.NewPercent(80)},
		{ID: "b", Label: "Upper Loop", Left: model.NotPossible(), Right: model.NewPercent(60)},
	}
	active := &session.Selection{ShotID: "b", Side: model.Right}
	rows := buildLadderRows(shots, active)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].isSel {
		t.Fatalf("first row should not be selected")
	}
	if !rows[1].isSel || rows[1].active != model.Right {
		t.Fatalf("expected second row selected on the right, got %+v", rows[1])
	}
	if rows[1].left != sentinelMarker {
		t.Fatalf("expected sentinel marker for unplayable side, got %q", rows[1].left)
	}
	if rows[0].left != "??" {
		t.Fatalf("hidden values must render masked, got %q", rows[0].left)
	}
}

func TestFormatFeedback(t *testing.T) {
	attempt := model.Attempt{
		Side:       model.Left,
		Guess:      model.NewPercent(40),
		Truth:      model.NewPercent(50),
		AbsError:   10,
		Severity:   model.Fairly,
		Adjustment: model.AdjustCorrect,
	}
	out := formatFeedback("Left Ramp", attempt)
	for _, want := range []string{"Left Ramp", "40%", "50%", "Fairly off", "adjusted the right way"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in feedback %q", want, out)
		}
	}
}

func TestFormatPercentSentinel(t *testing.T) {
	if got := formatPercent(model.NotPossible()); got != sentinelMarker {
		t.Fatalf("expected sentinel marker, got %q", got)
	}
	if got := formatPercent(model.NewPercent(45)); got != "45%" {
		t.Fatalf("expected 45%%, got %q", got)
	}
}
