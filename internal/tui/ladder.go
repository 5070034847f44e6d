// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/session"
)

var (
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	perfectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	slightStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	fairlyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	veryStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	sentinelMarker = "--"
)

// ladderRow is one line of the shot ladder: a shot label plus playability
// markers for each flipper.
type ladderRow struct {
	label  string
	left   string
	right  string
	active model.Side
	isSel  bool
}

func buildLadderRows(shots []model.Shot, active *session.Selection) []ladderRow {
	rows := make([]ladderRow, 0, len(shots))
	for _, shot := range shots {
		row := ladderRow{
			label: shot.Label,
			left:  sideMarker(shot.Left),
			right: sideMarker(shot.Right),
		}
		if active != nil && active.ShotID == shot.ID {
			row.isSel = true
			row.active = active.Side
		}
		rows = append(rows, row)
	}
	return rows
}

func sideMarker(p model.Percent) string {
	if !p.Possible() {
		return sentinelMarker
	}
	return "??"
}

func renderLadder(shots []model.Shot, active *session.Selection) string {
	rows := buildLadderRows(shots, active)
	labelWidth := 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row.label); w > labelWidth {
			labelWidth = w
		}
	}
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := runewidth.FillRight(row.label, labelWidth)
		left := row.left
		right := row.right
		marker := "  "
		if row.isSel {
			marker = "> "
			if row.active == model.Left {
				left = activeStyle.Render(left)
				label = activeStyle.Render(label)
			} else {
				right = activeStyle.Render(right)
				label = activeStyle.Render(label)
			}
		} else {
			label = dimStyle.Render(label)
			left = dimStyle.Render(left)
			right = dimStyle.Render(right)
		}
		b.WriteString(fmt.Sprintf("%s%s  L:%s  R:%s", marker, label, left, right))
	}
	return b.String()
}

func severityLabel(sev model.Severity) string {
	switch sev {
	case model.Perfect:
		return "Perfect"
	case model.Slight:
		return "Slightly off"
	case model.Fairly:
		return "Fairly off"
	default:
		return "Way off"
	}
}

func severityStyle(sev model.Severity) lipgloss.Style {
	switch sev {
	case model.Perfect:
		return perfectStyle
	case model.Slight:
		return slightStyle
	case model.Fairly:
		return fairlyStyle
	default:
		return veryStyle
	}
}

func adjustmentLabel(adj model.Adjustment) string {
	switch adj {
	case model.AdjustCorrect:
		return "adjusted the right way"
	case model.AdjustIncorrect:
		return "adjusted the wrong way"
	case model.AdjustNoChange:
		return "same guess as last time"
	default:
		return ""
	}
}

func formatPercent(p model.Percent) string {
	if !p.Possible() {
		return sentinelMarker
	}
	return strconv.Itoa(p.Value()) + "%"
}

// formatFeedback renders the post-guess feedback line.
func formatFeedback(label string, a model.Attempt) string {
	parts := []string{
		fmt.Sprintf("%s (%s): guessed %s, actual %s",
			label, a.Side, formatPercent(a.Guess), formatPercent(a.Truth)),
		severityStyle(a.Severity).Render(severityLabel(a.Severity)),
	}
	if adj := adjustmentLabel(a.Adjustment); adj != "" {
		parts = append(parts, adj)
	}
	return strings.Join(parts, " · ")
}

// parseGuess interprets typed input as a percentage guess. Values are
// snapped onto the grid.
func parseGuess(input string) (model.Percent, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(input), "%"))
	if trimmed == "" {
		return model.Percent{}, false
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil || v < 0 || v > 100 {
		return model.Percent{}, false
	}
	return model.NewPercent(v), true
}

// stepGuess moves typed input one grid step up or down, clamped to the
// domain. Empty input starts from the domain midpoint.
func stepGuess(input string, delta int) string {
	cur, ok := parseGuess(input)
	if !ok {
		return strconv.Itoa((model.MinValue + model.MaxValue) / 2 / model.Step * model.Step)
	}
	v := cur.Value() + delta*model.Step
	if v < model.MinValue {
		v = model.MinValue
	}
	if v > model.MaxValue {
		v = model.MaxValue
	}
	return strconv.Itoa(v)
}
