// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/sequence"
	"github.com/verte-zerg/flipdrill/internal/session"
	"github.com/verte-zerg/flipdrill/internal/store"
)

// feedbackMsg fires when the feedback display interval elapses. gen guards
// against ticks from a previous attempt arriving after a manual skip.
type feedbackMsg struct {
	gen int
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	config model.Config
	store  *store.Store
	sess   *session.Session
	seq    *sequence.Sequence

	width  int
	height int

	input       textinput.Model
	cursor      int
	feedbackGen int
	last        *model.Attempt

	recallTargets []session.Selection
	recallIdx     int
	grade         session.Grade

	saved   bool
	saveErr error
}

// NewModel constructs a practice TUI model over a started session.
func NewModel(cfg model.Config, st *store.Store, sess *session.Session, seq *sequence.Sequence) *Model {
	input := textinput.New()
	input.Placeholder = "guess %"
	input.CharLimit = 3
	input.Width = 8
	input.Focus()
	return &Model{
		config: cfg,
		store:  st,
		sess:   sess,
		seq:    seq,
		input:  input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case feedbackMsg:
		if msg.gen == m.feedbackGen {
			m.sess.FeedbackElapsed()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.finishAndSave()
		return m, tea.Quit
	}

	switch m.sess.Phase() {
	case session.PhaseSelecting:
		return m.handleSelectingKey(msg)
	case session.PhaseAwaitingGuess:
		return m.handleGuessKey(msg)
	case session.PhaseShowingFeedback, session.PhaseAwaitingContinue:
		return m.handleFeedbackKey(msg)
	case session.PhaseFinalRecall:
		return m.handleRecallKey(msg)
	case session.PhaseGraded:
		if msg.Type == tea.KeyEnter {
			m.sess.Finish()
			m.finishAndSave()
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleSelectingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	targets := m.sess.RecallTargets()
	if len(targets) == 0 {
		return m, nil
	}
	switch msg.String() {
	case "up", "k":
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(targets) - 1
		}
	case "down", "j":
		m.cursor++
		if m.cursor >= len(targets) {
			m.cursor = 0
		}
	case "enter":
		sel := targets[m.cursor]
		if err := m.sess.Select(sel.ShotID, sel.Side); err == nil {
			m.input.SetValue("")
		}
	case "f":
		return m, m.beginFinalRecall()
	}
	return m, nil
}

func (m *Model) handleGuessKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		m.input.SetValue(stepGuess(m.input.Value(), 1))
		m.input.CursorEnd()
		return m, nil
	case "down":
		m.input.SetValue(stepGuess(m.input.Value(), -1))
		m.input.CursorEnd()
		return m, nil
	case "enter":
		guess, ok := parseGuess(m.input.Value())
		if !ok {
			return m, nil
		}
		attempt, err := m.sess.SubmitGuess(guess)
		if err != nil {
			return m, nil
		}
		m.last = &attempt
		m.input.SetValue("")
		m.feedbackGen++
		return m, m.feedbackTick()
	case "esc":
		return m, m.beginFinalRecall()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleFeedbackKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", " ":
		// A manual skip; the pending tick becomes stale.
		m.feedbackGen++
		m.sess.FeedbackElapsed()
		m.sess.Continue()
		if m.config.Mode == model.ModeManual {
			m.cursor = 0
		}
	case "esc", "f":
		m.feedbackGen++
		return m, m.beginFinalRecall()
	}
	return m, nil
}

func (m *Model) handleRecallKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if guess, ok := parseGuess(m.input.Value()); ok {
			sel := m.recallTargets[m.recallIdx]
			if err := m.sess.SubmitRecall(sel, guess); err != nil {
				return m, nil
			}
		}
		m.input.SetValue("")
		m.recallIdx++
		if m.recallIdx >= len(m.recallTargets) {
			return m, m.gradeRecall()
		}
		return m, nil
	case "esc":
		// Grade immediately; remaining targets count as misses.
		return m, m.gradeRecall()
	case "up":
		m.input.SetValue(stepGuess(m.input.Value(), 1))
		m.input.CursorEnd()
		return m, nil
	case "down":
		m.input.SetValue(stepGuess(m.input.Value(), -1))
		m.input.CursorEnd()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) beginFinalRecall() tea.Cmd {
	if err := m.sess.BeginFinalRecall(); err != nil {
		return nil
	}
	m.recallTargets = m.sess.RecallTargets()
	m.recallIdx = 0
	m.input.SetValue("")
	return nil
}

func (m *Model) gradeRecall() tea.Cmd {
	grade, err := m.sess.GradeRecall()
	if err != nil {
		return nil
	}
	m.grade = grade
	return nil
}

func (m *Model) feedbackTick() tea.Cmd {
	interval := time.Duration(m.config.FeedbackMs) * time.Millisecond
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	gen := m.feedbackGen
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return feedbackMsg{gen: gen}
	})
}

func (m *Model) finishAndSave() {
	if m.saved || m.store == nil {
		return
	}
	stats, shots := m.sess.Stats(time.Now())
	if stats.Attempts == 0 && stats.RecallTotal == 0 {
		return
	}
	ctx := context.Background()
	if _, err := m.store.InsertSession(ctx, stats, shots); err != nil {
		m.saveErr = err
		logErrf("failed to save session: %v\n", err)
		return
	}
	if err := m.store.SaveHistory(ctx, m.sess.History()); err != nil {
		logErrf("failed to save attempt history: %v\n", err)
	}
	m.saved = true
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.sess.Phase() {
	case session.PhaseSelecting:
		body = m.viewSelecting()
	case session.PhaseAwaitingGuess:
		body = m.viewGuess()
	case session.PhaseShowingFeedback, session.PhaseAwaitingContinue:
		body = m.viewFeedback()
	case session.PhaseFinalRecall:
		body = m.viewRecall()
	case session.PhaseGraded, session.PhaseComplete:
		body = m.viewGrade()
	default:
		body = ""
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		if footer == "" {
			return body
		}
		return body + "\n\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return main + "\n" + footerLine
}

func (m *Model) viewSelecting() string {
	targets := m.sess.RecallTargets()
	if len(targets) == 0 {
		return "No playable shots."
	}
	var b strings.Builder
	b.WriteString("Pick a shot to drill:\n\n")
	for i, sel := range targets {
		shot, ok := m.seq.ByID(sel.ShotID)
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s (%s)", shot.Label, sel.Side)
		if i == m.cursor {
			line = activeStyle.Render("> " + line)
		} else {
			line = dimStyle.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render("\nenter: drill · f: final recall"))
	return b.String()
}

func (m *Model) viewGuess() string {
	sel, ok := m.sess.Selection()
	if !ok {
		return ""
	}
	shot, found := m.seq.ByID(sel.ShotID)
	if !found {
		return ""
	}
	var b strings.Builder
	b.WriteString(renderLadder(m.seq.Shots(), &sel))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("How much power for %s from the %s flipper?\n", shot.Label, sel.Side))
	b.WriteString(m.input.View())
	b.WriteString(dimStyle.Render("\n\n↑/↓: step · enter: guess · esc: final recall"))
	return b.String()
}

func (m *Model) viewFeedback() string {
	if m.last == nil {
		return ""
	}
	label := m.last.ShotID
	if shot, ok := m.seq.ByID(m.last.ShotID); ok {
		label = shot.Label
	}
	var b strings.Builder
	b.WriteString(formatFeedback(label, *m.last))
	b.WriteString(dimStyle.Render("\n\nenter: next shot · f: final recall"))
	return b.String()
}

func (m *Model) viewRecall() string {
	if m.recallIdx >= len(m.recallTargets) {
		return ""
	}
	sel := m.recallTargets[m.recallIdx]
	shot, ok := m.seq.ByID(sel.ShotID)
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Final recall %d/%d\n\n", m.recallIdx+1, len(m.recallTargets)))
	b.WriteString(fmt.Sprintf("%s from the %s flipper:\n", shot.Label, sel.Side))
	b.WriteString(m.input.View())
	b.WriteString(dimStyle.Render("\n\nenter: answer · esc: grade now"))
	return b.String()
}

func (m *Model) viewGrade() string {
	var b strings.Builder
	b.WriteString("Final recall graded\n\n")
	b.WriteString(fmt.Sprintf("Recalled %d of %d shot values exactly.\n", m.grade.Correct, m.grade.Total))
	b.WriteString(fmt.Sprintf("Practice score: %d\n", m.sess.Score()))
	b.WriteString(dimStyle.Render("\nenter: save and quit"))
	return b.String()
}

func (m *Model) renderFooter() string {
	history := m.sess.History()
	segments := []string{
		fmt.Sprintf("Attempts %d", len(history)),
		fmt.Sprintf("Score %d", m.sess.Score()),
	}
	if m.sess.DriftCount() > 0 {
		segments = append(segments, fmt.Sprintf("Drifts %d", m.sess.DriftCount()))
	}
	segments = append(segments, fmt.Sprintf("Mode %s", m.config.Mode))
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
