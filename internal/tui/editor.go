package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/sequence"
)

type editorMode int

const (
	editorBrowse editorMode = iota
	editorValue
	editorLabel
)

// Editor implements the Bubble Tea shot layout editor. Edits re-solve the
// ordering invariants immediately; an infeasible edit is rejected with a
// status message and the layout stays unchanged.
type Editor struct {
	seq  *sequence.Sequence
	save func(*sequence.Sequence) error

	width  int
	height int

	cursor int
	side   model.Side
	mode   editorMode
	input  textinput.Model
	status string
	dirty  bool
}

// NewEditor constructs a layout editor. save is called when the user saves
// or quits with unsaved edits.
func NewEditor(seq *sequence.Sequence, save func(*sequence.Sequence) error) *Editor {
	input := textinput.New()
	input.CharLimit = 40
	input.Width = 24
	return &Editor{
		seq:   seq,
		save:  save,
		side:  model.Left,
		input: input,
	}
}

// Init implements tea.Model.
func (e *Editor) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width = msg.Width
		e.height = msg.Height
		return e, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			e.saveIfDirty()
			return e, tea.Quit
		}
		switch e.mode {
		case editorValue, editorLabel:
			return e.handleInputKey(msg)
		default:
			return e.handleBrowseKey(msg)
		}
	}
	return e, nil
}

func (e *Editor) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e.status = ""
	switch msg.String() {
	case "q", "esc":
		e.saveIfDirty()
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < e.seq.Len()-1 {
			e.cursor++
		}
	case "tab", "left", "right", "h", "l":
		if e.side == model.Left {
			e.side = model.Right
		} else {
			e.side = model.Left
		}
	case "enter":
		shot, err := e.seq.At(e.cursor)
		if err != nil {
			return e, nil
		}
		if !shot.Value(e.side).Possible() {
			e.status = "side is marked not possible; press x to restore it first"
			return e, nil
		}
		e.mode = editorValue
		e.input.SetValue(fmt.Sprintf("%d", shot.Value(e.side).Value()))
		e.input.CursorEnd()
		return e, e.input.Focus()
	case "x":
		shot, err := e.seq.At(e.cursor)
		if err != nil {
			return e, nil
		}
		if err := e.seq.SetSentinel(shot.ID, e.side); err != nil {
			e.status = err.Error()
			return e, nil
		}
		e.dirty = true
	case "a":
		e.mode = editorLabel
		e.input.SetValue("")
		e.input.Placeholder = "shot label"
		return e, e.input.Focus()
	case "d":
		if e.seq.Len() <= 1 {
			e.status = "cannot delete the last shot"
			return e, nil
		}
		if err := e.seq.RemoveAt(e.cursor); err != nil {
			e.status = err.Error()
			return e, nil
		}
		if e.cursor >= e.seq.Len() {
			e.cursor = e.seq.Len() - 1
		}
		e.dirty = true
	case "K":
		if e.cursor > 0 {
			if err := e.seq.Move(e.cursor, e.cursor-1); err != nil {
				e.status = err.Error()
				return e, nil
			}
			e.cursor--
			e.dirty = true
		}
	case "J":
		if e.cursor < e.seq.Len()-1 {
			if err := e.seq.Move(e.cursor, e.cursor+1); err != nil {
				e.status = err.Error()
				return e, nil
			}
			e.cursor++
			e.dirty = true
		}
	case "s":
		if err := e.doSave(); err != nil {
			e.status = fmt.Sprintf("save failed: %v", err)
		} else {
			e.status = "saved"
		}
	}
	return e, nil
}

func (e *Editor) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		e.mode = editorBrowse
		e.input.Blur()
		return e, nil
	case "enter":
		if e.mode == editorValue {
			e.commitValue()
		} else {
			e.commitLabel()
		}
		e.mode = editorBrowse
		e.input.Blur()
		return e, nil
	case "up":
		if e.mode == editorValue {
			e.input.SetValue(stepGuess(e.input.Value(), 1))
			e.input.CursorEnd()
		}
		return e, nil
	case "down":
		if e.mode == editorValue {
			e.input.SetValue(stepGuess(e.input.Value(), -1))
			e.input.CursorEnd()
		}
		return e, nil
	}
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return e, cmd
}

func (e *Editor) commitValue() {
	value, ok := parseGuess(e.input.Value())
	if !ok {
		e.status = "enter a percentage between 5 and 95"
		return
	}
	shot, err := e.seq.At(e.cursor)
	if err != nil {
		return
	}
	if err := e.seq.SetValue(shot.ID, e.side, value); err != nil {
		e.status = err.Error()
		return
	}
	e.dirty = true
}

func (e *Editor) commitLabel() {
	label := strings.TrimSpace(e.input.Value())
	if label == "" {
		e.status = "label must not be empty"
		return
	}
	index := e.cursor + 1
	if e.seq.Len() == 0 {
		index = 0
	}
	shot := model.Shot{
		Label: label,
		Left:  e.seq.InsertDefault(index, model.Left),
		Right: e.seq.InsertDefault(index, model.Right),
	}
	if err := e.seq.InsertAt(index, shot); err != nil {
		e.status = err.Error()
		return
	}
	e.cursor = index
	e.dirty = true
}

func (e *Editor) doSave() error {
	if e.save == nil {
		return nil
	}
	if err := e.save(e.seq); err != nil {
		return err
	}
	e.dirty = false
	return nil
}

func (e *Editor) saveIfDirty() {
	if !e.dirty {
		return
	}
	if err := e.doSave(); err != nil {
		logErrf("failed to save layout: %v\n", err)
	}
}

// View implements tea.Model.
func (e *Editor) View() string {
	var b strings.Builder
	b.WriteString("Shot layout\n\n")
	b.WriteString(e.renderShots())
	b.WriteString("\n\n")
	switch e.mode {
	case editorValue:
		b.WriteString("New value: " + e.input.View())
	case editorLabel:
		b.WriteString("New shot: " + e.input.View())
	default:
		b.WriteString(dimStyle.Render("↑/↓: shot · tab: side · enter: edit · x: toggle possible · a: add · d: delete · K/J: move · s: save · q: quit"))
	}
	if e.status != "" {
		b.WriteString("\n" + veryStyle.Render(e.status))
	}
	body := b.String()
	if e.width == 0 || e.height == 0 {
		return body
	}
	return lipgloss.Place(e.width, e.height, lipgloss.Center, lipgloss.Center, body)
}

func (e *Editor) renderShots() string {
	shots := e.seq.Shots()
	labelWidth := 0
	for _, shot := range shots {
		if w := runewidth.StringWidth(shot.Label); w > labelWidth {
			labelWidth = w
		}
	}
	var b strings.Builder
	for i, shot := range shots {
		if i > 0 {
			b.WriteByte('\n')
		}
		marker := "  "
		if i == e.cursor {
			marker = "> "
		}
		left := runewidth.FillRight(formatPercent(shot.Left), 4)
		right := runewidth.FillRight(formatPercent(shot.Right), 4)
		if i == e.cursor {
			if e.side == model.Left {
				left = activeStyle.Render(left)
			} else {
				right = activeStyle.Render(right)
			}
		}
		label := runewidth.FillRight(shot.Label, labelWidth)
		if i != e.cursor {
			label = dimStyle.Render(label)
		}
		b.WriteString(fmt.Sprintf("%s%s  L:%s  R:%s", marker, label, left, right))
	}
	return b.String()
}
