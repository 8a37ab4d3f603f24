package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StudioAction describes one action the studio can dispatch.
type StudioAction struct {
	Name        string
	Description string
	Inputs      []string
	Optional    []string
	Outputs     []string
	Writes      bool
}

func (a StudioAction) optional(field string) bool {
	for _, o := range a.Optional {
		if o == field {
			return true
		}
	}
	return false
}

// StudioResult is what a dispatched action reports back.
type StudioResult struct {
	Pairs   [][2]string
	ErrKind string
	Err     string
}

// StudioDispatch runs an action with the current field values.
type StudioDispatch func(ctx context.Context, action string, values map[string]string) StudioResult

type studioFocus int

const (
	focusMenu studioFocus = iota
	focusForm
)

type studioResultMsg struct {
	action string
	res    StudioResult
}

type studioTickMsg struct{}

// StudioModel is the Bubble Tea model for the oracle studio: an action menu
// on top of a single shared form, the way one page of inputs serves every
// button. Field values persist between actions.
type StudioModel struct {
	Title    string
	Contract string
	Wallet   string
	Actions  []StudioAction
	Dispatch StudioDispatch
	// Timeout bounds a single dispatch. Zero means none.
	Timeout time.Duration

	values map[string]string
	cursor int
	field  int
	focus  studioFocus

	busy    bool
	frame   int
	last    string
	result  *StudioResult
	history []string

	Quitting bool
}

// NewStudioModel creates a studio over actions.
func NewStudioModel(title string, actions []StudioAction, dispatch StudioDispatch) StudioModel {
	return StudioModel{
		Title:    title,
		Actions:  actions,
		Dispatch: dispatch,
		values:   map[string]string{},
	}
}

// Value returns the current content of a form field.
func (m StudioModel) Value(field string) string { return m.values[field] }

// Busy reports whether a dispatch is in flight.
func (m StudioModel) Busy() bool { return m.busy }

// Result returns the last dispatch result, or nil.
func (m StudioModel) Result() *StudioResult { return m.result }

func (m StudioModel) current() StudioAction { return m.Actions[m.cursor] }

func (m StudioModel) Init() tea.Cmd { return nil }

func (m StudioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case studioResultMsg:
		m.busy = false
		res := msg.res
		m.result = &res
		m.last = msg.action
		status := "ok"
		if res.Err != "" {
			status = "failed"
		}
		m.history = append(m.history, fmt.Sprintf("%s  %s  %s", time.Now().Format("15:04:05"), msg.action, status))
		if len(m.history) > 5 {
			m.history = m.history[len(m.history)-5:]
		}
		return m, nil

	case studioTickMsg:
		if !m.busy {
			return m, nil
		}
		m.frame++
		return m, studioTick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.focus == focusForm {
			return m.updateForm(msg)
		}
		return m.updateMenu(msg)
	}
	return m, nil
}

func (m StudioModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.Quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.Actions)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.Actions) == 0 || m.busy {
			return m, nil
		}
		if len(m.current().Inputs) == 0 {
			return m.submit()
		}
		m.focus = focusForm
		m.field = 0
	}
	return m, nil
}

func (m StudioModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inputs := m.current().Inputs
	name := inputs[m.field]

	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusMenu
	case tea.KeyTab, tea.KeyDown:
		m.field = (m.field + 1) % len(inputs)
	case tea.KeyShiftTab, tea.KeyUp:
		m.field = (m.field - 1 + len(inputs)) % len(inputs)
	case tea.KeyEnter:
		if m.field < len(inputs)-1 {
			m.field++
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		m.focus = focusMenu
		return m.submit()
	case tea.KeyBackspace:
		if v := []rune(m.values[name]); len(v) > 0 {
			m.values[name] = string(v[:len(v)-1])
		}
	case tea.KeyCtrlU:
		m.values[name] = ""
	case tea.KeySpace:
		m.values[name] += " "
	case tea.KeyRunes:
		m.values[name] += string(msg.Runes)
	}
	return m, nil
}

func (m StudioModel) submit() (tea.Model, tea.Cmd) {
	a := m.current()
	values := make(map[string]string, len(a.Inputs))
	for _, in := range a.Inputs {
		values[in] = m.values[in]
	}
	m.busy = true
	m.result = nil
	dispatch, timeout := m.Dispatch, m.Timeout

	run := func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return studioResultMsg{action: a.Name, res: dispatch(ctx, a.Name, values)}
	}
	return m, tea.Batch(run, studioTick())
}

func studioTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return studioTickMsg{} })
}

func (m StudioModel) View() string {
	if m.Quitting {
		return ""
	}
	const ruleWidth = 64
	var sb strings.Builder

	sb.WriteString(StyleTitle.Render("  "+m.Title) + "\n")
	if m.Contract != "" {
		sb.WriteString(fmt.Sprintf("  %-9s %s\n", StyleMeta.Render("Contract"), Addr(m.Contract)))
	}
	if m.Wallet != "" {
		sb.WriteString(fmt.Sprintf("  %-9s %s\n", StyleMeta.Render("Wallet"), Val(m.Wallet)))
	}
	sb.WriteString("\n")

	for i, a := range m.Actions {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		name := StyleValue.Render(a.Name)
		if a.Writes {
			name = StyleWarning.Render(a.Name)
		}
		line := fmt.Sprintf("%s%-16s %s", prefix, name, StyleMeta.Render(a.Description))
		if i == m.cursor && m.focus == focusMenu {
			sb.WriteString(StyleSelected.Render(line) + "\n")
		} else {
			sb.WriteString(line + "\n")
		}
	}

	rule := StyleMeta.Render(strings.Repeat("─", ruleWidth))
	sb.WriteString("\n" + rule + "\n")

	if len(m.Actions) > 0 {
		a := m.current()
		if len(a.Inputs) == 0 {
			sb.WriteString(StyleMeta.Render("  no inputs") + "\n")
		}
		for i, in := range a.Inputs {
			label := in
			if a.optional(in) {
				label += "?"
			}
			cursor := " "
			if m.focus == focusForm && i == m.field {
				cursor = "█"
			}
			sb.WriteString(fmt.Sprintf("  %-14s %s%s\n", StyleMeta.Render(label), m.values[in], StyleAccent.Render(cursor)))
		}
	}
	sb.WriteString(rule + "\n")

	switch {
	case m.busy:
		sb.WriteString("  " + StyleAccent.Render(spinnerFrames[m.frame%len(spinnerFrames)]) + "  running " + m.current().Name + "…\n")
	case m.result != nil && m.result.Err != "":
		sb.WriteString("  " + Failure(m.result.ErrKind, m.result.Err) + "\n")
	case m.result != nil:
		sb.WriteString("  " + Success(m.last) + "\n")
		for _, p := range m.result.Pairs {
			sb.WriteString(fmt.Sprintf("  %-14s %s\n", StyleMeta.Render(p[0]), Val(p[1])))
		}
	}

	if len(m.history) > 0 {
		sb.WriteString("\n")
		for _, h := range m.history {
			sb.WriteString(StyleMeta.Render("  "+h) + "\n")
		}
	}

	sb.WriteString("\n")
	if m.focus == focusForm {
		sb.WriteString(StyleMeta.Render("  [ Tab/↑↓ ] field   [ Enter ] next / run   [ Ctrl+U ] clear   [ Esc ] menu") + "\n")
	} else {
		sb.WriteString(StyleMeta.Render("  [ ↑↓ / jk ] action   ") + StyleInfo.Render("[ Enter ]") + StyleMeta.Render(" fill & run   [ q ] quit") + "\n")
	}
	return sb.String()
}

// RunStudio launches the studio in the alternate screen and blocks until
// the user quits.
func RunStudio(m StudioModel) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("studio: %w", err)
	}
	return nil
}
