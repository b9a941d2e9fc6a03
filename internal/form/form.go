package form

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fepipe/internal/load"
)

var (
	// ErrCancelled indicates the user closed the form without submitting.
	ErrCancelled = errors.New("form: cancelled")

	// ErrNotSubmitted indicates the form ended before a valid submit.
	ErrNotSubmitted = errors.New("form: not submitted")
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type field int

const (
	fieldMass field = iota
	fieldFrom
	fieldTo
	fieldGravity
	fieldSubmit
	numFields
)

var labels = [numFields]string{"mass (kg)", "from", "to", "gravity", "apply"}

// Values are the raw form inputs.
type Values struct {
	Mass    string
	From    string
	To      string
	Gravity bool
}

// Model is the load entry form.
type Model struct {
	text    [3]string
	gravity bool
	cursor  field

	err       error
	spec      load.Spec
	force     float64
	submitted bool
	cancelled bool
}

func New(v Values) Model {
	return Model{text: [3]string{v.Mass, v.From, v.To}, gravity: v.Gravity}
}

func (m Model) Values() Values {
	return Values{Mass: m.text[fieldMass], From: m.text[fieldFrom], To: m.text[fieldTo], Gravity: m.gravity}
}

// Err is the validation error of the last submit, shown inline.
func (m Model) Err() error { return m.err }

// Result returns the validated load once the form was submitted.
func (m Model) Result() (load.Spec, float64, error) {
	switch {
	case m.cancelled:
		return load.Spec{}, 0, ErrCancelled
	case !m.submitted:
		return load.Spec{}, 0, ErrNotSubmitted
	}
	return m.spec, m.force, nil
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "tab", "down":
		m.cursor = (m.cursor + 1) % numFields
		return m, nil
	case "shift+tab", "up":
		m.cursor = (m.cursor + numFields - 1) % numFields
		return m, nil
	case "enter":
		return m.submit()
	case "left", "right":
		if m.cursor == fieldFrom || m.cursor == fieldTo {
			step := 1
			if key.String() == "left" {
				step = len(load.Directions) - 1
			}
			m.text[m.cursor] = cycle(m.text[m.cursor], step).String()
			m.err = nil
		}
		return m, nil
	case " ":
		if m.cursor == fieldGravity {
			m.gravity = !m.gravity
		} else if m.cursor == fieldSubmit {
			return m.submit()
		}
		return m, nil
	case "backspace":
		if m.cursor < fieldGravity {
			r := []rune(m.text[m.cursor])
			if len(r) > 0 {
				m.text[m.cursor] = string(r[:len(r)-1])
			}
			m.err = nil
		}
		return m, nil
	}

	if key.Type == tea.KeyRunes && m.cursor < fieldGravity {
		m.text[m.cursor] += string(key.Runes)
		m.err = nil
	}
	return m, nil
}

func (m Model) submit() (Model, tea.Cmd) {
	spec, force, err := load.Parse(m.text[fieldMass], m.text[fieldFrom], m.text[fieldTo], m.gravity)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.spec, m.force, m.err = spec, force, nil
	m.submitted = true
	return m, tea.Quit
}

// cycle steps through the known directions, starting from the first when
// the current text is not a direction.
func cycle(current string, step int) load.Direction {
	d, err := load.ParseDirection(current)
	if err != nil {
		return load.Directions[0]
	}
	for i, known := range load.Directions {
		if known == d {
			return load.Directions[(i+step)%len(load.Directions)]
		}
	}
	return load.Directions[0]
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render("load") + "  " + dim.Render("force applied to the part") + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for f := fieldMass; f < numFields; f++ {
		var val string
		switch f {
		case fieldGravity:
			val = "[ ]"
			if m.gravity {
				val = "[x]"
			}
		case fieldSubmit:
			val = ""
		default:
			val = m.text[f]
			if f == m.cursor {
				val += "▋"
			}
		}
		if f == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", labels[f])) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", labels[f])) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString("      " + red.Render(m.err.Error()) + "\n\n")
	} else if m.submitted {
		b.WriteString("      " + green.Render(fmt.Sprintf("force %.3f N", m.force)) + "\n\n")
	}
	b.WriteString(dim.Render("      ↑↓ field  ←→ direction  space toggle  enter apply  esc cancel") + "\n")

	return b.String()
}

// Run shows the form and returns the validated load.
func Run(initial Values, opts ...tea.ProgramOption) (load.Spec, float64, error) {
	p := tea.NewProgram(New(initial), opts...)
	final, err := p.Run()
	if err != nil {
		return load.Spec{}, 0, err
	}
	return final.(Model).Result()
}
