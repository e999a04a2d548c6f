package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hilthontt/parley/cli/pkg/tui/validate"
)

type formField struct {
	label    string
	input    textinput.Model
	validate validate.ErrorHandler
}

// form is a vertical list of text inputs with one focused at a time.
type form struct {
	fields []formField
	focus  int
}

func (m model) newInput(placeholder string, limit int, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	ti.PromptStyle = m.theme.TextBrand()
	ti.TextStyle = m.theme.TextAccent()
	ti.PlaceholderStyle = m.theme.TextBody()
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func newForm(fields ...formField) form {
	f := form{fields: fields}
	return f.focusOn(0)
}

func (f form) focusOn(i int) form {
	if len(f.fields) == 0 {
		return f
	}
	i = (i%len(f.fields) + len(f.fields)) % len(f.fields)

	fields := make([]formField, len(f.fields))
	copy(fields, f.fields)
	for j := range fields {
		if j == i {
			fields[j].input.Focus()
		} else {
			fields[j].input.Blur()
		}
	}
	f.fields = fields
	f.focus = i
	return f
}

func (f form) Next() form { return f.focusOn(f.focus + 1) }
func (f form) Prev() form { return f.focusOn(f.focus - 1) }

func (f form) OnLast() bool { return f.focus == len(f.fields)-1 }

func (f form) Value(i int) string {
	if i < 0 || i >= len(f.fields) {
		return ""
	}
	return f.fields[i].input.Value()
}

func (f form) SetValue(i int, v string) form {
	if i < 0 || i >= len(f.fields) {
		return f
	}
	fields := make([]formField, len(f.fields))
	copy(fields, f.fields)
	fields[i].input.SetValue(v)
	f.fields = fields
	return f
}

// Validate returns the first failing field's error and focuses it.
func (f form) Validate() (form, error) {
	for i, field := range f.fields {
		if field.validate == nil {
			continue
		}
		if err := field.validate(field.input.Value()); err != nil {
			return f.focusOn(i), err
		}
	}
	return f, nil
}

// Update forwards msg to the focused input.
func (f form) Update(msg tea.Msg) (form, tea.Cmd) {
	if len(f.fields) == 0 {
		return f, nil
	}
	fields := make([]formField, len(f.fields))
	copy(fields, f.fields)

	var cmd tea.Cmd
	fields[f.focus].input, cmd = fields[f.focus].input.Update(msg)
	f.fields = fields
	return f, cmd
}

func (m model) formView(f form) []string {
	sections := []string{}
	for i, field := range f.fields {
		label := m.theme.TextAccent().Render(field.label + ":")
		if i == f.focus {
			label = m.theme.TextHighlight().Render(field.label + ":")
		}
		sections = append(sections, label, field.input.View(), "")
	}
	return sections
}

func trimmed(s string) string { return strings.TrimSpace(s) }
