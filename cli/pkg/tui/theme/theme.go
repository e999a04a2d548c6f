package theme

import "github.com/charmbracelet/lipgloss"

// Theme holds the palette of the client. Styles are derived from one base
// style bound to the program's renderer.
type Theme struct {
	renderer *lipgloss.Renderer

	border    lipgloss.TerminalColor
	highlight lipgloss.TerminalColor
	brand     lipgloss.TerminalColor
	error     lipgloss.TerminalColor
	body      lipgloss.TerminalColor
	accent    lipgloss.TerminalColor
	online    lipgloss.TerminalColor

	base lipgloss.Style
}

func BasicTheme(renderer *lipgloss.Renderer, highlight *string) Theme {
	base := Theme{
		renderer: renderer,
	}

	base.border = lipgloss.AdaptiveColor{Dark: "#2D3748", Light: "#CBD5E0"}
	base.body = lipgloss.AdaptiveColor{Dark: "#94A3B8", Light: "#64748B"}
	base.accent = lipgloss.AdaptiveColor{Dark: "#F1F5F9", Light: "#0F172A"}
	base.brand = lipgloss.Color("#14B8A6") // Teal
	if highlight != nil {
		base.highlight = lipgloss.Color(*highlight)
	} else {
		base.highlight = base.brand
	}
	base.error = lipgloss.Color("#EF4444") // Red
	base.online = lipgloss.Color("#22C55E") // Green

	base.base = renderer.NewStyle().Foreground(base.body)

	return base
}

func (b Theme) Body() lipgloss.TerminalColor      { return b.body }
func (b Theme) Highlight() lipgloss.TerminalColor { return b.highlight }
func (b Theme) Brand() lipgloss.TerminalColor     { return b.brand }
func (b Theme) Accent() lipgloss.TerminalColor    { return b.accent }
func (b Theme) Border() lipgloss.TerminalColor    { return b.border }

func (b Theme) Base() lipgloss.Style {
	return b.base
}

func (b Theme) TextBody() lipgloss.Style {
	return b.Base().Foreground(b.body)
}

// TextMuted is for timestamps, hints and empty states.
func (b Theme) TextMuted() lipgloss.Style {
	return b.TextBody().Faint(true)
}

func (b Theme) TextAccent() lipgloss.Style {
	return b.Base().Foreground(b.accent)
}

func (b Theme) TextHighlight() lipgloss.Style {
	return b.Base().Foreground(b.highlight)
}

// Selected marks the row under the cursor and the viewer's own name.
func (b Theme) Selected() lipgloss.Style {
	return b.TextHighlight().Bold(true)
}

func (b Theme) TextBrand() lipgloss.Style {
	return b.Base().Foreground(b.brand)
}

func (b Theme) TextError() lipgloss.Style {
	return b.Base().Foreground(b.error)
}

func (b Theme) PanelError() lipgloss.Style {
	return b.Base().Background(b.error).Foreground(b.accent)
}

// TextOnline colours presence dots and online counts.
func (b Theme) TextOnline() lipgloss.Style {
	return b.Base().Foreground(b.online)
}

// Modal is the framed box used for confirmations and notices.
func (b Theme) Modal() lipgloss.Style {
	return b.Base().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(b.highlight)
}

// SystemNotice renders join and leave notices in the message list.
func (b Theme) SystemNotice() lipgloss.Style {
	return b.TextMuted().Italic(true).AlignHorizontal(lipgloss.Center)
}
