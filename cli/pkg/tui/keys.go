package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// Global navigation
	Quit key.Binding
	Help key.Binding
	Back key.Binding
	Menu key.Binding

	// Context-specific (can be enabled/disabled per page)
	Enter  key.Binding
	Tab    key.Binding
	Submit key.Binding
	Yes    key.Binding
	No     key.Binding

	// Lists
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Switch   key.Binding

	// Room actions
	NewRoom key.Binding
	Leave   key.Binding
	Delete  key.Binding
	Private key.Binding
	Attach  key.Binding
	Filter  key.Binding
	Refresh key.Binding
}

var keys = keyMap{
	// Global navigation
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back/cancel"),
	),
	Menu: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", "menu"),
	),

	// Context-specific
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "next field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "submit"),
	),
	Yes: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	),

	// Lists
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "older"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "newer"),
	),
	Switch: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch list"),
	),

	// Room actions
	NewRoom: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "new room"),
	),
	Leave: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "leave"),
	),
	Delete: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "delete"),
	),
	Private: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "toggle private"),
	),
	Attach: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "attach"),
	),
	Filter: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("ctrl+f", "filter"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "refresh"),
	),
}

// FullHelp returns all keybindings for the help view
func (k keyMap) FullHelp() []key.Binding {
	return []key.Binding{
		k.Help,
		k.Quit,
		k.Back,
		k.Menu,
		k.NewRoom,
		k.Leave,
		k.Delete,
		k.Attach,
		k.Filter,
	}
}

// ShortHelp returns minimal keybindings for the compact help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Menu, k.Quit}
}
