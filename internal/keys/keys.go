package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the line editor.
type KeyMap struct {
	// Line editing
	Backspace key.Binding
	Delete    key.Binding
	Left      key.Binding
	Right     key.Binding
	Home      key.Binding
	End       key.Binding

	// History
	Prev key.Binding
	Next key.Binding

	// Log scrolling
	PageUp   key.Binding
	PageDown key.Binding

	// Commands
	Complete key.Binding
	Submit   key.Binding
	Quit     key.Binding

	// Help toggle
	Help key.Binding

	// Vi normal mode, unbound in emacs mode
	Normal     key.Binding
	Insert     key.Binding
	Append     key.Binding
	ViLeft     key.Binding
	ViRight    key.Binding
	ViHome     key.Binding
	ViEnd      key.Binding
	ViDelete   key.Binding
	ViHistPrev key.Binding
	ViHistNext key.Binding
}

// Vi reports whether the vi normal-mode bindings are enabled.
func (k *KeyMap) Vi() bool {
	return k.Normal.Enabled()
}

func common() *KeyMap {
	return &KeyMap{
		Backspace: key.NewBinding(
			key.WithKeys("backspace", "ctrl+h"),
			key.WithHelp("⌫", "delete back"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete"),
			key.WithHelp("del", "delete"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "right"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "line start"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "line end"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous line"),
		),
		Next: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next line"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "scroll down"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+d", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+_", "f1"),
			key.WithHelp("f1", "toggle help"),
		),
	}
}

// EmacsKeyMap returns the default bindings.
func EmacsKeyMap() *KeyMap {
	k := common()
	k.Left.SetKeys("left", "ctrl+b")
	k.Right.SetKeys("right", "ctrl+f")
	k.Home.SetKeys("home", "ctrl+a")
	k.Home.SetHelp("ctrl+a", "line start")
	k.End.SetKeys("end", "ctrl+e")
	k.End.SetHelp("ctrl+e", "line end")
	k.Prev.SetKeys("up", "ctrl+p")
	k.Next.SetKeys("down", "ctrl+n")
	return k
}

// ViKeyMap returns bindings with a vi normal mode entered with esc.
func ViKeyMap() *KeyMap {
	k := common()
	k.Normal = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "normal mode"))
	k.Insert = key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insert"))
	k.Append = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "append"))
	k.ViLeft = key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "left"))
	k.ViRight = key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "right"))
	k.ViHome = key.NewBinding(key.WithKeys("0", "^"), key.WithHelp("0", "line start"))
	k.ViEnd = key.NewBinding(key.WithKeys("$"), key.WithHelp("$", "line end"))
	k.ViDelete = key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete"))
	k.ViHistPrev = key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "previous line"))
	k.ViHistNext = key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "next line"))
	return k
}

// ForStyle returns the key map of a keybinds setting ("emacs" or "vi").
func ForStyle(style string) *KeyMap {
	if style == "vi" {
		return ViKeyMap()
	}
	return EmacsKeyMap()
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Submit, k.Prev, k.Quit, k.Help}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	groups := [][]key.Binding{
		{k.Complete, k.Submit, k.Quit, k.Help},
		{k.Left, k.Right, k.Home, k.End},
		{k.Backspace, k.Delete, k.Prev, k.Next},
		{k.PageUp, k.PageDown},
	}
	if k.Vi() {
		groups = append(groups,
			[]key.Binding{k.Normal, k.Insert, k.Append, k.ViDelete},
			[]key.Binding{k.ViLeft, k.ViRight, k.ViHome, k.ViEnd},
		)
	}
	return groups
}
