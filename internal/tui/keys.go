package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Enter     key.Binding
	Indent    key.Binding
	Outdent   key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Home      key.Binding
	End       key.Binding
	Backspace key.Binding
	Delete    key.Binding
	DrillDown key.Binding
	DrillUp   key.Binding
	Copy      key.Binding
	External  key.Binding
	Save      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "new/split")),
		Indent:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "indent")),
		Outdent:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "outdent")),
		MoveUp:    key.NewBinding(key.WithKeys("alt+up", "ctrl+shift+up", "shift+up"), key.WithHelp("alt+↑", "move up")),
		MoveDown:  key.NewBinding(key.WithKeys("alt+down", "ctrl+shift+down", "shift+down"), key.WithHelp("alt+↓", "move down")),
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "left")),
		Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "right")),
		Home:      key.NewBinding(key.WithKeys("home", "ctrl+a"), key.WithHelp("home", "line start")),
		End:       key.NewBinding(key.WithKeys("end", "ctrl+e"), key.WithHelp("end", "line end")),
		Backspace: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "delete")),
		Delete:    key.NewBinding(key.WithKeys("delete"), key.WithHelp("del", "merge next")),
		DrillDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "zoom in")),
		DrillUp:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "zoom out")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy subtree")),
		External:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "$EDITOR")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Help:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "help")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Indent, k.Outdent, k.MoveUp, k.DrillDown, k.DrillUp, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.Backspace, k.Delete, k.Home, k.End},
		{k.Indent, k.Outdent, k.MoveUp, k.MoveDown},
		{k.Up, k.Down, k.Left, k.Right},
		{k.DrillDown, k.DrillUp, k.Copy, k.External},
		{k.Save, k.Help, k.Quit},
	}
}
