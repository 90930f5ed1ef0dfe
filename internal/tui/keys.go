package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextPane key.Binding
	PrevPane key.Binding
	Next     key.Binding
	Prev     key.Binding
	First    key.Binding
	Last     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		PrevPane: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
		Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next trace")),
		Prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev trace")),
		First:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first trace")),
		Last:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last trace")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// short lists the bindings shown in the help line.
func (k keyMap) short() []key.Binding {
	return []key.Binding{k.NextPane, k.Next, k.Prev, k.First, k.Last, k.Quit}
}
