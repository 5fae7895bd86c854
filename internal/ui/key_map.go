package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the recording wizard.
type keyMap struct {
	next   key.Binding
	start  key.Binding
	stop   key.Binding
	accept key.Binding
	retake key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		start:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		stop:   key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "stop")),
		accept: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "accept")),
		retake: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "retake")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.start, k.stop},
		{k.accept, k.retake, k.quit},
	}
}
