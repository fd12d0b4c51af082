package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause   key.Binding
	Stop        key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	SeekTo      key.Binding
	Eject       key.Binding
	Screen      key.Binding
	Menu        key.Binding
	Back        key.Binding
	Quit        key.Binding
}

func newKeyMap() keyMap {
	k := keyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/pause"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "=", "k", "up"),
			key.WithHelp("+/↑", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-", "j", "down"),
			key.WithHelp("-/↓", "volume down"),
		),
		SeekBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "rewind"),
		),
		SeekForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "fast forward"),
		),
		SeekTo: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump"),
		),
		Eject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "eject"),
		),
		Screen: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "show volume"),
		),
		Menu: key.NewBinding(
			key.WithKeys("m", "o"),
			key.WithHelp("m", "menu"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	k.setLoaded(false)
	return k
}

// Transport keys only make sense with a source bound.
func (k *keyMap) setLoaded(loaded bool) {
	k.PlayPause.SetEnabled(loaded)
	k.Stop.SetEnabled(loaded)
	k.SeekBack.SetEnabled(loaded)
	k.SeekForward.SetEnabled(loaded)
	k.SeekTo.SetEnabled(loaded)
	k.Eject.SetEnabled(loaded)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.VolumeUp, k.VolumeDown, k.SeekBack, k.SeekForward, k.Menu, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Stop, k.SeekBack, k.SeekForward, k.SeekTo, k.Eject},
		{k.VolumeUp, k.VolumeDown, k.Screen},
		{k.Menu, k.Back, k.Quit},
	}
}
