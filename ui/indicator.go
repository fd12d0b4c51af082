package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type hideIndicatorMsg struct {
	tag int
}

// indicator is the volume bar's visibility window. Every show restarts the
// hide delay; ticks scheduled before the latest show carry an old tag and
// are ignored, which is how a pending hide gets cancelled.
type indicator struct {
	visible bool
	tag     int
	delay   time.Duration
}

func newIndicator(delay time.Duration) indicator {
	return indicator{delay: delay}
}

func (i *indicator) show() tea.Cmd {
	i.visible = true
	i.tag++
	tag := i.tag
	return tea.Tick(i.delay, func(time.Time) tea.Msg {
		return hideIndicatorMsg{tag: tag}
	})
}

func (i *indicator) toggle() tea.Cmd {
	if i.visible {
		i.stop()
		return nil
	}
	return i.show()
}

// stop hides the indicator and invalidates any pending hide.
func (i *indicator) stop() {
	i.visible = false
	i.tag++
}

func (i *indicator) update(msg hideIndicatorMsg) {
	if msg.tag == i.tag {
		i.visible = false
	}
}
