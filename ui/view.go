package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pes18fan/clickwheel/timecode"
	"github.com/pes18fan/clickwheel/transport"
)

// Fixed layout, so mouse positions can be mapped back onto the seek bar.
const (
	marginLeft  = 2
	headerRows  = 2
	screenWidth = 34
	screenRows  = 7
	volumeRows  = 8
	wheelWidth  = 20
	pickerRows  = 12

	// line of the seek bar within the screen
	seekBarLine = 5
	seekBarRow  = headerRows + 1 + seekBarLine
	seekBarCol  = marginLeft + 1 + 1
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	screenStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(screenWidth + 2)
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("87"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	volumeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Foreground(lipgloss.Color("86"))
	wheelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(wheelWidth).
			Align(lipgloss.Center)
)

// seekBarFraction maps a terminal cell onto the seek bar.
func seekBarFraction(x, y int) (float64, bool) {
	if y != seekBarRow || x < seekBarCol || x >= seekBarCol+screenWidth {
		return 0, false
	}
	return float64(x-seekBarCol) / float64(screenWidth-1), true
}

func fit(s string) string {
	return lipgloss.NewStyle().MaxWidth(screenWidth).Render(s)
}

// spread puts left and right at opposite ends of a screen line.
func spread(left, right string) string {
	gap := screenWidth - lipgloss.Width(left) - lipgloss.Width(right)
	return left + strings.Repeat(" ", max(gap, 1)) + right
}

func (m Model) View() string {
	s := headingStyle.Render("clickwheel") + "\n\n"

	if m.picking {
		s += "Select an audio file\n\n"
		s += m.picker.View() + "\n"
		s += m.statusLine() + "\n"
		s += dimStyle.Render("enter select • esc back • ctrl+c quit") + "\n"
		return s
	}

	body := m.screenView()
	if m.indicator.visible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.volumeView())
	}
	s += lipgloss.NewStyle().MarginLeft(marginLeft).Render(body) + "\n\n"
	s += lipgloss.NewStyle().MarginLeft(marginLeft+(screenWidth+4-wheelWidth-2)/2).Render(m.wheelView()) + "\n\n"
	s += m.statusLine() + "\n"
	s += m.help.View(m.keys) + "\n"

	if art := m.track.Info.Art; !art.Empty() {
		s += "\n" + art.Data + strings.Repeat("\n", art.Rows)
	}
	return s
}

func (m Model) screenView() string {
	lines := make([]string, 0, screenRows)

	switch {
	case m.loading != "":
		lines = append(lines, nameStyle.Render("Loading "+filepath.Base(m.loading)+"..."))
	case m.transport == nil:
		lines = append(lines, nameStyle.Render("No track"))
	default:
		lines = append(lines, nameStyle.Render(m.track.Name))
	}
	info := m.track.Info
	lines = append(lines,
		infoStyle.Render(info.Title),
		infoStyle.Render(info.Artist),
		dimStyle.Render(info.Album),
	)

	if m.transport == nil {
		lines = append(lines, "", m.seekBar.ViewAs(0), spread("0:00", "-0:00"))
	} else {
		pos, length := m.transport.Position(), m.transport.Length()
		lines = append(lines,
			spread(stateLabel(m.transport.State()), timecode.Format(length)),
			m.seekBar.ViewAs(m.transport.Fraction()),
			spread(timecode.Format(pos), timecode.Remaining(pos, length)),
		)
	}

	for i, l := range lines {
		lines[i] = fit(l)
	}
	return screenStyle.Render(strings.Join(lines, "\n"))
}

func stateLabel(s transport.State) string {
	switch s {
	case transport.Playing:
		return "▶ Playing"
	case transport.Paused:
		return "❚❚ Paused"
	default:
		return "■ Stopped"
	}
}

// volumeView is the vertical fill bar, filled from the bottom.
func (m Model) volumeView() string {
	fill := m.level.Fill(volumeRows)
	rows := make([]string, volumeRows)
	for r := range rows {
		if r >= volumeRows-fill {
			rows[r] = "██"
		} else {
			rows[r] = "  "
		}
	}
	return volumeStyle.Render(strings.Join(rows, "\n")) + "\n" + fmt.Sprintf("%3d%%", m.level.Percent())
}

func (m Model) wheelView() string {
	center := "▶ ❚❚"
	if m.transport != nil && m.transport.State() == transport.Playing {
		center = "❚❚"
	} else if m.transport != nil {
		center = "▶"
	}
	return wheelStyle.Render(strings.Join([]string{
		"MENU",
		"«" + strings.Repeat(" ", wheelWidth-4) + "»",
		center,
	}, "\n"))
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("error: " + m.err.Error())
	case m.loading != "":
		return dimStyle.Render("loading " + m.loading)
	case m.transport == nil:
		return dimStyle.Render("no track loaded, press m to pick a file")
	default:
		return ""
	}
}
