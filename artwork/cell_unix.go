//go:build unix

package artwork

import (
	"os"

	"golang.org/x/sys/unix"
)

// TerminalCell asks the terminal on stdout for its pixel-per-cell ratio.
func TerminalCell() Cell {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 || ws.Xpixel == 0 || ws.Ypixel == 0 {
		return defaultCell
	}
	return Cell{
		W: int(ws.Xpixel) / int(ws.Col),
		H: int(ws.Ypixel) / int(ws.Row),
	}
}
