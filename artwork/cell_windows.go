package artwork

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procGetCurrentConsoleFont = modkernel32.NewProc("GetCurrentConsoleFont")
)

type consoleFontInfo struct {
	nFont      uint32
	dwFontSize windows.Coord
}

// TerminalCell reads the console font size, which is the size of one cell.
func TerminalCell() Cell {
	handle := windows.Handle(os.Stdout.Fd())

	var cfi consoleFontInfo
	r, _, _ := procGetCurrentConsoleFont.Call(uintptr(handle), 0, uintptr(unsafe.Pointer(&cfi)))
	if r == 0 || cfi.dwFontSize.X <= 0 || cfi.dwFontSize.Y <= 0 {
		return defaultCell
	}
	return Cell{W: int(cfi.dwFontSize.X), H: int(cfi.dwFontSize.Y)}
}
