//go:build !unix && !windows

package artwork

func TerminalCell() Cell { return defaultCell }
