package volume

import "math"

// Level is a linear volume in [0, 1].
type Level float64

const (
	Min     Level = 0
	Max     Level = 1
	Default Level = 0.5
	Step    Level = 0.1
)

// Clamp turns an arbitrary value into a valid Level. NaN is treated as silence.
func Clamp(v float64) Level {
	if math.IsNaN(v) {
		return Min
	}
	return Level(math.Round(min(max(v, float64(Min)), float64(Max))*100) / 100)
}

func (l Level) Up() Level   { return Clamp(float64(l + Step)) }
func (l Level) Down() Level { return Clamp(float64(l - Step)) }

// Percent is the level as a whole percentage, rounded down.
func (l Level) Percent() int {
	return int(math.Floor(float64(l)*100 + 1e-9))
}

// Fill returns how many of rows are filled for a vertical indicator.
func (l Level) Fill(rows int) int {
	if rows <= 0 {
		return 0
	}
	return l.Percent() * rows / 100
}

// Gain maps the level onto a base 2 exponent for a beep effects.Volume stage.
// Silent is set for a zero level, where the exponent would be -Inf.
func (l Level) Gain() (exponent float64, silent bool) {
	if l <= Min {
		return 0, true
	}
	return math.Log2(float64(l)), false
}
