// Package timecode formats playback positions the way a portable player's
// screen shows them.
package timecode

import (
	"fmt"
	"math"
	"time"
)

// Format renders d as minutes:seconds with zero padded seconds, e.g. 1:15.
// Minutes are not capped, so an 80 minute track reads 80:00.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatSeconds is Format for a raw float seconds value.
func FormatSeconds(s float64) string {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return Format(0)
	}
	return Format(time.Duration(s * float64(time.Second)))
}

// Remaining renders the time left in the track as -m:ss. Partial seconds
// round up, so alongside Format(pos) the two always add up to the length.
func Remaining(pos, length time.Duration) string {
	left := max(length-pos, 0)
	return "-" + Format((left+time.Second-1).Truncate(time.Second))
}
