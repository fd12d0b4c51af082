package audio

import (
	"time"

	"github.com/pes18fan/clickwheel/artwork"
)

// A status message sent out by the engine to the UI.
// Status structs, alongside acting as a notifier for changes, also provide
// information about the change.
type Status interface {
	isStatus()
}

// Sent once a file has been opened, decoded and bound as the current source.
// Playback starts out paused at the beginning.
type TrackLoaded struct {
	Source string
	Path   string
	Name   string
	Length time.Duration
	Info   TrackInfo
}

func (TrackLoaded) isStatus() {}

type TrackInfo struct {
	Artist string
	Title  string
	Album  string
	Art    artwork.Image
}

// Sent every position interval while the bound source is playing.
// Seeks counts the seek commands the engine had handled for the source when
// Position was taken.
type PositionUpdate struct {
	Source   string
	Position time.Duration
	Length   time.Duration
	Seeks    int
}

func (PositionUpdate) isStatus() {}

// Sent when the bound source plays through to its end. The source stays bound,
// rewound to the start.
type TrackEnded struct {
	Source string
}

func (TrackEnded) isStatus() {}

// Reports a failed command or a playback failure.
type ErrorUpdate struct {
	// Set when a Load of this path failed.
	Path string
	// Set when the failure cost the engine this source. It has been released.
	Source string
	Err    error
}

func (ErrorUpdate) isStatus() {}
