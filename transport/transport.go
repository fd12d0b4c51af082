package transport

import (
	"fmt"
	"math"
	"time"
)

type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// The playback element a transport drives. The audio engine implements it.
type Element interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
}

// Transport tracks the play/pause/stop state of a single bound source along
// with the last position the element reported while playing.
//
// A Transport only exists once a source is bound, so there is no way to ask
// it to play or seek with nothing loaded.
type Transport struct {
	el       Element
	state    State
	position time.Duration
	length   time.Duration
	// element seeks issued so far
	seeks int
}

func New(el Element, length time.Duration) *Transport {
	return &Transport{
		el:     el,
		state:  Stopped,
		length: max(length, 0),
	}
}

func (t *Transport) State() State            { return t.state }
func (t *Transport) Position() time.Duration { return t.position }
func (t *Transport) Length() time.Duration   { return t.length }

// Seeks is the number of seeks successfully sent to the element.
func (t *Transport) Seeks() int { return t.seeks }

// Fraction of the track that has been played, in [0, 1].
func (t *Transport) Fraction() float64 {
	if t.length <= 0 {
		return 0
	}
	return float64(t.position) / float64(t.length)
}

// Toggle performs whichever of start, pause or resume the current state
// calls for, and returns the new state.
func (t *Transport) Toggle() (State, error) {
	switch t.state {
	case Stopped, Paused:
		// The element's own position may have moved since we last saw it,
		// so always seek back to the recorded one before playing.
		if err := t.seek(t.position); err != nil {
			return t.state, fmt.Errorf("failed to seek before playing: %w", err)
		}
		if err := t.el.Play(); err != nil {
			return t.state, fmt.Errorf("failed to play: %w", err)
		}
		t.state = Playing
	case Playing:
		if err := t.el.Pause(); err != nil {
			return t.state, fmt.Errorf("failed to pause: %w", err)
		}
		t.state = Paused
	}
	return t.state, nil
}

// Stop pauses the element and rewinds to the beginning.
func (t *Transport) Stop() error {
	if t.state == Stopped {
		return nil
	}
	if err := t.el.Pause(); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	if err := t.seek(0); err != nil {
		return fmt.Errorf("failed to rewind: %w", err)
	}
	t.state = Stopped
	t.position = 0
	return nil
}

// TimeUpdate records a position reported by the element. Reports that arrive
// while not playing are stale and dropped.
func (t *Transport) TimeUpdate(pos time.Duration) {
	if t.state != Playing {
		return
	}
	t.position = t.clamp(pos)
}

// Report is TimeUpdate for a position the element measured after it had
// handled the given number of seeks. A report taken before the latest seek
// landed is dropped.
func (t *Transport) Report(pos time.Duration, seeks int) {
	if seeks < t.seeks {
		return
	}
	t.TimeUpdate(pos)
}

// Ended marks the track as having played to the end.
func (t *Transport) Ended() {
	t.state = Stopped
	t.position = 0
}

// SeekTo moves to pos, clamped into the track. While playing the element is
// seeked right away, otherwise the position is used by the next start/resume.
func (t *Transport) SeekTo(pos time.Duration) error {
	pos = t.clamp(pos)
	if t.state == Playing {
		if err := t.seek(pos); err != nil {
			return fmt.Errorf("failed to seek to %v: %w", pos, err)
		}
	}
	t.position = pos
	return nil
}

func (t *Transport) SeekBy(delta time.Duration) error {
	return t.SeekTo(t.position + delta)
}

// SeekFraction seeks to a point given as a fraction of the track length.
func (t *Transport) SeekFraction(f float64) error {
	f = min(max(f, 0), 1)
	return t.SeekTo(time.Duration(math.Round(f * float64(t.length))))
}

func (t *Transport) seek(pos time.Duration) error {
	if err := t.el.Seek(pos); err != nil {
		return err
	}
	t.seeks++
	return nil
}

func (t *Transport) clamp(pos time.Duration) time.Duration {
	return min(max(pos, 0), t.length)
}
