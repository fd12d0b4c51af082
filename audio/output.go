package audio

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Output is where the engine sends samples. In production this is the
// system speaker; tests swap in something that doesn't need a sound card.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }

// speaker.Clear already takes the speaker lock, so never call it while
// holding Lock.
func (speakerOutput) Clear()  { speaker.Clear() }
func (speakerOutput) Lock()   { speaker.Lock() }
func (speakerOutput) Unlock() { speaker.Unlock() }

// Speaker returns the system audio output.
func Speaker() Output { return speakerOutput{} }

const speakerBuffer = time.Second / 10
