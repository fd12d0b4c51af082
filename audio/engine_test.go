package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pes18fan/clickwheel/volume"
)

const testRate = beep.SampleRate(8000)

// fakeOutput stands in for the speaker. Samples only move when the test
// pulls them.
type fakeOutput struct {
	mu      sync.Mutex
	inits   int
	rate    beep.SampleRate
	clears  int
	streams []beep.Streamer
}

func (f *fakeOutput) Init(rate beep.SampleRate, bufferSize int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	f.rate = rate
	return nil
}

func (f *fakeOutput) Play(s beep.Streamer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams = append(f.streams, s)
}

func (f *fakeOutput) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.streams = nil
}

func (f *fakeOutput) Lock()   { f.mu.Lock() }
func (f *fakeOutput) Unlock() { f.mu.Unlock() }

// pull streams n samples out of everything playing and returns the loudest.
func (f *fakeOutput) pull(n int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf := make([][2]float64, n)
	peak := 0.0
	alive := f.streams[:0]
	for _, s := range f.streams {
		got, ok := s.Stream(buf)
		for _, sample := range buf[:got] {
			peak = max(peak, sample[0], -sample[0])
		}
		if ok {
			alive = append(alive, s)
		}
	}
	f.streams = alive
	return peak
}

func (f *fakeOutput) playing() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

func tone(n int) beep.Streamer {
	left := n
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left <= 0 {
			return 0, false
		}
		k := min(len(samples), left)
		for i := range samples[:k] {
			samples[i] = [2]float64{0.5, 0.5}
		}
		left -= k
		return k, true
	})
}

func writeWav(t *testing.T, name string, rate beep.SampleRate, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, tone(rate.N(d)), format))
	return path
}

func startEngine(t *testing.T, out *fakeOutput) *Engine {
	t.Helper()
	e := NewEngine(Options{
		Output:           out,
		PositionInterval: 5 * time.Millisecond,
		Volume:           volume.Max,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})
	return e
}

// next waits for the first status of type T, skipping anything else.
func next[T Status](t *testing.T, e *Engine) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-e.Status():
			if v, ok := s.(T); ok {
				return v
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

// drain throws away pending statuses so the engine never blocks on a full
// channel while a test is busy elsewhere.
func drain(e *Engine) {
	for {
		select {
		case <-e.Status():
		default:
			return
		}
	}
}

func TestLoadBindsSource(t *testing.T) {
	out := &fakeOutput{}
	e := startEngine(t, out)
	path := writeWav(t, "one.wav", testRate, time.Second)

	require.NoError(t, e.Load(path))
	loaded := next[TrackLoaded](t, e)

	assert.Equal(t, "one.wav", loaded.Name)
	assert.Equal(t, path, loaded.Path)
	assert.Equal(t, time.Second, loaded.Length)
	assert.Regexp(t, `^source:[0-9a-f-]{36}$`, loaded.Source)
	assert.Equal(t, 1, out.inits)
	assert.Equal(t, testRate, out.rate)
	assert.Equal(t, 1, out.playing())

	// loaded sources start out paused
	assert.Zero(t, out.pull(100))
}

func TestLoadReplacesAndReleasesPreviousSource(t *testing.T) {
	out := &fakeOutput{}
	e := startEngine(t, out)

	require.NoError(t, e.Load(writeWav(t, "one.wav", testRate, time.Second)))
	first := next[TrackLoaded](t, e)
	old := e.current.src
	require.Equal(t, first.Source, old.id)

	// a different rate gets resampled onto the already initialized output
	require.NoError(t, e.Load(writeWav(t, "two.wav", 2*testRate, time.Second)))
	second := next[TrackLoaded](t, e)

	assert.NotEqual(t, first.Source, second.Source)
	assert.True(t, old.closed)
	assert.Equal(t, 1, out.clears)
	assert.Equal(t, 1, out.inits)
	assert.Equal(t, 1, out.playing())
}

func TestPlayReportsPosition(t *testing.T) {
	out := &fakeOutput{}
	e := startEngine(t, out)
	require.NoError(t, e.Load(writeWav(t, "one.wav", testRate, time.Second)))
	loaded := next[TrackLoaded](t, e)

	require.NoError(t, e.Play())
	require.Eventually(t, func() bool { return out.pull(testRate.N(time.Second/4)) > 0 },
		time.Second, 5*time.Millisecond)

	for {
		pos := next[PositionUpdate](t, e)
		assert.Equal(t, loaded.Source, pos.Source)
		assert.Equal(t, time.Second, pos.Length)
		if pos.Position >= time.Second/4 {
			break
		}
	}
}

func TestSeekAndStop(t *testing.T) {
	out := &fakeOutput{}
	e := startEngine(t, out)
	require.NoError(t, e.Load(writeWav(t, "one.wav", testRate, time.Second)))
	next[TrackLoaded](t, e)

	require.NoError(t, e.Seek(600*time.Millisecond))
	require.NoError(t, e.Play())
	pos := next[PositionUpdate](t, e)
	assert.Equal(t, 600*time.Millisecond, pos.Position)
	assert.Equal(t, 1, pos.Seeks)

	// seeking past the end clamps instead of failing
	require.NoError(t, e.Seek(time.Hour))
	for next[PositionUpdate](t, e).Position != time.Second {
	}

	require.NoError(t, e.Stop())
	require.NoError(t, e.Play())
	for next[PositionUpdate](t, e).Position != 0 {
	}
}

func TestTrackEndRearmsSource(t *testing.T) {
	out := &fakeOutput{}
	e := startEngine(t, out)
	require.NoError(t, e.Load(writeWav(t, "short.wav", testRate, 100*time.Millisecond)))
	loaded := next[TrackLoaded](t, e)

	// The drained sequence is re-armed before it's dropped from the output,
	// so wait for the engine to say so instead of watching the output empty.
	require.NoError(t, e.Play())
	var ended TrackEnded
	require.Eventually(t, func() bool {
		out.pull(testRate.N(time.Second))
		for {
			select {
			case s := <-e.Status():
				if v, ok := s.(TrackEnded); ok {
					ended = v
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, loaded.Source, ended.Source)

	// still bound, paused at the start and playable again
	require.Eventually(t, func() bool {
		out.pull(10)
		return out.playing() == 1
	}, time.Second, time.Millisecond)
	assert.Zero(t, out.pull(10))
	require.NoError(t, e.Play())
	require.Eventually(t, func() bool {
		drain(e)
		return out.pull(10) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestVolume(t *testing.T) {
	out := &fakeOutput{}
	e := startEngine(t, out)
	path := writeWav(t, "one.wav", testRate, 10*time.Second)
	level := firstSample(t, path)
	require.Positive(t, level)

	require.NoError(t, e.SetVolume(volume.Min))
	require.NoError(t, e.Load(path))
	next[TrackLoaded](t, e)
	require.NoError(t, e.Play())

	// muted, so even while playing nothing comes out
	for {
		out.pull(10)
		if next[PositionUpdate](t, e).Position > 0 {
			break
		}
	}
	assert.Zero(t, out.pull(10))

	// full volume is unity gain
	require.NoError(t, e.SetVolume(volume.Max))
	require.Eventually(t, func() bool {
		drain(e)
		return math.Abs(out.pull(10)-level) < 1e-9
	}, time.Second, 5*time.Millisecond)
}

// firstSample is the left channel of the fixture's first frame as the
// decoder sees it.
func firstSample(t *testing.T, path string) float64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	s, _, err := wav.Decode(f)
	require.NoError(t, err)
	defer s.Close()

	buf := make([][2]float64, 1)
	n, _ := s.Stream(buf)
	require.Equal(t, 1, n)
	return buf[0][0]
}

func TestCommandsWithoutSource(t *testing.T) {
	e := startEngine(t, &fakeOutput{})

	require.NoError(t, e.Play())
	update := next[ErrorUpdate](t, e)
	assert.ErrorIs(t, update.Err, ErrNoSource)

	require.NoError(t, e.Seek(time.Second))
	update = next[ErrorUpdate](t, e)
	assert.ErrorIs(t, update.Err, ErrNoSource)
}

// brokenStreamer decodes fine but reports a stream error.
type brokenStreamer struct {
	beep.StreamSeekCloser
}

func (brokenStreamer) Err() error { return errors.New("corrupt frame") }

func TestStreamErrorReleasesSource(t *testing.T) {
	out := &fakeOutput{}
	e := startEngine(t, out)
	require.NoError(t, e.Load(writeWav(t, "one.wav", testRate, time.Second)))
	loaded := next[TrackLoaded](t, e)
	src := e.current.src

	out.Lock()
	src.streamer = brokenStreamer{src.streamer}
	out.Unlock()

	update := next[ErrorUpdate](t, e)
	assert.Equal(t, loaded.Source, update.Source)
	assert.ErrorContains(t, update.Err, "corrupt frame")
	assert.True(t, src.closed)
	assert.Nil(t, e.current)

	require.NoError(t, e.Play())
	update = next[ErrorUpdate](t, e)
	assert.ErrorIs(t, update.Err, ErrNoSource)
	assert.Empty(t, update.Source)
}

func TestCommandsAfterContextCancelled(t *testing.T) {
	e := NewEngine(Options{Output: &fakeOutput{}})
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	cancel()
	<-e.Done()

	// more commands than the queue holds, none of them may block
	for range 64 {
		assert.ErrorIs(t, e.Play(), ErrClosed)
	}
}

func TestLoadFailures(t *testing.T) {
	e := startEngine(t, &fakeOutput{})

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, e.Load(notes))
	update := next[ErrorUpdate](t, e)
	assert.ErrorIs(t, update.Err, ErrUnsupportedFormat)
	assert.Equal(t, notes, update.Path)

	require.NoError(t, e.Load(filepath.Join(t.TempDir(), "missing.wav")))
	update = next[ErrorUpdate](t, e)
	assert.ErrorIs(t, update.Err, os.ErrNotExist)

	broken := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(broken, []byte("definitely not riff"), 0o644))
	require.NoError(t, e.Load(broken))
	update = next[ErrorUpdate](t, e)
	assert.ErrorContains(t, update.Err, "failed to decode")
}

func TestCloseReleasesSource(t *testing.T) {
	out := &fakeOutput{}
	e := NewEngine(Options{Output: out})
	go e.Run(context.Background())

	require.NoError(t, e.Load(writeWav(t, "one.wav", testRate, time.Second)))
	next[TrackLoaded](t, e)
	src := e.current.src

	require.NoError(t, e.Close())
	<-e.Done()
	assert.True(t, src.closed)
	assert.Nil(t, e.current)
	assert.ErrorIs(t, e.Play(), ErrClosed)
	// closing twice is fine
	assert.NoError(t, e.Close())
}
