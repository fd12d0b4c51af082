package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"go.uber.org/zap"

	"github.com/pes18fan/clickwheel/artwork"
	"github.com/pes18fan/clickwheel/volume"
)

const (
	DefaultPositionInterval = time.Second
	ResampleQuality         = 4
)

var (
	ErrNoSource = errors.New("no audio source loaded")
	ErrClosed   = errors.New("audio engine closed")
)

type commandKind int

const (
	cmdLoad commandKind = iota
	cmdUnload
	cmdPlay
	cmdPause
	cmdSeek
	cmdStop
	cmdVolume
)

func (k commandKind) String() string {
	return [...]string{"load", "unload", "play", "pause", "seek", "stop", "volume"}[k]
}

type command struct {
	kind  commandKind
	path  string
	pos   time.Duration
	level volume.Level
}

type Options struct {
	// Defaults to the system speaker.
	Output Output
	// How often a PositionUpdate is sent while playing.
	PositionInterval time.Duration
	Volume           volume.Level
	// Decode embedded cover art, sized for cells of the given size.
	Artwork bool
	Cell    artwork.Cell
	Logger  *zap.Logger
}

// Engine is the audio unit. It accepts, processes and plays audio files
// over a command channel and reports back on a status channel.
// Run must be started in its own goroutine.
type Engine struct {
	out      Output
	log      *zap.Logger
	interval time.Duration
	srcOpts  sourceOptions

	cmds     chan command
	status   chan Status
	finished chan string
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Everything below is owned by the Run goroutine.
	initialized bool
	rate        beep.SampleRate
	level       volume.Level
	current     *binding
}

// The source currently wired into the output.
type binding struct {
	src  *source
	ctrl *beep.Ctrl
	vol  *effects.Volume
	// Seek commands handled for this source.
	seeks int
}

func NewEngine(opts Options) *Engine {
	if opts.Output == nil {
		opts.Output = Speaker()
	}
	if opts.PositionInterval <= 0 {
		opts.PositionInterval = DefaultPositionInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		out:      opts.Output,
		log:      opts.Logger.Named("audio"),
		interval: opts.PositionInterval,
		srcOpts:  sourceOptions{art: opts.Artwork, cell: opts.Cell},
		level:    volume.Clamp(float64(opts.Volume)),
		cmds:     make(chan command, 16),
		status:   make(chan Status, 16),
		finished: make(chan string, 4),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Status returns the channel the engine reports on.
func (e *Engine) Status() <-chan Status { return e.status }

// Done is closed once Run has returned and the bound source is released.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) Load(path string) error { return e.send(command{kind: cmdLoad, path: path}) }
func (e *Engine) Unload() error          { return e.send(command{kind: cmdUnload}) }
func (e *Engine) Play() error            { return e.send(command{kind: cmdPlay}) }
func (e *Engine) Pause() error           { return e.send(command{kind: cmdPause}) }
func (e *Engine) Stop() error            { return e.send(command{kind: cmdStop}) }

func (e *Engine) Seek(pos time.Duration) error {
	return e.send(command{kind: cmdSeek, pos: pos})
}

func (e *Engine) SetVolume(level volume.Level) error {
	return e.send(command{kind: cmdVolume, level: level})
}

// Close stops the engine. The bound source is released on the way out.
func (e *Engine) Close() error {
	e.stopOnce.Do(func() { close(e.quit) })
	return nil
}

func (e *Engine) send(c command) error {
	select {
	case <-e.quit:
		return ErrClosed
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.cmds <- c:
		return nil
	case <-e.quit:
		return ErrClosed
	case <-e.done:
		return ErrClosed
	}
}

func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	defer e.release()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.log.Debug("engine started")
	for {
		select {
		case <-ctx.Done():
			e.log.Debug("engine context done")
			return
		case <-e.quit:
			e.log.Debug("engine closed")
			return
		case cmd := <-e.cmds:
			if err := e.handle(ctx, cmd); err != nil {
				e.log.Warn("command failed", zap.Stringer("command", cmd.kind), zap.Error(err))
				e.emit(ctx, ErrorUpdate{Path: cmd.path, Err: err})
			}
		case id := <-e.finished:
			e.finish(ctx, id)
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) emit(ctx context.Context, s Status) {
	select {
	case e.status <- s:
	case <-ctx.Done():
	case <-e.quit:
	}
}

func (e *Engine) handle(ctx context.Context, cmd command) error {
	if cmd.kind == cmdVolume {
		e.level = volume.Clamp(float64(cmd.level))
		if e.current != nil {
			e.out.Lock()
			e.current.vol.Volume, e.current.vol.Silent = e.level.Gain()
			e.out.Unlock()
		}
		e.log.Debug("volume set", zap.Float64("level", float64(e.level)))
		return nil
	}

	if cmd.kind == cmdLoad {
		return e.load(ctx, cmd.path)
	}

	if e.current == nil {
		return fmt.Errorf("%s: %w", cmd.kind, ErrNoSource)
	}

	switch cmd.kind {
	case cmdUnload:
		e.release()
	case cmdPlay:
		e.out.Lock()
		e.current.ctrl.Paused = false
		e.out.Unlock()
	case cmdPause:
		e.out.Lock()
		e.current.ctrl.Paused = true
		e.out.Unlock()
	case cmdSeek:
		e.current.seeks++
		e.out.Lock()
		err := e.current.src.seek(cmd.pos)
		e.out.Unlock()
		if err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}
	case cmdStop:
		e.out.Lock()
		e.current.ctrl.Paused = true
		err := e.current.src.seek(0)
		e.out.Unlock()
		if err != nil {
			return fmt.Errorf("failed to rewind: %w", err)
		}
	}
	return nil
}

func (e *Engine) load(ctx context.Context, path string) error {
	// The old source goes first, whether or not the new one opens.
	e.release()

	src, err := openSource(path, e.srcOpts, e.log)
	if err != nil {
		return err
	}

	// Careful not to double-initialize the output!
	if !e.initialized {
		rate := src.format.SampleRate
		if err := e.out.Init(rate, rate.N(speakerBuffer)); err != nil {
			src.Close()
			return fmt.Errorf("failed to initialize audio output: %w", err)
		}
		e.rate = rate
		e.initialized = true
	}

	length := src.length()
	e.current = &binding{src: src}
	e.arm(true)
	e.log.Info("source bound",
		zap.String("source", src.id),
		zap.String("path", path),
		zap.Int("sample_rate", int(src.format.SampleRate)),
	)

	e.emit(ctx, TrackLoaded{
		Source: src.id,
		Path:   src.path,
		Name:   src.name(),
		Length: length,
		Info:   src.info,
	})
	return nil
}

// arm wires the current source into the output. A sequence that has run
// out can't be restarted, so this is also how a finished track is re-armed.
func (e *Engine) arm(paused bool) {
	b := e.current
	var s beep.Streamer = b.src.streamer
	// If the file has a different sample rate than that of the initialized
	// output, resample it to make it sound right
	if b.src.format.SampleRate != e.rate {
		s = beep.Resample(ResampleQuality, b.src.format.SampleRate, e.rate, s)
	}

	b.ctrl = &beep.Ctrl{Streamer: s, Paused: paused}
	b.vol = &effects.Volume{Streamer: b.ctrl, Base: 2}
	b.vol.Volume, b.vol.Silent = e.level.Gain()

	id := b.src.id
	e.out.Play(beep.Seq(b.vol, beep.Callback(func() {
		// Runs on the output goroutine with its lock held, never block here.
		select {
		case e.finished <- id:
		default:
		}
	})))
}

func (e *Engine) finish(ctx context.Context, id string) {
	if e.current == nil || e.current.src.id != id {
		return
	}
	e.log.Debug("finished playing source", zap.String("source", id))

	e.out.Lock()
	err := e.current.src.seek(0)
	e.out.Unlock()
	if err != nil {
		e.release()
		e.emit(ctx, ErrorUpdate{Source: id, Err: fmt.Errorf("failed to rewind: %w", err)})
		return
	}

	e.arm(true)
	e.emit(ctx, TrackEnded{Source: id})
}

func (e *Engine) tick(ctx context.Context) {
	if e.current == nil {
		return
	}

	e.out.Lock()
	paused := e.current.ctrl.Paused
	pos := e.current.src.position()
	length := e.current.src.length()
	streamErr := e.current.src.streamer.Err()
	e.out.Unlock()

	if streamErr != nil {
		id := e.current.src.id
		e.release()
		e.emit(ctx, ErrorUpdate{Source: id, Err: fmt.Errorf("playback failed: %w", streamErr)})
		return
	}

	// don't bother sending position updates if paused
	if paused {
		return
	}
	e.emit(ctx, PositionUpdate{
		Source:   e.current.src.id,
		Position: pos,
		Length:   length,
		Seeks:    e.current.seeks,
	})
}

// release unbinds the current source and closes its file.
func (e *Engine) release() {
	if e.current == nil {
		return
	}
	// don't lock the output before clearing, Clear takes the lock itself
	e.out.Clear()

	e.out.Lock()
	err := e.current.src.Close()
	e.out.Unlock()

	id := e.current.src.id
	e.current = nil
	if err != nil {
		e.log.Warn("failed to close source", zap.String("source", id), zap.Error(err))
		return
	}
	e.log.Debug("source released", zap.String("source", id))
}
