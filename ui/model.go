package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/pes18fan/clickwheel/audio"
	"github.com/pes18fan/clickwheel/library"
	"github.com/pes18fan/clickwheel/transport"
	"github.com/pes18fan/clickwheel/volume"
)

// Player is the audio engine as the UI sees it.
type Player interface {
	transport.Element
	Load(path string) error
	Unload() error
	SetVolume(level volume.Level) error
	Close() error
}

type Options struct {
	Player Player
	Status <-chan audio.Status
	// Optional, keeps the file picker listing fresh.
	Watcher          *library.Watcher
	MusicDir         string
	Volume           volume.Level
	IndicatorTimeout time.Duration
	SeekStep         time.Duration
	// Loaded as soon as the program starts, if set.
	File   string
	Logger *zap.Logger
}

type Model struct {
	player  Player
	status  <-chan audio.Status
	watcher *library.Watcher
	log     *zap.Logger

	keys    keyMap
	help    help.Model
	seekBar progress.Model
	picker  filepicker.Model
	picking bool

	termWidth  int
	termHeight int

	// nil until the engine confirms a source is bound
	transport *transport.Transport
	track     audio.TrackLoaded
	loading   string

	level     volume.Level
	indicator indicator
	seekStep  time.Duration
	err       error
}

// tea message type for engine status updates
type statusMsg struct {
	status audio.Status
}

func listenForStatus(ch <-chan audio.Status) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg{status: s}
	}
}

func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.IndicatorTimeout <= 0 {
		opts.IndicatorTimeout = 5 * time.Second
	}
	if opts.SeekStep <= 0 {
		opts.SeekStep = 5 * time.Second
	}
	if opts.MusicDir == "" {
		opts.MusicDir = "."
	}

	fp := filepicker.New()
	fp.CurrentDirectory = opts.MusicDir
	fp.AllowedTypes = library.Extensions()
	fp.ShowPermissions = false
	fp.SetHeight(pickerRows)

	return Model{
		player:    opts.Player,
		status:    opts.Status,
		watcher:   opts.Watcher,
		log:       opts.Logger.Named("ui"),
		keys:      newKeyMap(),
		help:      help.New(),
		seekBar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(screenWidth)),
		picker:    fp,
		level:     volume.Clamp(float64(opts.Volume)),
		indicator: newIndicator(opts.IndicatorTimeout),
		seekStep:  opts.SeekStep,
		loading:   opts.File,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listenForStatus(m.status), m.picker.Init()}
	if m.watcher != nil {
		if err := m.watcher.Watch(m.picker.CurrentDirectory); err != nil {
			m.log.Warn("failed to watch music directory", zap.Error(err))
		}
		cmds = append(cmds, m.watcher.Next())
	}
	if m.loading != "" {
		path := m.loading
		player := m.player
		cmds = append(cmds, func() tea.Msg {
			if err := player.Load(path); err != nil {
				return statusMsg{status: audio.ErrorUpdate{Path: path, Err: err}}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.handleStatus(msg.status)
		return m, listenForStatus(m.status)
	case hideIndicatorMsg:
		m.indicator.update(msg)
		return m, nil
	case library.ChangedMsg:
		if m.watcher == nil {
			return m, nil
		}
		var cmd tea.Cmd
		if msg.Dir == m.watcher.Dir() {
			m.log.Debug("refreshing picker", zap.String("path", msg.Path))
			cmd = m.picker.Init()
		}
		return m, tea.Batch(cmd, m.watcher.Next())
	case library.ErrorMsg:
		m.log.Warn("library watcher failed", zap.Error(msg.Err))
		if m.watcher == nil {
			return m, nil
		}
		return m, m.watcher.Next()
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.MouseMsg:
		if !m.picking {
			m.handleMouse(msg)
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && (msg.String() == "ctrl+c" || !m.picking) {
			return m.quit()
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)
	}

	// Anything else (directory listings mostly) belongs to the picker.
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) handleStatus(s audio.Status) {
	switch s := s.(type) {
	case audio.TrackLoaded:
		// Only the most recent load counts. An earlier one that the engine
		// got to first has already been replaced by now.
		if m.loading != "" && s.Path != m.loading {
			m.log.Debug("dropping superseded track", zap.String("source", s.Source), zap.String("path", s.Path))
			return
		}
		m.transport = transport.New(m.player, s.Length)
		m.track = s
		m.loading = ""
		m.err = nil
		m.keys.setLoaded(true)
		m.log.Info("track loaded", zap.String("source", s.Source), zap.String("name", s.Name))
	case audio.PositionUpdate:
		// Updates from a source that has since been replaced are dropped.
		if m.transport != nil && s.Source == m.track.Source {
			m.transport.Report(s.Position, s.Seeks)
		}
	case audio.TrackEnded:
		if m.transport != nil && s.Source == m.track.Source {
			m.transport.Ended()
			m.log.Debug("track ended", zap.String("source", s.Source))
		}
	case audio.ErrorUpdate:
		switch {
		case s.Path != "" && s.Path != m.loading:
			m.log.Debug("dropping error for superseded load", zap.String("path", s.Path), zap.Error(s.Err))
			return
		case s.Path != "":
			m.log.Warn("failed to load", zap.String("path", s.Path), zap.Error(s.Err))
			m.loading = ""
		case s.Source != "" && s.Source == m.track.Source:
			m.log.Warn("lost source", zap.String("source", s.Source), zap.Error(s.Err))
			m.unbind()
		default:
			m.log.Warn("engine error", zap.Error(s.Err))
		}
		m.err = s.Err
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.PlayPause):
		state, err := m.transport.Toggle()
		m.setErr(err)
		m.log.Debug("transport toggled", zap.Stringer("state", state))
	case key.Matches(msg, m.keys.Stop):
		m.setErr(m.transport.Stop())
	case key.Matches(msg, m.keys.SeekBack):
		m.setErr(m.transport.SeekBy(-m.seekStep))
	case key.Matches(msg, m.keys.SeekForward):
		m.setErr(m.transport.SeekBy(m.seekStep))
	case key.Matches(msg, m.keys.SeekTo):
		tenths := float64(msg.Runes[0] - '0')
		m.setErr(m.transport.SeekFraction(tenths / 10))
	case key.Matches(msg, m.keys.Eject):
		m.eject()
	case key.Matches(msg, m.keys.VolumeUp):
		cmd = m.changeVolume(m.level.Up())
	case key.Matches(msg, m.keys.VolumeDown):
		cmd = m.changeVolume(m.level.Down())
	case key.Matches(msg, m.keys.Screen):
		cmd = m.indicator.toggle()
	case key.Matches(msg, m.keys.Menu):
		m.picking = true
		cmd = m.picker.Init()
	}
	return m, cmd
}

func (m *Model) changeVolume(level volume.Level) tea.Cmd {
	m.level = level
	m.setErr(m.player.SetVolume(level))
	m.log.Debug("volume changed", zap.Int("percent", level.Percent()))
	return m.indicator.show()
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.picking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.load(path)
		return m, cmd
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.err = &unsupportedFileError{path: path}
		return m, cmd
	}

	if m.watcher != nil {
		if err := m.watcher.Watch(m.picker.CurrentDirectory); err != nil {
			m.log.Warn("failed to watch directory", zap.Error(err))
		}
	}
	return m, cmd
}

// load asks the engine for a new source. The old transport is dropped right
// away since the engine releases the old source before opening the new one.
func (m *Model) load(path string) {
	m.picking = false
	if err := m.player.Load(path); err != nil {
		m.err = err
		return
	}
	m.unbind()
	m.loading = path
	m.err = nil
	m.log.Info("loading", zap.String("path", path))
}

// eject unbinds the current source and goes back to the empty screen.
func (m *Model) eject() {
	if err := m.player.Unload(); err != nil {
		m.setErr(err)
		return
	}
	m.log.Info("ejected", zap.String("source", m.track.Source))
	m.unbind()
}

// unbind forgets the current track. The transport keys go dark with it.
func (m *Model) unbind() {
	m.transport = nil
	m.track = audio.TrackLoaded{}
	m.keys.setLoaded(false)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.transport == nil || msg.Button != tea.MouseButtonLeft {
		return
	}
	if msg.Action != tea.MouseActionPress && msg.Action != tea.MouseActionMotion {
		return
	}
	if f, ok := seekBarFraction(msg.X, msg.Y); ok {
		m.setErr(m.transport.SeekFraction(f))
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.indicator.stop()
	if err := m.player.Close(); err != nil {
		m.log.Warn("failed to close player", zap.Error(err))
	}
	return m, tea.Quit
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.log.Warn("command failed", zap.Error(err))
		m.err = err
	}
}

type unsupportedFileError struct {
	path string
}

func (e *unsupportedFileError) Error() string {
	return "can't play " + e.path
}
