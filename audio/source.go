package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"go.uber.org/zap"

	"github.com/pes18fan/clickwheel/artwork"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
		return mp3.Decode(f)
	},
	".flac": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(f)
	},
	".ogg": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
		return vorbis.Decode(f)
	},
	".wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(f)
	},
}

// Extensions lists the file extensions the engine can decode.
func Extensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Supported reports whether path has an extension the engine can decode.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// A source is one opened and decoded audio file. It owns the file handle,
// and closing the source is the only way that handle gets released.
type source struct {
	id       string
	path     string
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	info     TrackInfo
	closed   bool
}

type sourceOptions struct {
	art  bool
	cell artwork.Cell
}

func openSource(path string, opts sourceOptions, log *zap.Logger) (*source, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info := readInfo(f, opts, log.With(zap.String("path", path)))

	// Seek the file back to the start before creating the streamer
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek back to start of file: %w", err)
	}

	streamer, format, err := decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode audio file: %w", err)
	}

	return &source{
		id:       "source:" + uuid.NewString(),
		path:     path,
		file:     f,
		streamer: streamer,
		format:   format,
		info:     info,
	}, nil
}

// Missing or broken tags are not fatal, the player falls back to the file name.
func readInfo(f *os.File, opts sourceOptions, log *zap.Logger) TrackInfo {
	var info TrackInfo

	m, err := tag.ReadFrom(f)
	if err != nil {
		log.Debug("failed to read tags", zap.Error(err))
		return info
	}
	info.Artist = m.Artist()
	info.Title = m.Title()
	info.Album = m.Album()

	if !opts.art {
		return info
	}
	pic := m.Picture()
	if pic == nil {
		log.Debug("no artwork found")
		return info
	}
	info.Art, err = artwork.Decode(pic.Data, opts.cell)
	if err != nil {
		log.Warn("failed to read artwork", zap.Error(err))
	}
	return info
}

func (s *source) name() string {
	return filepath.Base(s.path)
}

func (s *source) length() time.Duration {
	return s.format.SampleRate.D(s.streamer.Len())
}

func (s *source) position() time.Duration {
	return s.format.SampleRate.D(s.streamer.Position())
}

func (s *source) seek(d time.Duration) error {
	n := min(max(s.format.SampleRate.N(d), 0), s.streamer.Len())
	return s.streamer.Seek(n)
}

func (s *source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.streamer.Close()
	// Not every decoder closes what it was handed.
	if ferr := s.file.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) && err == nil {
		err = ferr
	}
	return err
}
