// Package decode loads camera files into linear-light frames.
//
// Decoders are keyed by file extension in a registry, so raw-converter
// formats can be added without touching the loading path. The built-in
// decoder covers demosaiced DNG/TIFF output. Decoded frames are linear RGBA
// float32, the working space of the grading pipeline.
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gogpu/grade"
)

// ErrUnsupportedFormat is returned when no decoder is registered for a
// file's extension.
var ErrUnsupportedFormat = errors.New("decode: unsupported image format")

// Decoder turns a file stream into a linear image. targetWidth <= 0 asks
// for full resolution; a positive value lets the decoder decimate to
// roughly that many pixels across during conversion.
type Decoder func(r io.Reader, targetWidth int) (*grade.Image, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Decoder)
)

// Register makes a decoder available for the given extension (without the
// dot, case-insensitive). Later registrations replace earlier ones.
func Register(ext string, d Decoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(ext)] = d
}

// RawExtensions returns the raw-origin extensions a file picker should
// offer. Only extensions with a registered decoder actually load; the rest
// answer ErrUnsupportedFormat until one is registered.
func RawExtensions() []string {
	return []string{"arw", "cr2", "nef", "dng", "raf", "orf"}
}

type options struct {
	targetWidth int
}

// Option configures a Decode call.
type Option func(*options)

// WithTargetWidth asks the decoder to decimate the frame to approximately
// width pixels across. Zero or negative keeps full resolution. Preview
// loads use a small width; exports decode at full resolution.
func WithTargetWidth(width int) Option {
	return func(o *options) {
		o.targetWidth = width
	}
}

// Decode loads the image at path with the decoder registered for its
// extension. Failures are returned to the caller as-is (wrapped with file
// context); there is no retry, and the caller decides what to do with the
// frame it already has.
func Decode(path string, opts ...Option) (*grade.Image, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	registryMu.RLock()
	dec, ok := registry[ext]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("decode: open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	im, err := dec(f, o.targetWidth)
	if err != nil {
		return nil, fmt.Errorf("decode: %s: %w", filepath.Base(path), err)
	}
	return im, nil
}
