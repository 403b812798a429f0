// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/mapshot/pkg/ports"
)

// Sink saves debug output to files under a base directory.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new file sink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSnapshot saves a raw viewport snapshot as
// snapshots/snapshot-<index>-<name>.<ext>.
func (s *Sink) SaveSnapshot(index int, name string, data []byte) error {
	dir := filepath.Join(s.baseDir, "snapshots")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	file := fmt.Sprintf("snapshot-%02d-%s.%s", index, sanitize(name), sniffExtension(data))
	return s.fs.WriteFile(filepath.Join(dir, file), data)
}

// SaveCaptureJSON saves the capture metadata as JSON.
func (s *Sink) SaveCaptureJSON(data []byte) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "capture.json"), data)
}

var _ ports.DebugSink = (*Sink)(nil)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sniffExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return "png"
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return "jpg"
	default:
		return "bin"
	}
}

func sanitize(name string) string {
	if name == "" {
		return "viewport"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
