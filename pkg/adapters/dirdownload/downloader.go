// Package dirdownload delivers artifacts into a download directory.
package dirdownload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/mapshot/pkg/ports"
)

// maxDuplicates bounds the " (n)" suffixes tried for a taken filename.
const maxDuplicates = 999

// Downloader implements ports.Downloader by writing files into a directory,
// the way a browser saves to its default download location. An existing file
// is never overwritten: the new one is saved as "name (1).ext", "name (2).ext", ...
type Downloader struct {
	dir    string
	fs     ports.FileSystem
	logger ports.Logger

	mu    sync.Mutex
	saved map[string]string // requested filename -> written path
}

// New creates a new Downloader writing into dir.
func New(dir string, fs ports.FileSystem, logger ports.Logger) *Downloader {
	return &Downloader{
		dir:    dir,
		fs:     fs,
		logger: logger.WithComponent("download"),
		saved:  make(map[string]string),
	}
}

// Dir returns the download directory.
func (d *Downloader) Dir() string {
	return d.dir
}

// Download writes data into the download directory.
// The filename must be a bare name; path separators are rejected.
func (d *Downloader) Download(ctx context.Context, filename string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("invalid download filename %q", filename)
	}

	if err := d.fs.MkdirAll(d.dir); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	path, err := d.freePath(filename)
	if err != nil {
		return err
	}
	if err := d.fs.WriteFile(path, data); err != nil {
		d.logger.Error("Failed to write output: %s", err)
		return fmt.Errorf("write %s: %w", path, err)
	}

	d.mu.Lock()
	d.saved[filename] = path
	d.mu.Unlock()

	d.logger.Info("Saved %s (%d bytes)", path, len(data))
	return nil
}

// Path returns where the artifact requested as filename was written.
func (d *Downloader) Path(filename string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.saved[filename]
	return path, ok
}

// Discard removes a file written by an earlier Download.
func (d *Downloader) Discard(ctx context.Context, filename string) error {
	d.mu.Lock()
	path, ok := d.saved[filename]
	delete(d.saved, filename)
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s was not downloaded", filename)
	}

	if err := d.fs.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	d.logger.Debug("Discarded %s", path)
	return nil
}

// freePath returns the first path for filename that does not exist yet.
func (d *Downloader) freePath(filename string) (string, error) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	candidate := filename
	for n := 1; ; n++ {
		path := filepath.Join(d.dir, candidate)
		exists, err := d.fs.Exists(path)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", path, err)
		}
		if !exists {
			return path, nil
		}
		if n > maxDuplicates {
			return "", fmt.Errorf("too many files named like %s", filename)
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
}

var (
	_ ports.Downloader = (*Downloader)(nil)
	_ ports.Discarder  = (*Downloader)(nil)
)
