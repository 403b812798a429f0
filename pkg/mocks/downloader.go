package mocks

import (
	"context"
	"sync"

	"github.com/user/mapshot/pkg/ports"
)

// Downloader is a mock implementation of ports.Downloader.
type Downloader struct {
	mu sync.Mutex

	DownloadFunc func(ctx context.Context, filename string, data []byte) error
	DiscardFunc  func(ctx context.Context, filename string) error

	Downloads []Download
	Discarded []string
}

// Download records a call to Download.
type Download struct {
	Filename string
	Data     []byte
}

func (m *Downloader) Download(ctx context.Context, filename string, data []byte) error {
	if m.DownloadFunc != nil {
		if err := m.DownloadFunc(ctx, filename, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Downloads = append(m.Downloads, Download{Filename: filename, Data: data})
	return nil
}

// Count returns the number of recorded downloads.
func (m *Downloader) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Downloads)
}

// Discard records a call to Discard and drops the matching download.
func (m *Downloader) Discard(ctx context.Context, filename string) error {
	if m.DiscardFunc != nil {
		if err := m.DiscardFunc(ctx, filename); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Discarded = append(m.Discarded, filename)
	for i, d := range m.Downloads {
		if d.Filename == filename {
			m.Downloads = append(m.Downloads[:i], m.Downloads[i+1:]...)
			break
		}
	}
	return nil
}

var (
	_ ports.Downloader = (*Downloader)(nil)
	_ ports.Discarder  = (*Downloader)(nil)
)
