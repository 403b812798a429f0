package dirdownload

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/mapshot/pkg/adapters/logger"
	"github.com/user/mapshot/pkg/mocks"
)

func TestDownloader_Download(t *testing.T) {
	fs := mocks.NewFileSystem()
	d := New("downloads", fs, logger.NewNoop())

	if err := d.Download(context.Background(), "map-capture-1.png", []byte("png")); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	data, ok := fs.GetFile(filepath.Join("downloads", "map-capture-1.png"))
	if !ok {
		t.Fatal("expected file in download directory")
	}
	if string(data) != "png" {
		t.Errorf("expected %q, got %q", "png", data)
	}
	if exists, _ := fs.Exists("downloads"); !exists {
		t.Error("expected download directory to be created")
	}
}

func TestDownloader_RejectsPaths(t *testing.T) {
	d := New("downloads", mocks.NewFileSystem(), logger.NewNoop())

	for _, name := range []string{"", "../escape.png", "nested/file.png", `win\file.png`} {
		if err := d.Download(context.Background(), name, []byte("x")); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestDownloader_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("disk full")
	}
	d := New("downloads", fs, logger.NewNoop())

	if err := d.Download(context.Background(), "a.pdf", []byte("x")); err == nil {
		t.Error("expected error")
	}
}

func TestDownloader_ContextCancelled(t *testing.T) {
	fs := mocks.NewFileSystem()
	d := New("downloads", fs, logger.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Download(ctx, "a.pdf", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("expected nothing written")
	}
}

func TestDownloader_KeepsExistingFiles(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile(filepath.Join("downloads", "map.png"), []byte("old"))
	fs.WriteFile(filepath.Join("downloads", "map (1).png"), []byte("older"))
	d := New("downloads", fs, logger.NewNoop())

	if err := d.Download(context.Background(), "map.png", []byte("new")); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	want := filepath.Join("downloads", "map (2).png")
	if path, _ := d.Path("map.png"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}
	if data, _ := fs.GetFile(want); string(data) != "new" {
		t.Errorf("expected new data in %s, got %q", want, data)
	}
	if data, _ := fs.GetFile(filepath.Join("downloads", "map.png")); string(data) != "old" {
		t.Errorf("existing file was overwritten: %q", data)
	}
}

func TestDownloader_Discard(t *testing.T) {
	fs := mocks.NewFileSystem()
	d := New("downloads", fs, logger.NewNoop())
	ctx := context.Background()

	if err := d.Download(ctx, "a.png", []byte("x")); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if err := d.Discard(ctx, "a.png"); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if removed := fs.Removed(); len(removed) != 1 || removed[0] != filepath.Join("downloads", "a.png") {
		t.Errorf("expected downloads/a.png to be removed, got %v", removed)
	}
	if err := d.Discard(ctx, "a.png"); err == nil {
		t.Error("expected error discarding twice")
	}
}
