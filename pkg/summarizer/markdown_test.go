package summarizer

import (
	"strings"
	"testing"
	"time"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC),
		Capture: CaptureInfo{
			ID:         "0b7e4c7e-1f0a-4e0e-9d53-6c2f1b1d9a10",
			Format:     "image-lossless",
			StartedAt:  time.Date(2026, 10, 15, 8, 30, 0, 123_000_000, time.UTC),
			DurationMs: 240,
		},
		Captured: []string{"left"},
		Skipped:  []SkippedInfo{{Position: 2, Name: "right", Reason: "surface unavailable"}},
		Artifacts: []ArtifactInfo{
			{Filename: "map-capture-2026-10-15T08-30-00-123Z-1.png", Size: 1024 * 1024, Width: 1280, Height: 800},
		},
		Settings: Settings{
			Prefix:      "map-capture",
			Quality:     92,
			PageWidth:   297,
			PageHeight:  210,
			PageMargin:  10,
			DownloadDir: "/tmp/out",
		},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Capture Summary",
		"0b7e4c7e-1f0a-4e0e-9d53-6c2f1b1d9a10",
		"image-lossless",
		"240 ms",
		"| left | Captured |",
		"| right | Skipped (surface unavailable) |",
		"map-capture-2026-10-15T08-30-00-123Z-1.png",
		"1.00 MB",
		"1280x800",
		"297x210 mm",
		"/tmp/out",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q\n%s", check, result)
		}
	}
}

func TestMarkdownFormatter_Format_ListsEveryArtifact(t *testing.T) {
	summary := sampleSummary()
	summary.Artifacts = []ArtifactInfo{
		{Filename: "a-1.jpg", Size: 10, Width: 2, Height: 2},
		{Filename: "a-2.jpg", Size: 20, Width: 3, Height: 3},
		{Filename: "a.pdf", Size: 30, Pages: 2},
	}

	result := NewMarkdownFormatter().Format(summary)

	for _, want := range []string{"a-1.jpg", "a-2.jpg", "a.pdf", "2 pages", "Total: 60 B"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestMarkdownFormatter_Format_Failure(t *testing.T) {
	summary := sampleSummary()
	summary.Artifacts = nil
	summary.Error = "raster stage: encode | failed"

	result := NewMarkdownFormatter().Format(summary)

	if !strings.Contains(result, "No artifacts") {
		t.Error("expected 'No artifacts'")
	}
	if !strings.Contains(result, `encode \| failed`) {
		t.Error("expected pipe in error to be escaped")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Capture Summary": "キャプチャサマリー",
			"Captured":        "キャプチャ済み",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(sampleSummary())

	if !strings.Contains(result, "キャプチャサマリー") {
		t.Error("expected translated 'Capture Summary'")
	}
	if !strings.Contains(result, "キャプチャ済み") {
		t.Error("expected translated 'Captured'")
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(sampleSummary())

	if !strings.Contains(result, "v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatBytes(tt.bytes); got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
