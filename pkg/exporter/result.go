package exporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/mapshot/pkg/pipeline"
)

// Result describes a finished capture.
type Result struct {
	ID        string                     `json:"id"`
	Format    pipeline.Format            `json:"format"`
	StartedAt time.Time                  `json:"startedAt"`
	Duration  time.Duration              `json:"durationNs"`
	Captured  []string                   `json:"captured"`
	Skipped   []pipeline.SkippedViewport `json:"skipped,omitempty"`
	Artifacts []Artifact                 `json:"artifacts"`
	Error     string                     `json:"error,omitempty"`
}

// Artifact describes a downloaded file.
type Artifact struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Pages    int    `json:"pages,omitempty"`
}

// Filenames returns the downloaded filenames in order.
func (r Result) Filenames() []string {
	names := make([]string, len(r.Artifacts))
	for i, a := range r.Artifacts {
		names[i] = a.Filename
	}
	return names
}

// TotalBytes returns the combined size of all artifacts.
func (r Result) TotalBytes() int64 {
	var total int64
	for _, a := range r.Artifacts {
		total += a.Size
	}
	return total
}

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// Timestamp formats t as an ISO 8601 UTC timestamp with millisecond precision,
// with ':' and '.' replaced by '-' so it is safe in filenames.
func Timestamp(t time.Time) string {
	return stampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// Filename returns the download name of an artifact. Image formats carry the
// 1-based surface index; documents do not.
func Filename(prefix string, t time.Time, format pipeline.Format, index int) string {
	if format.IsImage() {
		return fmt.Sprintf("%s-%s-%d.%s", prefix, Timestamp(t), index, format.Extension())
	}
	return fmt.Sprintf("%s-%s.%s", prefix, Timestamp(t), format.Extension())
}
