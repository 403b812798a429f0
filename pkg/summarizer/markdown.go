package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as Markdown.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Capture Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## %s\n\n", t("Capture"))
	fmt.Fprintf(&b, "| %s | %s |\n|------|-------|\n", t("Item"), t("Value"))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Capture ID"), s.Capture.ID)
	fmt.Fprintf(&b, "| %s | %s |\n", t("Format"), s.Capture.Format)
	if !s.Capture.StartedAt.IsZero() {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Started"), s.Capture.StartedAt.UTC().Format(time.RFC3339Nano))
	}
	fmt.Fprintf(&b, "| %s | %d ms |\n", t("Duration"), s.Capture.DurationMs)
	if s.Error != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Error"), escapeCell(s.Error))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Viewports"))
	if len(s.Captured) == 0 && len(s.Skipped) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No viewports"))
	} else {
		fmt.Fprintf(&b, "| %s | %s |\n|------|-------|\n", t("Viewport"), t("Status"))
		for _, name := range s.Captured {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(name), t("Captured"))
		}
		for _, sk := range s.Skipped {
			fmt.Fprintf(&b, "| %s | %s (%s) |\n", escapeCell(sk.Name), t("Skipped"), escapeCell(sk.Reason))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Artifacts"))
	if len(s.Artifacts) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No artifacts"))
	} else {
		fmt.Fprintf(&b, "| %s | %s | %s |\n|------|------|------|\n", t("File"), t("Size"), t("Dimensions"))
		for _, a := range s.Artifacts {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", a.Filename, formatBytes(a.Size), f.dimensions(a))
		}
		fmt.Fprintf(&b, "\n%s: %s\n\n", t("Total"), formatBytes(s.TotalBytes()))
	}

	if s.Settings != (Settings{}) {
		fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
		fmt.Fprintf(&b, "| %s | %s |\n|------|-------|\n", t("Item"), t("Value"))
		if s.Settings.Prefix != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", t("Prefix"), s.Settings.Prefix)
		}
		if s.Settings.Quality > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", t("JPEG Quality"), s.Settings.Quality)
		}
		if s.Settings.PageWidth > 0 {
			fmt.Fprintf(&b, "| %s | %gx%g mm (%s %g mm) |\n", t("Page"),
				s.Settings.PageWidth, s.Settings.PageHeight, t("margin"), s.Settings.PageMargin)
		}
		if s.Settings.DownloadDir != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", t("Download Directory"), s.Settings.DownloadDir)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	if f.version != "" {
		fmt.Fprintf(&b, "%s mapshot %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&b, "%s mapshot\n", t("Generated by"))
	}
	return b.String()
}

func (f *MarkdownFormatter) dimensions(a ArtifactInfo) string {
	if a.Pages > 0 {
		return fmt.Sprintf("%d %s", a.Pages, f.translate("pages"))
	}
	if a.Width > 0 && a.Height > 0 {
		return fmt.Sprintf("%dx%d", a.Width, a.Height)
	}
	return "-"
}

var _ Formatter = (*MarkdownFormatter)(nil)

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
