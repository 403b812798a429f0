// Package config provides configuration loading and management.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/mapshot/pkg/exporter"
	"github.com/user/mapshot/pkg/pipeline"
	"github.com/user/mapshot/pkg/ports"
)

// Viewport kinds.
const (
	KindBrowser = "browser"
	KindStatic  = "static"
	KindFile    = "file"
)

// Config represents the full configuration for mapshot.
type Config struct {
	// Output
	Prefix      string `yaml:"prefix"`
	Format      string `yaml:"format"`
	DownloadDir string `yaml:"download_dir"`
	Report      string `yaml:"report"`

	// Encoding
	Quality    int    `yaml:"quality"`
	Background string `yaml:"background"`

	// Document
	Page                PageConfig `yaml:"page"`
	DocumentImageFormat string     `yaml:"document_image_format"`
	MaxImagePixels      int        `yaml:"max_image_pixels"`

	// Capture
	SettleDelayMs int `yaml:"settle_delay_ms"`

	// Notifications
	WarnOnSkipped bool `yaml:"warn_on_skipped"`
	DesktopNotify bool `yaml:"desktop_notify"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Viewports
	Browser   BrowserConfig    `yaml:"browser"`
	Viewports []ViewportConfig `yaml:"viewports"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// PageConfig describes the document page.
type PageConfig struct {
	Size        string  `yaml:"size"`        // a3, a4, a5, letter, legal or custom
	Orientation string  `yaml:"orientation"` // landscape or portrait
	WidthMm     float64 `yaml:"width_mm"`    // custom size only
	HeightMm    float64 `yaml:"height_mm"`   // custom size only
	MarginMm    float64 `yaml:"margin_mm"`
}

// BrowserConfig represents browser launch options.
type BrowserConfig struct {
	Headless          bool              `yaml:"headless"`
	ChromePath        string            `yaml:"chrome_path"`
	UserAgent         string            `yaml:"user_agent"`
	Incognito         bool              `yaml:"incognito"`
	IgnoreHTTPSErrors bool              `yaml:"ignore_https_errors"`
	ProxyServer       string            `yaml:"proxy_server"`
	Headers           map[string]string `yaml:"headers"`
}

// ViewportConfig describes one viewport. Which fields apply depends on Kind.
type ViewportConfig struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`

	// browser
	URL       string `yaml:"url"`
	Selector  string `yaml:"selector"`
	MapGlobal string `yaml:"map_global"`

	// browser and static
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// static
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Zoom     int     `yaml:"zoom"`
	Provider string  `yaml:"provider"`

	// file
	Path string `yaml:"path"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Prefix:      "map-capture",
		Format:      string(pipeline.FormatLossless),
		DownloadDir: ".",

		Quality:    92,
		Background: "#ffffff",

		Page: PageConfig{
			Size:        "a4",
			Orientation: "landscape",
			MarginMm:    10,
		},
		DocumentImageFormat: "png",

		SettleDelayMs: 150,

		LogLevel: "info",

		Browser: BrowserConfig{
			Headless: true,
		},

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// paperSizes are portrait dimensions in mm.
var paperSizes = map[string][2]float64{
	"a3":     {297, 420},
	"a4":     {210, 297},
	"a5":     {148, 210},
	"letter": {215.9, 279.4},
	"legal":  {215.9, 355.6},
}

// PageGeometry resolves the page size name and orientation into millimetres.
func (p PageConfig) PageGeometry() (ports.PageGeometry, error) {
	var w, h float64
	size := strings.ToLower(p.Size)
	switch size {
	case "", "custom":
		if size == "" && p.WidthMm == 0 && p.HeightMm == 0 {
			return pipeline.DefaultPageGeometry(), nil
		}
		w, h = p.WidthMm, p.HeightMm
	default:
		dims, ok := paperSizes[size]
		if !ok {
			return ports.PageGeometry{}, fmt.Errorf("unknown page size %q", p.Size)
		}
		w, h = dims[0], dims[1]
		switch strings.ToLower(p.Orientation) {
		case "", "landscape":
			w, h = h, w
		case "portrait":
		default:
			return ports.PageGeometry{}, fmt.Errorf("unknown page orientation %q", p.Orientation)
		}
	}

	page := ports.PageGeometry{Width: w, Height: h, Margin: p.MarginMm}
	box := page.ContentBox()
	if w <= 0 || h <= 0 || p.MarginMm < 0 || box.Width <= 0 || box.Height <= 0 {
		return ports.PageGeometry{}, fmt.Errorf("invalid page geometry %gx%g mm with %g mm margin", w, h, p.MarginMm)
	}
	return page, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	if _, err := pipeline.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality))
	}
	if _, err := ParseColor(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	if _, err := c.Page.PageGeometry(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseImageFormat(c.DocumentImageFormat); err != nil {
		errs = append(errs, err)
	}
	if c.MaxImagePixels < 0 {
		errs = append(errs, fmt.Errorf("max_image_pixels must not be negative"))
	}
	if c.SettleDelayMs < 0 {
		errs = append(errs, fmt.Errorf("settle_delay_ms must not be negative"))
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if strings.ContainsAny(c.Prefix, `/\`) {
		errs = append(errs, fmt.Errorf("prefix must not contain path separators"))
	}
	for i, vp := range c.Viewports {
		if err := vp.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("viewports[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// Validate checks the fields required by the viewport kind.
func (v ViewportConfig) Validate() error {
	switch v.Kind {
	case KindBrowser:
		if v.URL == "" {
			return fmt.Errorf("browser viewport requires url")
		}
	case KindStatic:
		if v.Lat < -90 || v.Lat > 90 || v.Lon < -180 || v.Lon > 180 {
			return fmt.Errorf("static viewport coordinates out of range: %g,%g", v.Lat, v.Lon)
		}
		if v.Zoom < 0 || v.Zoom > 20 {
			return fmt.Errorf("static viewport zoom out of range: %d", v.Zoom)
		}
	case KindFile:
		if v.Path == "" {
			return fmt.Errorf("file viewport requires path")
		}
	default:
		return fmt.Errorf("unknown viewport kind %q (must be browser, static or file)", v.Kind)
	}
	if v.Width < 0 || v.Height < 0 {
		return fmt.Errorf("viewport size must not be negative")
	}
	return nil
}

// ExporterConfig converts Config to exporter.Config.
func (c Config) ExporterConfig() (exporter.Config, error) {
	if err := c.Validate(); err != nil {
		return exporter.Config{}, err
	}
	bg, _ := ParseColor(c.Background)
	page, _ := c.Page.PageGeometry()
	docFormat, _ := parseImageFormat(c.DocumentImageFormat)

	return exporter.Config{
		Prefix:              c.Prefix,
		Quality:             c.Quality,
		Background:          bg,
		SettleDelay:         time.Duration(c.SettleDelayMs) * time.Millisecond,
		Page:                page,
		DocumentImageFormat: docFormat,
		MaxImagePixels:      c.MaxImagePixels,
		WarnOnSkipped:       c.WarnOnSkipped,
	}, nil
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" into a color.
func ParseColor(s string) (color.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 && len(h) != 8 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	c := color.NRGBA{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}

func parseImageFormat(s string) (ports.ImageFormat, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return ports.FormatPNG, nil
	case "jpg", "jpeg":
		return ports.FormatJPEG, nil
	default:
		return ports.FormatPNG, fmt.Errorf("unknown document image format %q (must be png or jpeg)", s)
	}
}
