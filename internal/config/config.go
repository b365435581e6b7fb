package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	MinCanvasSize = 1
	MaxCanvasSize = 256

	DefaultCanvasSize    = 16
	DefaultFPS           = 8
	DefaultScale         = 4
	DefaultMaxPerRow     = 10
	DefaultJPEGQuality   = 92
	DefaultStaticHistory = 100
	DefaultRailHistory   = 200
	DefaultVideoQuality  = 23
	DefaultProjectsDir   = "projects"
	DefaultExportsDir    = "exports"
	DefaultExportFormat  = "png"
	DefaultOnionFade     = 0.5
)

var ErrInvalidConfig = errors.New("invalid config")

// Config collects every tunable of the CLI. Flags override values read
// from a TOML file.
type Config struct {
	InputPath  string `toml:"input"`
	OutputPath string `toml:"output"`
	ProjectDir string `toml:"projects_dir"`
	ExportDir  string `toml:"exports_dir"`
	Name       string `toml:"name"`

	Width  int `toml:"width"`
	Height int `toml:"height"`

	FPS           int    `toml:"fps"`
	Animation     string `toml:"animation"`
	StaticHistory int    `toml:"static_history"`
	RailHistory   int    `toml:"rail_history"`

	Format      string `toml:"format"`
	Scale       int    `toml:"scale"`
	MaxPerRow   int    `toml:"max_per_row"`
	JPEGQuality int    `toml:"jpeg_quality"`
	Workers     int    `toml:"workers"`

	VideoEncoder string `toml:"video_encoder"`
	VideoQuality int    `toml:"video_quality"`

	Onion Onion `toml:"onion"`

	Watch        bool   `toml:"watch"`
	ShowStats    bool   `toml:"show_stats"`
	Verbose      bool   `toml:"verbose"`
	BuildVersion string `toml:"-"`
}

// Onion mirrors renderer.OnionSkin in file-friendly form.
type Onion struct {
	Enabled bool    `toml:"enabled"`
	Prev    int     `toml:"prev"`
	Next    int     `toml:"next"`
	Fade    float64 `toml:"fade"`
	Mode    string  `toml:"mode"`
}

// Default returns the stock settings.
func Default() Config {
	return Config{
		ProjectDir:    DefaultProjectsDir,
		ExportDir:     DefaultExportsDir,
		Width:         DefaultCanvasSize,
		Height:        DefaultCanvasSize,
		FPS:           DefaultFPS,
		StaticHistory: DefaultStaticHistory,
		RailHistory:   DefaultRailHistory,
		Format:        DefaultExportFormat,
		Scale:         DefaultScale,
		MaxPerRow:     DefaultMaxPerRow,
		JPEGQuality:   DefaultJPEGQuality,
		VideoQuality:  DefaultVideoQuality,
		Onion:         Onion{Fade: DefaultOnionFade, Mode: "alpha"},
	}
}

// Load reads a TOML file over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("%w: %s:%d:%d: %s", ErrInvalidConfig, path, row, col, derr.Error())
		}
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate rejects impossible values and normalises the rest in place.
func (c *Config) Validate() error {
	if c.Width < MinCanvasSize || c.Width > MaxCanvasSize ||
		c.Height < MinCanvasSize || c.Height > MaxCanvasSize {
		return fmt.Errorf("%w: canvas %dx%d outside %d..%d", ErrInvalidConfig,
			c.Width, c.Height, MinCanvasSize, MaxCanvasSize)
	}

	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case "jpg":
		c.Format = "jpeg"
	case "tif":
		c.Format = "tiff"
	case "png", "jpeg", "bmp", "tiff", "gif":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}

	switch strings.ToLower(c.Onion.Mode) {
	case "", "alpha":
		c.Onion.Mode = "alpha"
	case "tint":
		c.Onion.Mode = "tint"
	default:
		return fmt.Errorf("%w: onion mode %q", ErrInvalidConfig, c.Onion.Mode)
	}

	c.FPS = min(max(c.FPS, 1), 120)
	if c.Scale < 1 {
		c.Scale = DefaultScale
	}
	if c.MaxPerRow < 1 {
		c.MaxPerRow = DefaultMaxPerRow
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	if c.StaticHistory < 1 {
		c.StaticHistory = DefaultStaticHistory
	}
	if c.RailHistory < 1 {
		c.RailHistory = DefaultRailHistory
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	c.Onion.Fade = min(max(c.Onion.Fade, 0), 1)
	c.Onion.Prev = max(c.Onion.Prev, 0)
	c.Onion.Next = max(c.Onion.Next, 0)
	return nil
}
