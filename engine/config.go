package engine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/batch"
)

type WindowConfig struct {
	Name   string `toml:"name"`
	X      int32  `toml:"x"`
	Y      int32  `toml:"y"`
	Width  int32  `toml:"width"`
	Height int32  `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

type RenderConfig struct {
	Backend                string     `toml:"backend"`
	ClearColor             [4]float32 `toml:"clear_color"`
	DebugLabels            bool       `toml:"debug_labels"`
	StaticFramebufferCount int        `toml:"static_framebuffer_count"`
}

type BatchConfig struct {
	MaxVertices uint32 `toml:"max_vertices"`
	MaxIndices  uint32 `toml:"max_indices"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type AssetsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type WorkersConfig struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

// Config is the engine configuration file. Fields missing from the file
// keep their default value.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Render  RenderConfig  `toml:"render"`
	Batch   BatchConfig   `toml:"batch"`
	Log     LogConfig     `toml:"log"`
	Assets  AssetsConfig  `toml:"assets"`
	Workers WorkersConfig `toml:"workers"`
}

func DefaultConfig() Config {
	bc := batch.DefaultConfig()
	return Config{
		Window: WindowConfig{
			Name:   "Ember",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: RenderConfig{
			Backend:    renderer.OpenGL.String(),
			ClearColor: [4]float32{0.1, 0.1, 0.1, 1},
		},
		Batch: BatchConfig{
			MaxVertices: bc.MaxVertices,
			MaxIndices:  bc.MaxIndices,
		},
		Log:     LogConfig{Level: "info"},
		Assets:  AssetsConfig{Dir: "assets", Watch: true},
		Workers: WorkersConfig{Count: 2, QueueSize: 64},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. A missing file is
// not an error; the defaults are returned.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("config %s not found, using defaults", path)
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	cfg, err := ParseConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a TOML document. Unknown keys are rejected.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if _, err := renderer.ParseBackendType(c.Render.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.Render.StaticFramebufferCount < 0 {
		errs = append(errs, fmt.Errorf("static_framebuffer_count must not be negative"))
	}
	if c.Batch.MaxVertices < 4 || c.Batch.MaxIndices < 6 {
		errs = append(errs, fmt.Errorf("batch must hold at least one quad, got %d vertices/%d indices",
			c.Batch.MaxVertices, c.Batch.MaxIndices))
	}
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Workers.Count <= 0 {
		errs = append(errs, core.ErrNoWorkers)
	}
	if c.Workers.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("workers queue_size must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) ClearColor() mgl32.Vec4 {
	return mgl32.Vec4(c.Render.ClearColor)
}

func (c Config) BatchConfig() batch.Config {
	return batch.Config{MaxVertices: c.Batch.MaxVertices, MaxIndices: c.Batch.MaxIndices}
}
