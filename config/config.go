// Package config loads the engine settings from TOML or YAML files and turns them into
// engine options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/GhostlyActive/Ghost-Engine-3D/engine"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/camera"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/graphics"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/window"
)

var (
	// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("invalid config")
)

// Config is the complete engine configuration.
type Config struct {
	Window   WindowConfig   `toml:"window" yaml:"window"`
	Graphics GraphicsConfig `toml:"graphics" yaml:"graphics"`
	Assets   AssetsConfig   `toml:"assets" yaml:"assets"`
	Camera   CameraConfig   `toml:"camera" yaml:"camera"`
	Light    LightConfig    `toml:"light" yaml:"light"`
	Debug    DebugConfig    `toml:"debug" yaml:"debug"`
}

// WindowConfig sizes and titles the main window.
type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

// GraphicsConfig selects the device and presentation settings.
type GraphicsConfig struct {
	// Drivers lists driver types in preference order: "hardware", "software", "reference".
	Drivers    []string   `toml:"drivers" yaml:"drivers"`
	MSAA       uint32     `toml:"msaa" yaml:"msaa"`
	VSync      bool       `toml:"vsync" yaml:"vsync"`
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`
	// FrameLimit caps frames per second; 0 is uncapped.
	FrameLimit float64 `toml:"frame_limit" yaml:"frame_limit"`
}

// AssetsConfig points at the shader, mesh and texture files.
type AssetsConfig struct {
	VertexShader string `toml:"vertex_shader" yaml:"vertex_shader"`
	VertexEntry  string `toml:"vertex_entry" yaml:"vertex_entry"`
	PixelShader  string `toml:"pixel_shader" yaml:"pixel_shader"`
	PixelEntry   string `toml:"pixel_entry" yaml:"pixel_entry"`
	Mesh         string `toml:"mesh" yaml:"mesh"`
	// Texture is optional; empty binds a generated checkerboard.
	Texture string `toml:"texture" yaml:"texture"`
}

// CameraConfig holds the projection and the input controller tuning.
type CameraConfig struct {
	FovDegrees    float32    `toml:"fov_degrees" yaml:"fov_degrees"`
	Near          float32    `toml:"near" yaml:"near"`
	Far           float32    `toml:"far" yaml:"far"`
	Acceleration  float32    `toml:"acceleration" yaml:"acceleration"`
	Deceleration  float32    `toml:"deceleration" yaml:"deceleration"`
	MaxSpeed      float32    `toml:"max_speed" yaml:"max_speed"`
	Integration   float32    `toml:"integration" yaml:"integration"`
	StartPosition [3]float32 `toml:"start_position" yaml:"start_position"`
}

// LightConfig drives the rotating directional light and the ambient term.
type LightConfig struct {
	// Rate is the rotation around Y in radians per second.
	Rate         float32    `toml:"rate" yaml:"rate"`
	Ambient      [3]float32 `toml:"ambient" yaml:"ambient"`
	AmbientPower float32    `toml:"ambient_power" yaml:"ambient_power"`
}

// DebugConfig toggles development aids.
type DebugConfig struct {
	Overlay   bool `toml:"overlay" yaml:"overlay"`
	HotReload bool `toml:"hot_reload" yaml:"hot_reload"`
}

// Default returns the configuration the engine runs with when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "Ghost Engine 3D",
			Width:  1024,
			Height: 768,
		},
		Graphics: GraphicsConfig{
			Drivers:    []string{"hardware", "software", "reference"},
			MSAA:       1,
			VSync:      true,
			ClearColor: [4]float32{0.3, 0.4, 0.5, 1},
		},
		Assets: AssetsConfig{
			VertexShader: "assets/shaders/vertex.wgsl",
			VertexEntry:  "vsmain",
			PixelShader:  "assets/shaders/pixel.wgsl",
			PixelEntry:   "psmain",
			Mesh:         "assets/models/cube.obj",
		},
		Camera: CameraConfig{
			FovDegrees:    90,
			Near:          0.1,
			Far:           100,
			Acceleration:  0.01,
			Deceleration:  0.006,
			MaxSpeed:      0.3,
			Integration:   3.141,
			StartPosition: [3]float32{1, 0, -2},
		},
		Light: LightConfig{
			Rate:         0.707,
			Ambient:      [3]float32{0.1, 0.1, 0.1},
			AmbientPower: 1,
		},
		Debug: DebugConfig{
			Overlay: true,
		},
	}
}

// Load reads a TOML (.toml) or YAML (.yaml, .yml) file over the defaults and validates the result.
// Keys missing from the file keep their default values.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the merged configuration
//   - error: I/O, decode or validation error
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
//
// Returns:
//   - error: nil, or ErrInvalid joined with one error per problem
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		fail("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if len(c.Graphics.Drivers) == 0 {
		fail("at least one driver is required")
	}
	for _, name := range c.Graphics.Drivers {
		if _, err := parseDriver(name); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Graphics.MSAA != 1 && c.Graphics.MSAA != 4 {
		fail("msaa must be 1 or 4, got %d", c.Graphics.MSAA)
	}
	if c.Graphics.FrameLimit < 0 {
		fail("frame_limit must not be negative")
	}
	if c.Assets.VertexShader == "" || c.Assets.PixelShader == "" || c.Assets.Mesh == "" {
		fail("vertex_shader, pixel_shader and mesh are required")
	}
	if c.Assets.VertexEntry == "" || c.Assets.PixelEntry == "" {
		fail("shader entry points are required")
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		fail("fov_degrees must be in (0, 180), got %g", c.Camera.FovDegrees)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		fail("clip planes must satisfy 0 < near < far, got %g and %g", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.Acceleration < 0 || c.Camera.Deceleration < 0 || c.Camera.MaxSpeed < 0 {
		fail("camera speeds must not be negative")
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// EngineOptions translates the configuration into engine options.
//
// Returns:
//   - []engine.EngineBuilderOption: options for engine.NewEngine
//   - error: error if a driver name is unknown
func (c Config) EngineOptions() ([]engine.EngineBuilderOption, error) {
	drivers := make([]graphics.DriverType, 0, len(c.Graphics.Drivers))
	for _, name := range c.Graphics.Drivers {
		kind, err := parseDriver(name)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, kind)
	}

	controller := camera.NewCameraController(
		camera.WithAcceleration(c.Camera.Acceleration),
		camera.WithDeceleration(c.Camera.Deceleration),
		camera.WithMaxSpeed(c.Camera.MaxSpeed),
		camera.WithIntegration(c.Camera.Integration),
		camera.WithStartPosition(mgl32.Vec3(c.Camera.StartPosition)),
	)
	cam := camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(c.Camera.FovDegrees)),
		camera.WithClipPlanes(c.Camera.Near, c.Camera.Far),
		camera.WithController(controller),
	)

	cc := c.Graphics.ClearColor
	a := c.Assets
	return []engine.EngineBuilderOption{
		engine.WithWindowOptions(
			window.WithTitle(c.Window.Title),
			window.WithSize(c.Window.Width, c.Window.Height),
		),
		engine.WithDeviceOptions(
			graphics.WithDriverPreferences(drivers...),
			graphics.WithMSAA(c.Graphics.MSAA),
		),
		engine.WithShaders(a.VertexShader, a.VertexEntry, a.PixelShader, a.PixelEntry),
		engine.WithMesh(a.Mesh),
		engine.WithTexture(a.Texture),
		engine.WithClearColor(cc[0], cc[1], cc[2], cc[3]),
		engine.WithVSync(c.Graphics.VSync),
		engine.WithRenderFrameLimit(c.Graphics.FrameLimit),
		engine.WithLight(c.Light.Rate, mgl32.Vec3(c.Light.Ambient), c.Light.AmbientPower),
		engine.WithCamera(cam),
		engine.WithOverlay(c.Debug.Overlay),
		engine.WithHotReload(c.Debug.HotReload),
	}, nil
}

func parseDriver(name string) (graphics.DriverType, error) {
	for _, kind := range []graphics.DriverType{graphics.DriverHardware, graphics.DriverSoftware, graphics.DriverReference} {
		if strings.EqualFold(name, kind.String()) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown driver %q", ErrInvalid, name)
}
