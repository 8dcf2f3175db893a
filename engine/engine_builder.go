package engine

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/GhostlyActive/Ghost-Engine-3D/engine/camera"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/graphics"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions configures the window the engine creates during Init.
// Ignored when WithWindow supplies a window.
//
// Parameters:
//   - options: window options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithDeviceOptions passes options through to graphics.NewDevice.
//
// Parameters:
//   - options: device options such as driver preferences or MSAA
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDeviceOptions(options ...graphics.DeviceBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.deviceOptions = append(e.deviceOptions, options...)
	}
}

// WithShaders sets the WGSL files and entry points of the vertex and pixel programs.
//
// Parameters:
//   - vsPath, vsEntry: the vertex program file and entry point
//   - psPath, psEntry: the pixel program file and entry point
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaders(vsPath, vsEntry, psPath, psEntry string) EngineBuilderOption {
	return func(e *engine) {
		e.vsPath, e.vsEntry = vsPath, vsEntry
		e.psPath, e.psEntry = psPath, psEntry
	}
}

// WithMesh sets the OBJ file drawn each frame.
//
// Parameters:
//   - path: the OBJ file
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMesh(path string) EngineBuilderOption {
	return func(e *engine) {
		e.meshPath = path
	}
}

// WithTexture sets the image bound to the pixel stage. An empty path binds a generated checkerboard.
//
// Parameters:
//   - path: the image file
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTexture(path string) EngineBuilderOption {
	return func(e *engine) {
		e.texturePath = path
	}
}

// WithClearColor sets the back buffer clear color.
//
// Parameters:
//   - r, g, b, a: the clear color
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClearColor(r, g, b, a float32) EngineBuilderOption {
	return func(e *engine) {
		e.clearColor = [4]float32{r, g, b, a}
	}
}

// WithVSync sets whether Present waits for vertical blank. Defaults to true.
//
// Parameters:
//   - on: true for vsync
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithVSync(on bool) EngineBuilderOption {
	return func(e *engine) {
		e.vsync = on
	}
}

// WithLight configures the rotating directional light and the ambient term.
//
// Parameters:
//   - rate: rotation around the Y axis in radians per second
//   - ambient: the ambient color
//   - power: the ambient intensity
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLight(rate float32, ambient mgl32.Vec3, power float32) EngineBuilderOption {
	return func(e *engine) {
		e.lightRate = rate
		e.ambientColor = ambient
		e.ambientPower = power
	}
}

// WithCamera replaces the default camera.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithOverlay enables or disables the debug overlay. Enabled by default.
//
// Parameters:
//   - enabled: if true, frame stats and the camera position are shown in the title bar
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithOverlay(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.overlayEnabled = enabled
	}
}

// WithHotReload enables recompiling the shaders when their files change on disk.
//
// Parameters:
//   - enabled: if true, the shader directories are watched
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHotReload(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.reload = enabled
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// withDeviceFactory replaces graphics.NewDevice. Used by tests.
func withDeviceFactory(factory func(options ...graphics.DeviceBuilderOption) (graphics.Device, error)) EngineBuilderOption {
	return func(e *engine) {
		e.newDevice = factory
	}
}

// withClock replaces the time source. Used by tests.
func withClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		e.now = now
	}
}
