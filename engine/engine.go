// Package engine drives one window, one device and one textured mesh through the
// Init, FrameUpdate, Resize and Shutdown stages.
package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/camera"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/graphics"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/mesh"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/profiler"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/window"
)

var (
	// ErrNotReady is returned by FrameUpdate while a shader, the mesh, the texture or the
	// constant buffer is missing. Nothing is drawn in that state.
	ErrNotReady = errors.New("engine resources are not ready")
	// ErrAlreadyInitialized is returned when Init runs twice without a Shutdown in between.
	ErrAlreadyInitialized = errors.New("engine is already initialized")
	// ErrNotInitialized is returned by stages that need a device before Init succeeded.
	ErrNotInitialized = errors.New("engine is not initialized")
)

// engine implements the Engine interface.
// Owns the device and every resource the frame binds; all methods run on the window goroutine.
type engine struct {
	window        window.Window
	windowOptions []window.WindowBuilderOption

	newDevice     func(options ...graphics.DeviceBuilderOption) (graphics.Device, error)
	deviceOptions []graphics.DeviceBuilderOption

	device    graphics.Device
	ctx       graphics.DeviceContext
	swapChain graphics.SwapChain

	vsPath, vsEntry string
	psPath, psEntry string
	meshPath        string
	texturePath     string

	vsBlob   *shader.Blob
	vs       graphics.VertexShader
	ps       graphics.PixelShader
	cb       graphics.ConstantBuffer
	mesh     mesh.Mesh
	texture  graphics.TextureShader
	ready    bool
	reloader *shaderReloader
	reload   bool

	constants Constants
	payload   []byte

	camera         camera.Camera
	overlay        profiler.Overlay
	overlayEnabled bool

	clearColor [4]float32
	vsync      bool

	lightRate    float32
	lightAngle   float32
	ambientColor mgl32.Vec3
	ambientPower float32

	now       func() time.Time
	startTime time.Time
	lastFrame time.Time
	deltaTime float32

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	fullscreenKeyHeld bool
}

// Engine is the main entry point for the engine.
// It orchestrates device setup, the per-frame update and teardown around a single window.
type Engine interface {
	// Init creates the window (unless one was supplied), the device, the swap chain and every
	// frame resource. Device and swap chain failures abort Init. Shader, mesh, texture and
	// constant buffer failures leave the engine alive but not ready.
	//
	// Returns:
	//   - error: nil on success, an error wrapping ErrNotReady when resources failed to load,
	//     or a fatal error when no device or swap chain could be created
	Init() error

	// FrameUpdate renders one frame: clear, viewport, camera update, constant upload,
	// resource binds, draw, overlay and present.
	//
	// Returns:
	//   - error: ErrNotReady if a resource is missing, otherwise the first failing GPU call
	FrameUpdate() error

	// Resize recreates the swap chain buffers and updates the projection aspect.
	// A zero dimension (minimized window) is ignored.
	//
	// Parameters:
	//   - width: the new client width in pixels
	//   - height: the new client height in pixels
	//
	// Returns:
	//   - error: the swap chain's resize error
	Resize(width, height int) error

	// Shutdown releases every resource in reverse dependency order and closes the device.
	// Safe to call more than once.
	//
	// Returns:
	//   - error: the device close error
	Shutdown() error

	// Run initializes the engine if needed, drives FrameUpdate from the window message loop
	// until the window closes, then shuts down and closes the window.
	//
	// Returns:
	//   - error: a fatal Init error or the teardown errors
	Run() error

	// Quit asks the message loop to stop after the current frame.
	Quit()

	// Window returns the underlying window, or nil before Init when none was supplied.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Camera returns the camera whose matrices feed the constant buffer.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Overlay returns the debug overlay, or nil when the overlay is disabled.
	//
	// Returns:
	//   - profiler.Overlay: the overlay
	Overlay() profiler.Overlay

	// DeltaTime returns the duration of the previous frame in seconds. Zero before the second frame.
	//
	// Returns:
	//   - float32: the frame delta in seconds
	DeltaTime() float32

	// Ready reports whether every frame resource is loaded.
	//
	// Returns:
	//   - bool: true when FrameUpdate can draw
	Ready() bool

	// SetVSync selects vertical sync. The setting is read by the next Present.
	//
	// Parameters:
	//   - on: true to wait for vertical blank
	SetVSync(on bool)

	// SetClearColor sets the color the back buffer is cleared to each frame.
	//
	// Parameters:
	//   - r, g, b, a: the clear color
	SetClearColor(r, g, b, a float32)

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// No GPU work happens until Init.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		newDevice:      graphics.NewDevice,
		vsPath:         "assets/shaders/vertex.wgsl",
		vsEntry:        "vsmain",
		psPath:         "assets/shaders/pixel.wgsl",
		psEntry:        "psmain",
		meshPath:       "assets/models/cube.obj",
		overlayEnabled: true,
		clearColor:     [4]float32{0.3, 0.4, 0.5, 1},
		vsync:          true,
		lightRate:      0.707,
		ambientColor:   mgl32.Vec3{0.1, 0.1, 0.1},
		ambientPower:   1,
		now:            time.Now,
		payload:        make([]byte, ConstantsSize),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.camera == nil {
		e.camera = camera.NewCamera()
	}
	if e.window != nil {
		e.bindWindow()
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Overlay() profiler.Overlay {
	return e.overlay
}

func (e *engine) DeltaTime() float32 {
	return e.deltaTime
}

func (e *engine) Ready() bool {
	return e.ready
}

func (e *engine) SetVSync(on bool) {
	e.vsync = on
}

func (e *engine) SetClearColor(r, g, b, a float32) {
	e.clearColor = [4]float32{r, g, b, a}
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

// bindWindow routes the window's input and resize events into the engine and builds the overlay.
func (e *engine) bindWindow() {
	w := e.window
	controller := e.camera.Controller()

	w.SetKeyDownCallback(func(keyCode int) {
		switch keyCode {
		case common.KeyF, common.KeyF11:
			if !e.fullscreenKeyHeld {
				e.toggleFullscreen()
			}
			e.fullscreenKeyHeld = true
		case common.KeyR:
			controller.Reset()
		}
		controller.KeyDown(keyCode)
	})
	w.SetKeyUpCallback(func(keyCode int) {
		if keyCode == common.KeyF || keyCode == common.KeyF11 {
			e.fullscreenKeyHeld = false
		}
		controller.KeyUp(keyCode)
	})
	w.SetMouseDownCallback(controller.MouseDown)
	w.SetMouseUpCallback(controller.MouseUp)
	w.SetMouseMoveCallback(controller.MouseMove)
	w.SetMouseLeaveCallback(controller.MouseLeave)
	w.SetResizeCallback(func(width, height int) {
		if err := e.Resize(width, height); err != nil {
			common.Logger().Warn("resize failed", "width", width, "height", height, "err", err)
		}
	})

	if e.overlayEnabled && e.overlay == nil {
		e.overlay = profiler.NewOverlay(
			profiler.WithTitle("Ghost Engine 3D"),
			profiler.WithPoseSource(controller),
			profiler.WithTextSink(w),
		)
	}
}

// toggleFullscreen flips fullscreen through the swap chain so the back buffer follows the new size.
func (e *engine) toggleFullscreen() {
	var err error
	if e.swapChain != nil {
		err = e.swapChain.SetFullscreen(!e.swapChain.IsFullscreen())
	} else {
		err = e.window.SetFullscreen(!e.window.IsFullscreen())
	}
	if err != nil {
		common.Logger().Warn("fullscreen toggle failed", "err", err)
	}
}

func (e *engine) Init() error {
	if e.device != nil {
		return ErrAlreadyInitialized
	}

	if e.window == nil {
		w, err := window.NewWindow(e.windowOptions...)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		e.window = w
		e.bindWindow()
	}

	dev, err := e.newDevice(e.deviceOptions...)
	if err != nil {
		return fmt.Errorf("failed to create graphics device: %w", err)
	}

	sc, err := dev.CreateSwapChain(e.window)
	if err != nil {
		dev.Close()
		return fmt.Errorf("failed to create swap chain: %w", err)
	}

	e.device = dev
	e.ctx = dev.Context()
	e.swapChain = sc
	e.camera.SetAspectFromSize(uint32(max(e.window.Width(), 0)), uint32(max(e.window.Height(), 0)))

	e.startTime = e.now()
	e.lastFrame = time.Time{}
	e.deltaTime = 0
	e.lightAngle = 0

	if e.reload {
		r, err := newShaderReloader(map[shader.Stage]string{
			shader.StageVertex: e.vsPath,
			shader.StagePixel:  e.psPath,
		})
		if err != nil {
			common.Logger().Warn("shader hot reload disabled", "err", err)
		} else {
			e.reloader = r
		}
	}

	if err := e.loadResources(); err != nil {
		common.Logger().Error("engine resources failed to load", "err", err)
		return err
	}
	return nil
}

// loadResources creates every frame resource that is still missing and updates the ready flag.
// Later resources are still attempted after an earlier one fails so every cause is reported.
//
// Returns:
//   - error: nil when all resources exist, otherwise ErrNotReady joined with each cause
func (e *engine) loadResources() error {
	var errs []error

	if e.vs == nil {
		if err := e.loadVertexShader(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.ps == nil {
		if err := e.loadPixelShader(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.cb == nil {
		cb, err := e.device.CreateConstantBuffer(e.constants.Marshal())
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create constant buffer: %w", err))
		} else {
			e.cb = cb
		}
	}
	if e.mesh == nil && e.vsBlob != nil {
		m, err := mesh.Load(e.device, e.meshPath, e.vsBlob)
		if err != nil {
			errs = append(errs, err)
		} else {
			e.mesh = m
		}
	}
	if e.texture == nil {
		ts, err := e.loadTexture()
		if err != nil {
			errs = append(errs, err)
		} else {
			e.texture = ts
		}
	}

	e.ready = e.vs != nil && e.ps != nil && e.cb != nil && e.mesh != nil && e.texture != nil
	if e.ready {
		return nil
	}
	return errors.Join(append([]error{ErrNotReady}, errs...)...)
}

func (e *engine) loadVertexShader() error {
	blob, err := e.device.CompileVertexShader(e.vsPath, e.vsEntry)
	if err != nil {
		return fmt.Errorf("failed to compile vertex shader %s: %w", e.vsPath, err)
	}
	vs, err := e.device.CreateVertexShader(blob)
	if err != nil {
		return fmt.Errorf("failed to create vertex shader %s: %w", e.vsPath, err)
	}
	if e.vs != nil {
		e.vs.Release()
	}
	e.vs = vs
	e.vsBlob = blob
	return nil
}

func (e *engine) loadPixelShader() error {
	blob, err := e.device.CompilePixelShader(e.psPath, e.psEntry)
	if err != nil {
		return fmt.Errorf("failed to compile pixel shader %s: %w", e.psPath, err)
	}
	ps, err := e.device.CreatePixelShader(blob)
	if err != nil {
		return fmt.Errorf("failed to create pixel shader %s: %w", e.psPath, err)
	}
	if e.ps != nil {
		e.ps.Release()
	}
	e.ps = ps
	return nil
}

func (e *engine) loadTexture() (graphics.TextureShader, error) {
	if e.texturePath == "" {
		return e.device.CreateTextureShaderFromImage("checker", checkerTexture(256, 32))
	}
	return e.device.CreateTextureShader(e.texturePath)
}

// applyReloads swaps in shaders whose source changed since the last frame.
// A failed compile keeps the running program. A new vertex program re-uploads the mesh
// because its input layout is resolved against the program.
func (e *engine) applyReloads() {
	if e.reloader == nil {
		return
	}
	stages := e.reloader.drain()
	if len(stages) == 0 {
		return
	}

	for _, stage := range stages {
		var err error
		switch stage {
		case shader.StageVertex:
			if err = e.loadVertexShader(); err == nil && e.mesh != nil {
				e.mesh.Release()
				e.mesh = nil
			}
		case shader.StagePixel:
			err = e.loadPixelShader()
		}
		if err != nil {
			common.Logger().Warn("shader reload failed, keeping previous program", "stage", stage.String(), "err", err)
			continue
		}
		common.Logger().Info("shader reloaded", "stage", stage.String())
	}

	if err := e.loadResources(); err != nil {
		common.Logger().Warn("engine resources still missing after reload", "err", err)
	}
}

func (e *engine) FrameUpdate() error {
	if e.device == nil {
		return ErrNotInitialized
	}

	e.applyReloads()
	if !e.ready {
		return ErrNotReady
	}

	width, height := e.window.Width(), e.window.Height()
	if width <= 0 || height <= 0 {
		// Time spent minimized is not integrated into the next frame.
		e.lastFrame = time.Time{}
		e.deltaTime = 0
		return nil
	}

	c := e.clearColor
	if err := e.ctx.ClearRenderTargetColor(e.swapChain, c[0], c[1], c[2], c[3]); err != nil {
		return fmt.Errorf("failed to clear render target: %w", err)
	}
	e.ctx.SetViewportSize(uint32(width), uint32(height))

	// The frame is open from here on; it is always presented so the next clear can begin.
	frameErr := e.drawFrame(uint32(width), uint32(height))

	if err := e.swapChain.Present(e.vsync); err != nil && frameErr == nil {
		frameErr = fmt.Errorf("failed to present: %w", err)
	}

	now := e.now()
	if !e.lastFrame.IsZero() {
		e.deltaTime = float32(now.Sub(e.lastFrame).Seconds())
	}
	e.lastFrame = now

	return frameErr
}

// drawFrame updates the camera and constants, binds every resource and issues the draw.
//
// Parameters:
//   - width, height: the viewport size
//
// Returns:
//   - error: the first failing bind or draw
func (e *engine) drawFrame(width, height uint32) error {
	controller := e.camera.Controller()
	controller.Update(e.deltaTime)
	e.camera.SetAspectFromSize(width, height)
	e.camera.Update()

	e.lightAngle += e.lightRate * e.deltaTime
	sin, cos := math.Sincos(float64(e.lightAngle))
	pos := controller.Position()

	e.constants.World = mgl32.Ident4()
	e.constants.View = e.camera.ViewMatrix()
	e.constants.Projection = e.camera.ProjectionMatrix()
	e.constants.LightDirection = mgl32.Vec4{float32(sin), 0, float32(cos), 0}
	e.constants.CameraPosition = pos.Vec4(1)
	e.constants.AmbientColor = e.ambientColor
	e.constants.AmbientPower = e.ambientPower
	e.constants.Time = uint32(e.now().Sub(e.startTime).Milliseconds())
	e.constants.MarshalTo(e.payload)

	if err := e.cb.Update(e.ctx, e.payload); err != nil {
		return fmt.Errorf("failed to update constants: %w", err)
	}

	binds := []struct {
		name string
		fn   func() error
	}{
		{"vertex constants", func() error { return e.ctx.SetConstantBuffer(shader.StageVertex, 0, e.cb) }},
		{"pixel constants", func() error { return e.ctx.SetConstantBuffer(shader.StagePixel, 0, e.cb) }},
		{"vertex shader", func() error { return e.ctx.SetVertexShader(e.vs) }},
		{"pixel shader", func() error { return e.ctx.SetPixelShader(e.ps) }},
		{"vertex buffer", func() error { return e.ctx.SetVertexBuffer(e.mesh.VertexBuffer()) }},
		{"index buffer", func() error { return e.ctx.SetIndexBuffer(e.mesh.IndexBuffer()) }},
		{"texture", func() error { return e.ctx.SetTexture(shader.StagePixel, e.texture) }},
	}
	for _, b := range binds {
		if err := b.fn(); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.name, err)
		}
	}

	if err := e.ctx.DrawIndexedTriangleList(e.mesh.IndexCount(), 0, 0); err != nil {
		return fmt.Errorf("failed to draw mesh: %w", err)
	}

	if e.overlay != nil {
		e.overlay.BeginFrame()
		e.overlay.Render()
	}
	return nil
}

func (e *engine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		// Time spent minimized is not integrated into the next frame.
		e.lastFrame = time.Time{}
		e.deltaTime = 0
		return nil
	}
	e.camera.SetAspectFromSize(uint32(width), uint32(height))
	if e.swapChain == nil {
		return nil
	}
	if err := e.swapChain.Resize(width, height); err != nil {
		return fmt.Errorf("failed to resize swap chain: %w", err)
	}
	return nil
}

func (e *engine) Shutdown() error {
	if e.device == nil {
		return nil
	}
	if e.reloader != nil {
		e.reloader.close()
		e.reloader = nil
	}

	if e.texture != nil {
		e.texture.Release()
	}
	if e.mesh != nil {
		e.mesh.Release()
	}
	if e.cb != nil {
		e.cb.Release()
	}
	if e.ps != nil {
		e.ps.Release()
	}
	if e.vs != nil {
		e.vs.Release()
	}
	if e.swapChain != nil {
		e.swapChain.Release()
	}
	err := e.device.Close()

	e.texture, e.mesh, e.cb, e.ps, e.vs, e.vsBlob = nil, nil, nil, nil, nil, nil
	e.swapChain, e.ctx, e.device = nil, nil, nil
	e.ready = false
	common.Logger().Info("engine shut down")
	return err
}

func (e *engine) Run() error {
	if e.device == nil {
		if err := e.Init(); err != nil && !errors.Is(err, ErrNotReady) {
			return err
		}
	}

	e.window.SetUpdateCallback(func() {
		frameStart := e.now()
		if err := e.FrameUpdate(); err != nil && !errors.Is(err, ErrNotReady) {
			common.Logger().Warn("frame failed", "err", err)
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})
	e.window.ProcessMessages()

	err := e.Shutdown()
	if cerr := e.window.Close(); cerr != nil && !errors.Is(cerr, window.ErrNotInitialized) {
		err = errors.Join(err, cerr)
	}
	return err
}

// Quit asks the window message loop to stop. Run then shuts the engine down.
func (e *engine) Quit() {
	if e.window != nil {
		e.window.RequestClose()
	}
}
