package graphics

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// DriverType selects how the device is backed.
type DriverType int

const (
	// DriverHardware requests a high-performance hardware adapter.
	DriverHardware DriverType = iota
	// DriverSoftware requests a low-power adapter, typically an integrated or emulated GPU.
	DriverSoftware
	// DriverReference forces the CPU fallback adapter.
	DriverReference
)

func (d DriverType) String() string {
	switch d {
	case DriverHardware:
		return "hardware"
	case DriverSoftware:
		return "software"
	case DriverReference:
		return "reference"
	default:
		return fmt.Sprintf("driver(%d)", int(d))
	}
}

// AdapterInfo describes the adapter a device was opened on.
type AdapterInfo struct {
	Driver  DriverType
	Name    string
	Backend string
}

// SurfaceTarget is a native window a swap chain presents into.
type SurfaceTarget interface {
	// SurfaceDescriptor returns the platform surface descriptor for the window.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	// Width returns the client area width in pixels.
	Width() int
	// Height returns the client area height in pixels.
	Height() int
}

// FullscreenTarget is implemented by targets that can switch to exclusive fullscreen.
type FullscreenTarget interface {
	SurfaceTarget
	SetFullscreen(on bool) error
	IsFullscreen() bool
}

// handle is a driver object with an explicit release.
type handle interface {
	release()
}

// surfaceHandle is a presentable driver surface.
type surfaceHandle interface {
	handle
	configure(width, height uint32, vsync bool) error
	format() wgpu.TextureFormat
}

type bufferUsage int

const (
	bufferUsageVertex bufferUsage = iota
	bufferUsageIndex
	bufferUsageUniform
)

// viewport is the rasterizer viewport in pixels with a [min, max] depth range.
type viewport struct {
	width, height      float32
	minDepth, maxDepth float32
}

// bindEntry pairs one shader binding with the resource bound to it.
type bindEntry struct {
	group   uint32
	layout  wgpu.BindGroupLayoutEntry
	kind    shader.BindingKind
	buffer  handle
	size    uint64
	texture handle
}

// drawCommand is the fully resolved pipeline state for one draw.
type drawCommand struct {
	topology     wgpu.PrimitiveTopology
	vertexModule handle
	pixelModule  handle
	vertexEntry  string
	pixelEntry   string
	layout       *inputLayout
	vertexBuffer handle
	indexBuffer  handle
	bindings     []bindEntry
	viewport     viewport
	indexed      bool
	count        uint32
	first        uint32
	baseVertex   int32
}

// driver is the seam between resource management and the GPU API.
// The wgpu driver is the only production implementation.
type driver interface {
	open(kind DriverType) (AdapterInfo, error)
	close()

	createSurface(target SurfaceTarget) (surfaceHandle, error)
	createDepthTarget(width, height uint32) (handle, error)

	createBuffer(label string, usage bufferUsage, data []byte) (handle, error)
	writeBuffer(buf handle, data []byte) error
	createShaderModule(label string, bytecode []byte) (handle, error)
	createTexture(label string, staging common.TextureStagingData, sampler common.SamplerStagingData) (handle, error)

	beginFrame(surface surfaceHandle, depth handle, clearColor wgpu.Color) error
	draw(cmd *drawCommand) error
	present(surface surfaceHandle) error
	inFrame() bool
}
