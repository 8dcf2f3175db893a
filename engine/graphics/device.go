package graphics

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// Device owns the GPU device and its immediate context. Every GPU resource is
// created through it and is released, at the latest, when the device closes.
// Only one device may be open per process.
type Device interface {
	// Info describes the backend and adapter the device was opened on.
	//
	// Returns:
	//   - AdapterInfo: the chosen backend and adapter
	Info() AdapterInfo

	// Context returns the immediate context used for all state binds and draws.
	//
	// Returns:
	//   - DeviceContext: the device's single context
	Context() DeviceContext

	// CreateSwapChain creates the presentable back buffer and its depth/stencil buffer for a window.
	//
	// Parameters:
	//   - target: the window to present into; its client size sets the initial buffer size
	//
	// Returns:
	//   - SwapChain: the created swap chain
	//   - error: error if the surface or either target could not be created
	CreateSwapChain(target SurfaceTarget) (SwapChain, error)

	// CreateVertexBuffer uploads vertex records and resolves their input layout against a vertex program.
	// The program is only consulted while building the layout.
	//
	// Parameters:
	//   - data: packed vertex records, exactly stride*count bytes
	//   - stride: byte size of one record
	//   - count: number of records
	//   - schema: the attribute schema of the records
	//   - vs: the compiled vertex program that will read the buffer
	//
	// Returns:
	//   - VertexBuffer: the created buffer
	//   - error: ErrSizeMismatch, ErrLayoutMismatch, or a driver error
	CreateVertexBuffer(data []byte, stride, count uint32, schema VertexSchema, vs *shader.Blob) (VertexBuffer, error)

	// CreateIndexBuffer uploads a 32-bit index list.
	//
	// Parameters:
	//   - indices: the index list
	//
	// Returns:
	//   - IndexBuffer: the created buffer
	//   - error: error if the list is empty or the driver fails
	CreateIndexBuffer(indices []uint32) (IndexBuffer, error)

	// CreateConstantBuffer creates a uniform buffer initialised with data.
	// GPU storage is padded to a multiple of 16 bytes; updates must match len(data) exactly.
	//
	// Parameters:
	//   - data: the initial contents
	//
	// Returns:
	//   - ConstantBuffer: the created buffer
	//   - error: error if data is empty or the driver fails
	CreateConstantBuffer(data []byte) (ConstantBuffer, error)

	// CompileVertexShader compiles a WGSL file's vertex entry point.
	//
	// Parameters:
	//   - path: the WGSL file
	//   - entryPoint: the vertex entry point name
	//
	// Returns:
	//   - *shader.Blob: the compiled program
	//   - error: compile or I/O error
	CompileVertexShader(path, entryPoint string) (*shader.Blob, error)

	// CompilePixelShader compiles a WGSL file's fragment entry point.
	//
	// Parameters:
	//   - path: the WGSL file
	//   - entryPoint: the fragment entry point name
	//
	// Returns:
	//   - *shader.Blob: the compiled program
	//   - error: compile or I/O error
	CompilePixelShader(path, entryPoint string) (*shader.Blob, error)

	// CreateVertexShader wraps compiled vertex bytecode into a bindable program.
	//
	// Parameters:
	//   - blob: a program compiled for the vertex stage
	//
	// Returns:
	//   - VertexShader: the program
	//   - error: ErrWrongStage or the driver's rejection
	CreateVertexShader(blob *shader.Blob) (VertexShader, error)

	// CreatePixelShader wraps compiled fragment bytecode into a bindable program.
	//
	// Parameters:
	//   - blob: a program compiled for the pixel stage
	//
	// Returns:
	//   - PixelShader: the program
	//   - error: ErrWrongStage or the driver's rejection
	CreatePixelShader(blob *shader.Blob) (PixelShader, error)

	// CreateTextureShader decodes an image file into a sampled texture.
	//
	// Parameters:
	//   - path: the image file
	//
	// Returns:
	//   - TextureShader: the texture with its view and sampler
	//   - error: error wrapping ErrTextureLoad
	CreateTextureShader(path string) (TextureShader, error)

	// CreateTextureShaderFromImage uploads already decoded pixels as a sampled texture.
	//
	// Parameters:
	//   - label: a debug name for the texture
	//   - staging: RGBA8 pixel data
	//
	// Returns:
	//   - TextureShader: the texture with its view and sampler
	//   - error: error wrapping ErrTextureLoad
	CreateTextureShaderFromImage(label string, staging common.TextureStagingData) (TextureShader, error)

	// Close releases every live resource in reverse creation order, then the device itself.
	// Safe to call more than once.
	//
	// Returns:
	//   - error: nil; reserved for driver teardown failures
	Close() error
}

// releasable is a resource tracked by its device for ordered teardown.
type releasable interface {
	Release()
}

// deviceOpen guards the one-device-per-process invariant.
var deviceOpen atomic.Bool

type device struct {
	mu          sync.Mutex
	drv         driver
	info        AdapterInfo
	preferences []DriverType
	sampleCount uint32
	ctx         *deviceContext
	resources   []releasable
	closed      bool
}

var _ Device = &device{}

// NewDevice opens a device on the first backend in the preference list that succeeds.
// Failure of every backend is fatal for the caller and returns ErrNoBackend
// joined with each backend's error.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - Device: the open device
//   - error: ErrDeviceExists or ErrNoBackend
func NewDevice(options ...DeviceBuilderOption) (Device, error) {
	if !deviceOpen.CompareAndSwap(false, true) {
		return nil, ErrDeviceExists
	}

	d := &device{
		preferences: []DriverType{DriverHardware, DriverSoftware, DriverReference},
		sampleCount: 1,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.drv == nil {
		d.drv = newWGPUDriver(d.sampleCount)
	}

	errs := []error{ErrNoBackend}
	for _, kind := range d.preferences {
		info, err := d.drv.open(kind)
		if err != nil {
			common.Logger().Warn("graphics backend unavailable", "driver", kind.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		d.info = info
		d.ctx = &deviceContext{owner: d}
		common.Logger().Info("graphics device opened",
			"driver", info.Driver.String(), "adapter", info.Name, "backend", info.Backend)
		return d, nil
	}

	d.drv.close()
	deviceOpen.Store(false)
	return nil, errors.Join(errs...)
}

func (d *device) Info() AdapterInfo {
	return d.info
}

func (d *device) Context() DeviceContext {
	return d.ctx
}

func (d *device) CompileVertexShader(path, entryPoint string) (*shader.Blob, error) {
	return shader.Compile(path, entryPoint, shader.StageVertex)
}

func (d *device) CompilePixelShader(path, entryPoint string) (*shader.Blob, error) {
	return shader.Compile(path, entryPoint, shader.StagePixel)
}

func (d *device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	live := slices.Clone(d.resources)
	d.mu.Unlock()

	for i := len(live) - 1; i >= 0; i-- {
		live[i].Release()
	}

	d.mu.Lock()
	d.closed = true
	d.resources = nil
	d.mu.Unlock()

	d.ctx.reset()
	d.drv.close()
	deviceOpen.Store(false)
	common.Logger().Info("graphics device closed")
	return nil
}

// alive reports ErrDeviceClosed once the device has been closed.
func (d *device) alive() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	return nil
}

// track registers a resource for teardown on Close.
func (d *device) track(r releasable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resources = append(d.resources, r)
}

// untrack removes a resource that released itself.
func (d *device) untrack(r releasable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.Index(d.resources, r); i >= 0 {
		d.resources = slices.Delete(d.resources, i, i+1)
	}
}

// liveResources returns the number of tracked resources.
func (d *device) liveResources() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.resources)
}
