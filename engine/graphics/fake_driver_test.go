package graphics

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// fakeDriver records what the graphics layer asks of the GPU.
type fakeDriver struct {
	openErr  map[DriverType]error
	attempts []DriverType
	opened   bool
	closed   bool

	surfaceErr error
	depthErr   error
	moduleErr  error
	drawErr    error

	nextID   int
	released []string
	writes   [][]byte

	frame      *fakeSurface
	clearColor wgpu.Color
	draws      []drawCommand
	presents   int
}

type fakeHandle struct {
	drv      *fakeDriver
	label    string
	size     int
	released bool
}

func (h *fakeHandle) release() {
	if h.released {
		return
	}
	h.released = true
	h.drv.released = append(h.drv.released, h.label)
}

type fakeSurface struct {
	*fakeHandle
	width, height uint32
	vsync         bool
	configures    int
	configureErr  error
}

func (s *fakeSurface) configure(width, height uint32, vsync bool) error {
	if s.released {
		return ErrReleased
	}
	if s.configureErr != nil {
		return s.configureErr
	}
	s.width, s.height, s.vsync = width, height, vsync
	s.configures++
	return nil
}

func (s *fakeSurface) format() wgpu.TextureFormat {
	return wgpu.TextureFormatBGRA8Unorm
}

func (s *fakeSurface) release() {
	if s.drv.frame == s {
		s.drv.frame = nil
	}
	s.fakeHandle.release()
}

var _ driver = &fakeDriver{}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{openErr: map[DriverType]error{}}
}

func (f *fakeDriver) newHandle(kind string, size int) *fakeHandle {
	f.nextID++
	return &fakeHandle{drv: f, label: fmt.Sprintf("%s#%d", kind, f.nextID), size: size}
}

func (f *fakeDriver) open(kind DriverType) (AdapterInfo, error) {
	f.attempts = append(f.attempts, kind)
	if err := f.openErr[kind]; err != nil {
		return AdapterInfo{}, err
	}
	f.opened = true
	return AdapterInfo{Driver: kind, Name: "fake adapter", Backend: "fake"}, nil
}

func (f *fakeDriver) close() {
	f.closed = true
}

func (f *fakeDriver) createSurface(SurfaceTarget) (surfaceHandle, error) {
	if f.surfaceErr != nil {
		return nil, f.surfaceErr
	}
	return &fakeSurface{fakeHandle: f.newHandle("surface", 0)}, nil
}

func (f *fakeDriver) createDepthTarget(width, height uint32) (handle, error) {
	if f.depthErr != nil {
		return nil, f.depthErr
	}
	return f.newHandle(fmt.Sprintf("depth%dx%d", width, height), 0), nil
}

func (f *fakeDriver) createBuffer(label string, _ bufferUsage, data []byte) (handle, error) {
	return f.newHandle("buffer", len(data)), nil
}

func (f *fakeDriver) writeBuffer(buf handle, data []byte) error {
	h, ok := buf.(*fakeHandle)
	if !ok {
		return errors.New("not a fake buffer")
	}
	if len(data) > h.size {
		return errors.New("write overflows buffer")
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeDriver) createShaderModule(label string, _ []byte) (handle, error) {
	if f.moduleErr != nil {
		return nil, f.moduleErr
	}
	return f.newHandle("module", 0), nil
}

func (f *fakeDriver) createTexture(label string, staging common.TextureStagingData, _ common.SamplerStagingData) (handle, error) {
	return f.newHandle("texture", len(staging.Pixels)), nil
}

func (f *fakeDriver) beginFrame(surface surfaceHandle, _ handle, clearColor wgpu.Color) error {
	if f.frame != nil {
		return ErrFrameInFlight
	}
	f.frame = surface.(*fakeSurface)
	f.clearColor = clearColor
	return nil
}

func (f *fakeDriver) draw(cmd *drawCommand) error {
	if f.frame == nil {
		return ErrNoFrame
	}
	if f.drawErr != nil {
		return f.drawErr
	}
	f.draws = append(f.draws, *cmd)
	return nil
}

func (f *fakeDriver) present(surface surfaceHandle) error {
	if f.frame == nil || f.frame != surface {
		return ErrNoFrame
	}
	f.frame = nil
	f.presents++
	return nil
}

func (f *fakeDriver) inFrame() bool {
	return f.frame != nil
}

// fakeTarget is a window of fixed size.
type fakeTarget struct {
	width, height int
	fullscreen    bool
	fullW, fullH  int
}

func (t *fakeTarget) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return &wgpu.SurfaceDescriptor{}
}

func (t *fakeTarget) Width() int {
	if t.fullscreen {
		return t.fullW
	}
	return t.width
}

func (t *fakeTarget) Height() int {
	if t.fullscreen {
		return t.fullH
	}
	return t.height
}

func (t *fakeTarget) SetFullscreen(on bool) error {
	t.fullscreen = on
	return nil
}

func (t *fakeTarget) IsFullscreen() bool {
	return t.fullscreen
}

// testPrograms returns reflected blobs matching assets/shaders without invoking the compiler.
func testPrograms() (*shader.Blob, *shader.Blob) {
	constants := func(vis wgpu.ShaderStage) shader.Binding {
		return shader.Binding{
			Group: 0, Binding: 0, Name: "constants", TypeName: "Constants",
			Kind: shader.BindingUniform, Size: 256,
			Layout: wgpu.BindGroupLayoutEntry{
				Binding:    0,
				Visibility: vis,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 256,
				},
			},
		}
	}

	vs := &shader.Blob{
		Label:      "vertex.wgsl",
		Stage:      shader.StageVertex,
		EntryPoint: "vsmain",
		Bytecode:   []byte{0x03, 0x02, 0x23, 0x07},
		Inputs: []shader.VertexInput{
			{Name: "position", Location: 0, Format: wgpu.VertexFormatFloat32x3, Size: 12},
			{Name: "texcoord", Location: 1, Format: wgpu.VertexFormatFloat32x2, Size: 8},
			{Name: "normal", Location: 2, Format: wgpu.VertexFormatFloat32x3, Size: 12},
		},
		Bindings: []shader.Binding{constants(wgpu.ShaderStageVertex)},
	}

	ps := &shader.Blob{
		Label:      "pixel.wgsl",
		Stage:      shader.StagePixel,
		EntryPoint: "psmain",
		Bytecode:   []byte{0x03, 0x02, 0x23, 0x07},
		Bindings: []shader.Binding{
			constants(wgpu.ShaderStageFragment),
			{
				Group: 0, Binding: 1, Name: "diffuse", TypeName: "texture_2d<f32>",
				Kind: shader.BindingTexture,
				Layout: wgpu.BindGroupLayoutEntry{
					Binding:    1,
					Visibility: wgpu.ShaderStageFragment,
					Texture: wgpu.TextureBindingLayout{
						SampleType:    wgpu.TextureSampleTypeFloat,
						ViewDimension: wgpu.TextureViewDimension2D,
					},
				},
			},
			{
				Group: 0, Binding: 2, Name: "diffuse_sampler", TypeName: "sampler",
				Kind: shader.BindingSampler,
				Layout: wgpu.BindGroupLayoutEntry{
					Binding:    2,
					Visibility: wgpu.ShaderStageFragment,
					Sampler: wgpu.SamplerBindingLayout{
						Type: wgpu.SamplerBindingTypeFiltering,
					},
				},
			},
		},
	}
	return vs, ps
}
