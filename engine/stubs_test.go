package engine

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/graphics"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/window"
)

// recorder is the call log shared by every stub in one test.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) reset() {
	r.calls = nil
}

// stubResource stands in for every buffer, program and texture kind.
type stubResource struct {
	rec     *recorder
	name    string
	count   uint32
	size    int
	blob    *shader.Blob
	payload []byte
}

func (s *stubResource) Stride() uint32                { return 32 }
func (s *stubResource) Count() uint32                 { return s.count }
func (s *stubResource) Schema() graphics.VertexSchema { return graphics.SchemaPositionTexNormal }
func (s *stubResource) Width() uint32                 { return 1 }
func (s *stubResource) Height() uint32                { return 1 }
func (s *stubResource) Blob() *shader.Blob            { return s.blob }
func (s *stubResource) Size() int                     { return s.size }
func (s *stubResource) Release()                      { s.rec.add("release %s", s.name) }

func (s *stubResource) Update(_ graphics.DeviceContext, data []byte) error {
	if len(data) != s.size {
		return graphics.ErrSizeMismatch
	}
	s.payload = append(s.payload[:0], data...)
	s.rec.add("update %s", s.name)
	return nil
}

type stubContext struct {
	rec     *recorder
	drawErr error
}

func (c *stubContext) ClearRenderTargetColor(_ graphics.SwapChain, r, g, b, a float32) error {
	c.rec.add("clear %.1f %.1f %.1f %.1f", r, g, b, a)
	return nil
}

func (c *stubContext) SetViewportSize(width, height uint32) {
	c.rec.add("viewport %dx%d", width, height)
}

func (c *stubContext) SetVertexBuffer(vb graphics.VertexBuffer) error {
	c.rec.add("bind vb")
	return nil
}

func (c *stubContext) SetIndexBuffer(ib graphics.IndexBuffer) error {
	c.rec.add("bind ib")
	return nil
}

func (c *stubContext) SetVertexShader(vs graphics.VertexShader) error {
	c.rec.add("bind %s", vs.(*stubResource).name)
	return nil
}

func (c *stubContext) SetPixelShader(ps graphics.PixelShader) error {
	c.rec.add("bind %s", ps.(*stubResource).name)
	return nil
}

func (c *stubContext) SetConstantBuffer(stage shader.Stage, slot uint32, cb graphics.ConstantBuffer) error {
	c.rec.add("bind cb %s %d", stage, slot)
	return nil
}

func (c *stubContext) SetTexture(stage shader.Stage, ts graphics.TextureShader) error {
	c.rec.add("bind texture %s", stage)
	return nil
}

func (c *stubContext) DrawIndexedTriangleList(indexCount, startIndex uint32, baseVertex int32) error {
	c.rec.add("draw indexed %d %d %d", indexCount, startIndex, baseVertex)
	return c.drawErr
}

func (c *stubContext) DrawTriangleList(vertexCount, startVertex uint32) error {
	c.rec.add("draw list %d %d", vertexCount, startVertex)
	return c.drawErr
}

func (c *stubContext) DrawTriangleStrip(vertexCount, startVertex uint32) error {
	c.rec.add("draw strip %d %d", vertexCount, startVertex)
	return c.drawErr
}

type stubSwapChain struct {
	rec    *recorder
	target graphics.SurfaceTarget
	width  int
	height int
}

func (s *stubSwapChain) Resize(width, height int) error {
	s.width, s.height = width, height
	s.rec.add("resize %dx%d", width, height)
	return nil
}

func (s *stubSwapChain) Present(vsync bool) error {
	s.rec.add("present %t", vsync)
	return nil
}

func (s *stubSwapChain) SetFullscreen(on bool) error {
	s.rec.add("fullscreen %t", on)
	ft := s.target.(graphics.FullscreenTarget)
	if err := ft.SetFullscreen(on); err != nil {
		return err
	}
	return s.Resize(ft.Width(), ft.Height())
}

func (s *stubSwapChain) IsFullscreen() bool {
	ft, ok := s.target.(graphics.FullscreenTarget)
	return ok && ft.IsFullscreen()
}

func (s *stubSwapChain) Width() int  { return s.width }
func (s *stubSwapChain) Height() int { return s.height }
func (s *stubSwapChain) Release()    { s.rec.add("release swapchain") }

// stubDevice hands out stub resources and records creation and teardown.
type stubDevice struct {
	rec          *recorder
	ctx          *stubContext
	compileErr   map[shader.Stage]error
	compiles     map[shader.Stage]int
	swapChainErr error
	cb           *stubResource
}

func newStubDevice(rec *recorder) *stubDevice {
	return &stubDevice{
		rec:        rec,
		ctx:        &stubContext{rec: rec},
		compileErr: make(map[shader.Stage]error),
		compiles:   make(map[shader.Stage]int),
	}
}

func (d *stubDevice) factory() func(options ...graphics.DeviceBuilderOption) (graphics.Device, error) {
	return func(options ...graphics.DeviceBuilderOption) (graphics.Device, error) {
		return d, nil
	}
}

func (d *stubDevice) Info() graphics.AdapterInfo {
	return graphics.AdapterInfo{Driver: graphics.DriverReference, Name: "stub", Backend: "none"}
}

func (d *stubDevice) Context() graphics.DeviceContext { return d.ctx }

func (d *stubDevice) CreateSwapChain(target graphics.SurfaceTarget) (graphics.SwapChain, error) {
	if d.swapChainErr != nil {
		return nil, d.swapChainErr
	}
	return &stubSwapChain{rec: d.rec, target: target, width: target.Width(), height: target.Height()}, nil
}

func (d *stubDevice) CreateVertexBuffer(data []byte, stride, count uint32, schema graphics.VertexSchema, vs *shader.Blob) (graphics.VertexBuffer, error) {
	return &stubResource{rec: d.rec, name: "vb", count: count}, nil
}

func (d *stubDevice) CreateIndexBuffer(indices []uint32) (graphics.IndexBuffer, error) {
	return &stubResource{rec: d.rec, name: "ib", count: uint32(len(indices))}, nil
}

func (d *stubDevice) CreateConstantBuffer(data []byte) (graphics.ConstantBuffer, error) {
	d.cb = &stubResource{rec: d.rec, name: "cb", size: len(data)}
	return d.cb, nil
}

func (d *stubDevice) compile(stage shader.Stage, path, entryPoint string) (*shader.Blob, error) {
	if err := d.compileErr[stage]; err != nil {
		return nil, err
	}
	d.compiles[stage]++
	return &shader.Blob{Label: path, Stage: stage, EntryPoint: entryPoint}, nil
}

func (d *stubDevice) CompileVertexShader(path, entryPoint string) (*shader.Blob, error) {
	return d.compile(shader.StageVertex, path, entryPoint)
}

func (d *stubDevice) CompilePixelShader(path, entryPoint string) (*shader.Blob, error) {
	return d.compile(shader.StagePixel, path, entryPoint)
}

func (d *stubDevice) CreateVertexShader(blob *shader.Blob) (graphics.VertexShader, error) {
	return &stubResource{rec: d.rec, name: fmt.Sprintf("vs%d", d.compiles[shader.StageVertex]), blob: blob}, nil
}

func (d *stubDevice) CreatePixelShader(blob *shader.Blob) (graphics.PixelShader, error) {
	return &stubResource{rec: d.rec, name: fmt.Sprintf("ps%d", d.compiles[shader.StagePixel]), blob: blob}, nil
}

func (d *stubDevice) CreateTextureShader(path string) (graphics.TextureShader, error) {
	return nil, fmt.Errorf("%w: %s", graphics.ErrTextureLoad, path)
}

func (d *stubDevice) CreateTextureShaderFromImage(label string, staging common.TextureStagingData) (graphics.TextureShader, error) {
	return &stubResource{rec: d.rec, name: "texture"}, nil
}

func (d *stubDevice) Close() error {
	d.rec.add("close device")
	return nil
}

// fakeWindow runs a bounded message loop and exposes its callbacks to the test.
type fakeWindow struct {
	width, height int
	fullscreen    bool
	running       bool
	closed        bool
	maxFrames     int
	titles        []string

	onUpdate     func()
	onResize     func(width, height int)
	onKeyDown    func(keyCode int)
	onKeyUp      func(keyCode int)
	onMouseDown  func(x, y float64)
	onMouseUp    func()
	onMouseMove  func(x, y float64)
	onMouseLeave func()
}

var _ window.Window = &fakeWindow{}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{width: 800, height: 600, running: true, maxFrames: 100}
}

func (w *fakeWindow) SetUpdateCallback(callback func())                  { w.onUpdate = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode int))      { w.onKeyDown = callback }
func (w *fakeWindow) SetKeyUpCallback(callback func(keyCode int))        { w.onKeyUp = callback }
func (w *fakeWindow) SetMouseDownCallback(callback func(x, y float64))   { w.onMouseDown = callback }
func (w *fakeWindow) SetMouseUpCallback(callback func())                 { w.onMouseUp = callback }
func (w *fakeWindow) SetMouseMoveCallback(callback func(x, y float64))   { w.onMouseMove = callback }
func (w *fakeWindow) SetMouseLeaveCallback(callback func())              { w.onMouseLeave = callback }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor         { return nil }
func (w *fakeWindow) IsRunning() bool                                    { return w.running }
func (w *fakeWindow) RequestClose()                                      { w.running = false }
func (w *fakeWindow) Width() int                                         { return w.width }
func (w *fakeWindow) Height() int                                        { return w.height }
func (w *fakeWindow) IsFullscreen() bool                                 { return w.fullscreen }
func (w *fakeWindow) SetTitle(title string)                              { w.titles = append(w.titles, title) }

func (w *fakeWindow) Close() error {
	if w.closed {
		return window.ErrNotInitialized
	}
	w.closed = true
	w.running = false
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for frame := 0; w.running && frame < w.maxFrames; frame++ {
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func (w *fakeWindow) SetFullscreen(on bool) error {
	w.fullscreen = on
	if on {
		w.width, w.height = 1920, 1080
	} else {
		w.width, w.height = 800, 600
	}
	return nil
}

// resize mimics the platform reporting a new client size.
func (w *fakeWindow) resize(width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

var errStubCompile = errors.New("stub compile failure")
