package graphics

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// scene is the resource set of one textured mesh draw.
type scene struct {
	dev *device
	drv *fakeDriver
	ctx DeviceContext
	sc  SwapChain
	vb  VertexBuffer
	ib  IndexBuffer
	cb  ConstantBuffer
	vs  VertexShader
	ps  PixelShader
	tex TextureShader
}

func newScene(t *testing.T) *scene {
	t.Helper()
	dev, drv := openTestDevice(t)
	vsBlob, psBlob := testPrograms()
	stride := uint32(SchemaPositionTexNormal.Stride())

	s := &scene{dev: dev, drv: drv, ctx: dev.Context()}
	var err error
	s.sc, err = dev.CreateSwapChain(&fakeTarget{width: 640, height: 480})
	require.NoError(t, err)
	s.vb, err = dev.CreateVertexBuffer(make([]byte, stride*4), stride, 4, SchemaPositionTexNormal, vsBlob)
	require.NoError(t, err)
	s.ib, err = dev.CreateIndexBuffer([]uint32{0, 1, 2, 2, 3, 0})
	require.NoError(t, err)
	s.cb, err = dev.CreateConstantBuffer(make([]byte, 256))
	require.NoError(t, err)
	s.vs, err = dev.CreateVertexShader(vsBlob)
	require.NoError(t, err)
	s.ps, err = dev.CreatePixelShader(psBlob)
	require.NoError(t, err)
	s.tex, err = dev.CreateTextureShaderFromImage("solid", solidImage(2, 2))
	require.NoError(t, err)
	return s
}

func (s *scene) bindAll(t *testing.T) {
	t.Helper()
	require.NoError(t, s.ctx.SetConstantBuffer(shader.StageVertex, 0, s.cb))
	require.NoError(t, s.ctx.SetConstantBuffer(shader.StagePixel, 0, s.cb))
	require.NoError(t, s.ctx.SetVertexShader(s.vs))
	require.NoError(t, s.ctx.SetPixelShader(s.ps))
	require.NoError(t, s.ctx.SetVertexBuffer(s.vb))
	require.NoError(t, s.ctx.SetIndexBuffer(s.ib))
	require.NoError(t, s.ctx.SetTexture(shader.StagePixel, s.tex))
}

func TestDrawIndexedTriangleList(t *testing.T) {
	s := newScene(t)

	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0.3, 0.4, 1))
	assert.Equal(t, wgpu.Color{R: 0, G: float64(float32(0.3)), B: float64(float32(0.4)), A: 1}, s.drv.clearColor)

	s.ctx.SetViewportSize(640, 480)
	s.bindAll(t)
	require.NoError(t, s.ctx.DrawIndexedTriangleList(6, 0, 0))
	require.NoError(t, s.sc.Present(false))

	require.Len(t, s.drv.draws, 1)
	cmd := s.drv.draws[0]
	assert.True(t, cmd.indexed)
	assert.Equal(t, uint32(6), cmd.count)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, cmd.topology)
	assert.Equal(t, viewport{width: 640, height: 480, minDepth: 0, maxDepth: 1}, cmd.viewport)
	assert.Equal(t, "vsmain", cmd.vertexEntry)
	assert.Equal(t, "psmain", cmd.pixelEntry)
	require.NotNil(t, cmd.layout)
	assert.Equal(t, uint64(32), cmd.layout.layout.ArrayStride)
	assert.Len(t, cmd.layout.layout.Attributes, 3)

	require.Len(t, cmd.bindings, 3)
	assert.Equal(t, shader.BindingUniform, cmd.bindings[0].kind)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, cmd.bindings[0].layout.Visibility)
	assert.Equal(t, uint64(256), cmd.bindings[0].size)
	assert.NotNil(t, cmd.bindings[1].texture)
	assert.Same(t, cmd.bindings[1].texture, cmd.bindings[2].texture)
	assert.Equal(t, 1, s.drv.presents)
}

func TestDrawWithoutFrame(t *testing.T) {
	s := newScene(t)
	s.bindAll(t)
	assert.ErrorIs(t, s.ctx.DrawIndexedTriangleList(6, 0, 0), ErrNoFrame)
	assert.ErrorIs(t, s.sc.Present(true), ErrNoFrame)
}

func TestDrawDefaultsViewportToSwapChain(t *testing.T) {
	s := newScene(t)
	s.bindAll(t)
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	require.NoError(t, s.ctx.DrawTriangleStrip(4, 0))

	require.Len(t, s.drv.draws, 1)
	assert.Equal(t, viewport{width: 640, height: 480, minDepth: 0, maxDepth: 1}, s.drv.draws[0].viewport)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, s.drv.draws[0].topology)
	assert.False(t, s.drv.draws[0].indexed)
}

func TestDrawRequiresBothShaders(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	require.NoError(t, s.ctx.SetVertexShader(s.vs))
	assert.ErrorIs(t, s.ctx.DrawTriangleList(3, 0), ErrMissingShader)
}

func TestDrawUnboundResources(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	s.bindAll(t)

	require.NoError(t, s.ctx.SetTexture(shader.StagePixel, nil))
	assert.ErrorIs(t, s.ctx.DrawIndexedTriangleList(6, 0, 0), ErrUnboundResource)
	require.NoError(t, s.ctx.SetTexture(shader.StagePixel, s.tex))

	require.NoError(t, s.ctx.SetConstantBuffer(shader.StageVertex, 0, nil))
	require.NoError(t, s.ctx.SetConstantBuffer(shader.StagePixel, 0, nil))
	assert.ErrorIs(t, s.ctx.DrawIndexedTriangleList(6, 0, 0), ErrUnboundResource)
	require.NoError(t, s.ctx.SetConstantBuffer(shader.StagePixel, 0, s.cb))

	require.NoError(t, s.ctx.SetIndexBuffer(nil))
	assert.ErrorIs(t, s.ctx.DrawIndexedTriangleList(6, 0, 0), ErrUnboundResource)

	require.NoError(t, s.ctx.SetVertexBuffer(nil))
	assert.ErrorIs(t, s.ctx.DrawTriangleList(3, 0), ErrUnboundResource)
	assert.Empty(t, s.drv.draws)
}

func TestConstantBufferSharedAcrossStages(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	s.bindAll(t)

	// Bound to the pixel stage only, the buffer still serves the merged binding.
	require.NoError(t, s.ctx.SetConstantBuffer(shader.StageVertex, 0, nil))
	require.NoError(t, s.ctx.DrawIndexedTriangleList(6, 0, 0))
	require.Len(t, s.drv.draws, 1)
	assert.NotNil(t, s.drv.draws[0].bindings[0].buffer)
}

func TestSmallConstantBufferIsLayoutMismatch(t *testing.T) {
	s := newScene(t)
	small, err := s.dev.CreateConstantBuffer(make([]byte, 64))
	require.NoError(t, err)

	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	s.bindAll(t)
	require.NoError(t, s.ctx.SetConstantBuffer(shader.StageVertex, 0, small))
	require.NoError(t, s.ctx.SetConstantBuffer(shader.StagePixel, 0, small))
	assert.ErrorIs(t, s.ctx.DrawIndexedTriangleList(6, 0, 0), ErrLayoutMismatch)
}

func TestClearTwiceIsFrameInFlight(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	assert.ErrorIs(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1), ErrFrameInFlight)
	require.NoError(t, s.sc.Present(false))
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	require.NoError(t, s.sc.Present(false))
	assert.Equal(t, 2, s.drv.presents)
}

func TestBindingReleasedResource(t *testing.T) {
	s := newScene(t)
	s.tex.Release()
	assert.ErrorIs(t, s.ctx.SetTexture(shader.StagePixel, s.tex), ErrReleased)

	s.vs.Release()
	assert.ErrorIs(t, s.ctx.SetVertexShader(s.vs), ErrReleased)
}

type foreignVertexBuffer struct{ VertexBuffer }

type foreignSwapChain struct{ SwapChain }

func TestForeignResourcesAreRejected(t *testing.T) {
	s := newScene(t)
	assert.ErrorIs(t, s.ctx.SetVertexBuffer(foreignVertexBuffer{}), ErrForeignResource)
	assert.ErrorIs(t, s.ctx.ClearRenderTargetColor(foreignSwapChain{}, 0, 0, 0, 1), ErrForeignResource)
}

func TestSwapChainResize(t *testing.T) {
	s := newScene(t)
	surface := s.sc.(*swapChain).surface.(*fakeSurface)
	oldDepth := s.sc.(*swapChain).depth.(*fakeHandle)

	require.NoError(t, s.sc.Resize(800, 600))
	assert.Equal(t, 800, s.sc.Width())
	assert.Equal(t, 600, s.sc.Height())
	assert.True(t, oldDepth.released)
	assert.Equal(t, uint32(800), surface.width)

	// Same size still rebuilds the depth target.
	depth := s.sc.(*swapChain).depth.(*fakeHandle)
	require.NoError(t, s.sc.Resize(800, 600))
	assert.True(t, depth.released)
	assert.Equal(t, 3, surface.configures)

	require.NoError(t, s.sc.Resize(0, 0))
	assert.Equal(t, 1, s.sc.Width())
	assert.Equal(t, 1, s.sc.Height())

	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	assert.ErrorIs(t, s.sc.Resize(10, 10), ErrFrameInFlight)
}

func TestSwapChainResizeFailures(t *testing.T) {
	s := newScene(t)
	sc := s.sc.(*swapChain)
	surface := sc.surface.(*fakeSurface)
	depth := sc.depth.(*fakeHandle)
	width, height := s.sc.Width(), s.sc.Height()

	surfaceErr := errors.New("surface lost")
	surface.configureErr = surfaceErr
	err := s.sc.Resize(800, 600)
	require.ErrorIs(t, err, surfaceErr)
	assert.Contains(t, err.Error(), "reconfigure surface")
	assert.False(t, depth.released, "depth target kept while the surface is unchanged")
	assert.Equal(t, width, s.sc.Width())
	assert.Equal(t, height, s.sc.Height())
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	require.NoError(t, s.sc.Present(false))

	surface.configureErr = nil
	depthErr := errors.New("out of memory")
	s.drv.depthErr = depthErr
	err = s.sc.Resize(800, 600)
	require.ErrorIs(t, err, depthErr)
	assert.Contains(t, err.Error(), "depth target")
	assert.Equal(t, 800, s.sc.Width())
	assert.ErrorIs(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1), depthErr)

	s.drv.depthErr = nil
	require.NoError(t, s.sc.Resize(800, 600))
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
}

func TestPresentSwitchesVsync(t *testing.T) {
	s := newScene(t)
	surface := s.sc.(*swapChain).surface.(*fakeSurface)
	assert.False(t, surface.vsync)

	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	require.NoError(t, s.sc.Present(true))
	assert.True(t, surface.vsync)
	assert.Equal(t, 2, surface.configures)

	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	require.NoError(t, s.sc.Present(true))
	assert.Equal(t, 2, surface.configures)
}

func TestSwapChainFullscreen(t *testing.T) {
	dev, _ := openTestDevice(t)
	target := &fakeTarget{width: 640, height: 480, fullW: 1920, fullH: 1080}
	sc, err := dev.CreateSwapChain(target)
	require.NoError(t, err)

	require.NoError(t, sc.SetFullscreen(true))
	assert.True(t, sc.IsFullscreen())
	assert.Equal(t, 1920, sc.Width())

	require.NoError(t, sc.SetFullscreen(false))
	assert.Equal(t, 640, sc.Width())
}

func TestSwapChainReleaseEndsFrame(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.ctx.ClearRenderTargetColor(s.sc, 0, 0, 0, 1))
	s.sc.Release()
	s.sc.Release()

	assert.False(t, s.drv.inFrame())
	assert.ErrorIs(t, s.ctx.DrawTriangleList(3, 0), ErrNoFrame)
	assert.ErrorIs(t, s.sc.Resize(8, 8), ErrReleased)
}
