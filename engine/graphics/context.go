package graphics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// DeviceContext is the immediate context of a device. It holds the bound pipeline state
// and records draws into the frame begun by ClearRenderTargetColor.
type DeviceContext interface {
	// ClearRenderTargetColor begins a frame on the swap chain, clearing color to (r, g, b, a),
	// depth to 1 and stencil to 0.
	//
	// Parameters:
	//   - sc: the swap chain to render into
	//   - r, g, b, a: the clear color
	//
	// Returns:
	//   - error: ErrFrameInFlight if a frame is already open, ErrForeignResource, or a driver error
	ClearRenderTargetColor(sc SwapChain, r, g, b, a float32) error

	// SetViewportSize sets the viewport to (0, 0, width, height) with depth range [0, 1].
	// A zero size means the full swap chain.
	//
	// Parameters:
	//   - width: viewport width in pixels
	//   - height: viewport height in pixels
	SetViewportSize(width, height uint32)

	// SetVertexBuffer binds the vertex buffer read by subsequent draws. Nil unbinds.
	SetVertexBuffer(vb VertexBuffer) error

	// SetIndexBuffer binds the 32-bit index buffer read by indexed draws. Nil unbinds.
	SetIndexBuffer(ib IndexBuffer) error

	// SetVertexShader binds the vertex program. Nil unbinds.
	SetVertexShader(vs VertexShader) error

	// SetPixelShader binds the fragment program. Nil unbinds.
	SetPixelShader(ps PixelShader) error

	// SetConstantBuffer binds a constant buffer to a uniform slot of one stage. Nil unbinds.
	//
	// Parameters:
	//   - stage: the stage whose slot is set
	//   - slot: the @binding index of the uniform
	//   - cb: the constant buffer
	//
	// Returns:
	//   - error: ErrForeignResource or ErrReleased
	SetConstantBuffer(stage shader.Stage, slot uint32, cb ConstantBuffer) error

	// SetTexture binds a texture and its sampler for one stage. Nil unbinds.
	SetTexture(stage shader.Stage, ts TextureShader) error

	// DrawIndexedTriangleList draws indexed triangles from the bound buffers.
	//
	// Parameters:
	//   - indexCount: number of indices to read
	//   - startIndex: first index to read
	//   - baseVertex: value added to each index before fetching the vertex
	//
	// Returns:
	//   - error: ErrNoFrame, ErrMissingShader, ErrUnboundResource, ErrLayoutMismatch, or a driver error
	DrawIndexedTriangleList(indexCount, startIndex uint32, baseVertex int32) error

	// DrawTriangleList draws non-indexed triangles from the bound vertex buffer.
	DrawTriangleList(vertexCount, startVertex uint32) error

	// DrawTriangleStrip draws a non-indexed triangle strip from the bound vertex buffer.
	DrawTriangleStrip(vertexCount, startVertex uint32) error
}

type slotKey struct {
	stage shader.Stage
	slot  uint32
}

type deviceContext struct {
	owner *device

	mu        sync.Mutex
	target    *swapChain
	frameSize [2]uint32
	viewport  viewport
	vertices  *vertexBuffer
	indices   *indexBuffer
	vs        *shaderProgram
	ps        *shaderProgram
	constants map[slotKey]*constantBuffer
	textures  map[shader.Stage]*textureShader
}

var _ DeviceContext = &deviceContext{}

func (c *deviceContext) ClearRenderTargetColor(sc SwapChain, r, g, b, a float32) error {
	if err := c.owner.alive(); err != nil {
		return err
	}
	s, ok := sc.(*swapChain)
	if !ok || s.owner != c.owner {
		return ErrForeignResource
	}
	surface, depth, err := s.frameHandles()
	if err != nil {
		return err
	}
	width, height := s.Width(), s.Height()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target != nil {
		return ErrFrameInFlight
	}
	color := wgpu.Color{R: float64(r), G: float64(g), B: float64(b), A: float64(a)}
	if err := c.owner.drv.beginFrame(surface, depth, color); err != nil {
		return err
	}
	c.target = s
	c.frameSize = [2]uint32{uint32(width), uint32(height)}
	return nil
}

func (c *deviceContext) SetViewportSize(width, height uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = viewport{width: float32(width), height: float32(height), minDepth: 0, maxDepth: 1}
}

func (c *deviceContext) SetVertexBuffer(vb VertexBuffer) error {
	var impl *vertexBuffer
	if vb != nil {
		v, ok := vb.(*vertexBuffer)
		if !ok || v.owner != c.owner {
			return ErrForeignResource
		}
		if v.gpuHandle() == nil {
			return ErrReleased
		}
		impl = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.vertices = impl
	return nil
}

func (c *deviceContext) SetIndexBuffer(ib IndexBuffer) error {
	var impl *indexBuffer
	if ib != nil {
		i, ok := ib.(*indexBuffer)
		if !ok || i.owner != c.owner {
			return ErrForeignResource
		}
		if i.gpuHandle() == nil {
			return ErrReleased
		}
		impl = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.indices = impl
	return nil
}

func (c *deviceContext) SetVertexShader(vs VertexShader) error {
	p, err := c.program(vs, shader.StageVertex)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.vs = p
	return nil
}

func (c *deviceContext) SetPixelShader(ps PixelShader) error {
	p, err := c.program(ps, shader.StagePixel)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ps = p
	return nil
}

// program unwraps a VertexShader or PixelShader. A nil interface yields a nil program.
func (c *deviceContext) program(v any, stage shader.Stage) (*shaderProgram, error) {
	if v == nil {
		return nil, nil
	}
	p, ok := v.(*shaderProgram)
	if !ok || p == nil || p.owner != c.owner {
		return nil, ErrForeignResource
	}
	if p.blob.Stage != stage {
		return nil, ErrWrongStage
	}
	if p.gpuHandle() == nil {
		return nil, ErrReleased
	}
	return p, nil
}

func (c *deviceContext) SetConstantBuffer(stage shader.Stage, slot uint32, cb ConstantBuffer) error {
	key := slotKey{stage: stage, slot: slot}
	if cb == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.constants, key)
		return nil
	}

	impl, ok := cb.(*constantBuffer)
	if !ok || impl.owner != c.owner {
		return ErrForeignResource
	}
	if impl.gpuHandle() == nil {
		return ErrReleased
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.constants == nil {
		c.constants = make(map[slotKey]*constantBuffer)
	}
	c.constants[key] = impl
	return nil
}

func (c *deviceContext) SetTexture(stage shader.Stage, ts TextureShader) error {
	if ts == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.textures, stage)
		return nil
	}

	impl, ok := ts.(*textureShader)
	if !ok || impl.owner != c.owner {
		return ErrForeignResource
	}
	if impl.gpuHandle() == nil {
		return ErrReleased
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.textures == nil {
		c.textures = make(map[shader.Stage]*textureShader)
	}
	c.textures[stage] = impl
	return nil
}

func (c *deviceContext) DrawIndexedTriangleList(indexCount, startIndex uint32, baseVertex int32) error {
	return c.draw(wgpu.PrimitiveTopologyTriangleList, true, indexCount, startIndex, baseVertex)
}

func (c *deviceContext) DrawTriangleList(vertexCount, startVertex uint32) error {
	return c.draw(wgpu.PrimitiveTopologyTriangleList, false, vertexCount, startVertex, 0)
}

func (c *deviceContext) DrawTriangleStrip(vertexCount, startVertex uint32) error {
	return c.draw(wgpu.PrimitiveTopologyTriangleStrip, false, vertexCount, startVertex, 0)
}

func (c *deviceContext) draw(topology wgpu.PrimitiveTopology, indexed bool, count, first uint32, baseVertex int32) error {
	if err := c.owner.alive(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return ErrNoFrame
	}
	if c.vs == nil || c.ps == nil {
		return ErrMissingShader
	}
	vsModule, psModule := c.vs.gpuHandle(), c.ps.gpuHandle()
	if vsModule == nil || psModule == nil {
		return ErrReleased
	}

	cmd := &drawCommand{
		topology:     topology,
		vertexModule: vsModule,
		pixelModule:  psModule,
		vertexEntry:  c.vs.blob.EntryPoint,
		pixelEntry:   c.ps.blob.EntryPoint,
		viewport:     c.viewport,
		indexed:      indexed,
		count:        count,
		first:        first,
		baseVertex:   baseVertex,
	}
	if cmd.viewport.width == 0 || cmd.viewport.height == 0 {
		cmd.viewport = viewport{
			width:    float32(c.frameSize[0]),
			height:   float32(c.frameSize[1]),
			minDepth: 0,
			maxDepth: 1,
		}
	}

	if len(c.vs.blob.Inputs) > 0 {
		if c.vertices == nil {
			return fmt.Errorf("%w: vertex program %s reads a vertex buffer", ErrUnboundResource, c.vs.blob.Label)
		}
		buf := c.vertices.gpuHandle()
		if buf == nil {
			return ErrReleased
		}
		layout, err := c.vertices.layoutFor(c.vs.blob)
		if err != nil {
			return err
		}
		cmd.vertexBuffer = buf
		cmd.layout = layout
	}

	if indexed {
		if c.indices == nil {
			return fmt.Errorf("%w: indexed draw without an index buffer", ErrUnboundResource)
		}
		buf := c.indices.gpuHandle()
		if buf == nil {
			return ErrReleased
		}
		cmd.indexBuffer = buf
	}

	bindings, err := c.resolveBindings()
	if err != nil {
		return err
	}
	cmd.bindings = bindings

	return c.owner.drv.draw(cmd)
}

// resolveBindings merges the resource declarations of both programs and pairs each
// with the bound resource. Caller holds c.mu.
func (c *deviceContext) resolveBindings() ([]bindEntry, error) {
	type bindKey struct{ group, binding uint32 }

	merged := make(map[bindKey]shader.Binding)
	stages := make(map[bindKey][]shader.Stage)
	for _, blob := range []*shader.Blob{c.vs.blob, c.ps.blob} {
		for _, b := range blob.Bindings {
			key := bindKey{b.Group, b.Binding}
			if prev, ok := merged[key]; ok {
				prev.Layout.Visibility |= b.Layout.Visibility
				merged[key] = prev
			} else {
				merged[key] = b
			}
			stages[key] = append(stages[key], blob.Stage)
		}
	}

	keys := make([]bindKey, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group < keys[j].group
		}
		return keys[i].binding < keys[j].binding
	})

	entries := make([]bindEntry, 0, len(keys))
	for _, key := range keys {
		b := merged[key]
		entry := bindEntry{group: b.Group, layout: b.Layout, kind: b.Kind}

		switch b.Kind {
		case shader.BindingUniform:
			cb := c.constantFor(stages[key], b.Binding)
			if cb == nil {
				return nil, fmt.Errorf("%w: uniform %s at binding %d", ErrUnboundResource, b.Name, b.Binding)
			}
			if b.Size > 0 && cb.allocated < b.Size {
				return nil, fmt.Errorf("%w: constant buffer of %d bytes bound to %s (%d bytes)",
					ErrLayoutMismatch, cb.allocated, b.TypeName, b.Size)
			}
			buf := cb.gpuHandle()
			if buf == nil {
				return nil, ErrReleased
			}
			entry.buffer = buf
			entry.size = cb.allocated
		case shader.BindingTexture, shader.BindingSampler:
			ts := c.textureFor(stages[key])
			if ts == nil {
				return nil, fmt.Errorf("%w: %s at binding %d", ErrUnboundResource, b.Name, b.Binding)
			}
			tex := ts.gpuHandle()
			if tex == nil {
				return nil, ErrReleased
			}
			entry.texture = tex
		default:
			return nil, fmt.Errorf("%w: %s at binding %d has no bindable resource kind", ErrUnboundResource, b.Name, b.Binding)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// constantFor picks the constant buffer for a uniform slot, preferring the vertex stage.
func (c *deviceContext) constantFor(declaring []shader.Stage, slot uint32) *constantBuffer {
	for _, stage := range declaring {
		if cb, ok := c.constants[slotKey{stage, slot}]; ok {
			return cb
		}
	}
	for _, stage := range []shader.Stage{shader.StageVertex, shader.StagePixel} {
		if cb, ok := c.constants[slotKey{stage, slot}]; ok {
			return cb
		}
	}
	return nil
}

// textureFor picks the texture bound to a stage that declares the binding, falling back to any stage.
func (c *deviceContext) textureFor(declaring []shader.Stage) *textureShader {
	for _, stage := range declaring {
		if ts, ok := c.textures[stage]; ok {
			return ts
		}
	}
	for _, stage := range []shader.Stage{shader.StageVertex, shader.StagePixel} {
		if ts, ok := c.textures[stage]; ok {
			return ts
		}
	}
	return nil
}

// frameTarget returns the swap chain of the open frame, nil if none.
func (c *deviceContext) frameTarget() *swapChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// endFrame marks the open frame as finished.
func (c *deviceContext) endFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = nil
}

// reset unbinds all state. Used when the device closes.
func (c *deviceContext) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = nil
	c.vertices, c.indices = nil, nil
	c.vs, c.ps = nil, nil
	c.constants = nil
	c.textures = nil
}
