package graphics

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

var (
	errNotOpen     = errors.New("wgpu driver is not open")
	errForeignType = errors.New("handle belongs to a different driver")
)

type wgpuDriver struct {
	mu          sync.Mutex
	sampleCount uint32

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	pipelines  map[string]*wgpuPipeline
	bindGroups map[string]*wgpu.BindGroup

	frame *wgpuFrame
}

// wgpuPipeline is a cached render pipeline with the layouts its bind groups are created against.
type wgpuPipeline struct {
	pipeline     *wgpu.RenderPipeline
	layout       *wgpu.PipelineLayout
	groupLayouts []*wgpu.BindGroupLayout
	modules      [2]*wgpuModule
}

// wgpuFrame is the state of one open render pass, from clear to present.
type wgpuFrame struct {
	surface *wgpuSurface
	texture *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	format  wgpu.TextureFormat
}

var _ driver = &wgpuDriver{}

func newWGPUDriver(sampleCount uint32) *wgpuDriver {
	return &wgpuDriver{
		sampleCount: max(sampleCount, 1),
		pipelines:   make(map[string]*wgpuPipeline),
		bindGroups:  make(map[string]*wgpu.BindGroup),
	}
}

func (b *wgpuDriver) open(kind DriverType) (AdapterInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// wgpu-native requires device calls from the thread that created the device.
	if b.instance == nil {
		runtime.LockOSThread()
		b.instance = wgpu.CreateInstance(nil)
	}

	opts := &wgpu.RequestAdapterOptions{}
	switch kind {
	case DriverHardware:
		opts.PowerPreference = wgpu.PowerPreferenceHighPerformance
	case DriverSoftware:
		opts.PowerPreference = wgpu.PowerPreferenceLowPower
	case DriverReference:
		opts.ForceFallbackAdapter = true
	}

	adapter, err := b.instance.RequestAdapter(opts)
	if err != nil {
		return AdapterInfo{}, fmt.Errorf("failed to request %s adapter: %w", kind, err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Ghost Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		adapter.Release()
		return AdapterInfo{}, fmt.Errorf("failed to create %s device: %w", kind, err)
	}

	b.adapter = adapter
	b.device = device
	b.queue = device.GetQueue()

	props := adapter.GetInfo()
	return AdapterInfo{
		Driver:  kind,
		Name:    props.Name,
		Backend: fmt.Sprint(props.BackendType),
	}, nil
}

func (b *wgpuDriver) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endFrameLocked()
	b.clearBindGroupsLocked()
	for key, p := range b.pipelines {
		p.release()
		delete(b.pipelines, key)
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
		runtime.UnlockOSThread()
	}
}

func (b *wgpuDriver) createSurface(target SurfaceTarget) (surfaceHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errNotOpen
	}
	desc := target.SurfaceDescriptor()
	if desc == nil {
		return nil, errors.New("window has no native surface")
	}
	surface := b.instance.CreateSurface(desc)
	if surface == nil {
		return nil, errors.New("failed to create surface")
	}

	caps := surface.GetCapabilities(b.adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		surface.Release()
		return nil, errors.New("surface is not supported by the adapter")
	}

	return &wgpuSurface{
		drv:     b,
		surface: surface,
		fmt:     caps.Formats[0],
	}, nil
}

func (b *wgpuDriver) createDepthTarget(width, height uint32) (handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errNotOpen
	}

	// The depth sample count must match the color attachment.
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Stencil Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   b.sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24PlusStencil8,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create depth stencil texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create depth stencil view: %w", err)
	}

	return &wgpuDepthTarget{drv: b, width: width, height: height, texture: tex, view: view}, nil
}

func (b *wgpuDriver) createBuffer(label string, usage bufferUsage, data []byte) (handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errNotOpen
	}

	var flags wgpu.BufferUsage
	switch usage {
	case bufferUsageVertex:
		flags = wgpu.BufferUsageVertex
	case bufferUsageIndex:
		flags = wgpu.BufferUsageIndex
	case bufferUsageUniform:
		flags = wgpu.BufferUsageUniform
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            flags | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)

	return &wgpuBuffer{drv: b, buffer: buf, size: uint64(len(data))}, nil
}

func (b *wgpuDriver) writeBuffer(buf handle, data []byte) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return errForeignType
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.queue == nil {
		return errNotOpen
	}
	if wb.buffer == nil {
		return ErrReleased
	}
	b.queue.WriteBuffer(wb.buffer, 0, data)
	return nil
}

func (b *wgpuDriver) createShaderModule(label string, bytecode []byte) (handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errNotOpen
	}

	mod, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		SPIRVDescriptor: &wgpu.ShaderModuleSPIRVDescriptor{
			Code: bytecode,
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuModule{drv: b, module: mod}, nil
}

func (b *wgpuDriver) createTexture(label string, staging common.TextureStagingData, sampler common.SamplerStagingData) (handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errNotOpen
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.RowPitch(),
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(sampler.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(sampler.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(sampler.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(sampler.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(sampler.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(sampler.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(sampler.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(sampler.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(sampler.MaxAnisotropy, 1),
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	return &wgpuTexture{drv: b, texture: tex, view: view, sampler: samp}, nil
}

func (b *wgpuDriver) beginFrame(surface surfaceHandle, depth handle, clearColor wgpu.Color) error {
	ws, ok := surface.(*wgpuSurface)
	if !ok {
		return errForeignType
	}
	dt, ok := depth.(*wgpuDepthTarget)
	if !ok {
		return errForeignType
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return errNotOpen
	}
	if b.frame != nil {
		return ErrFrameInFlight
	}

	surfaceTexture, err := ws.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire back buffer: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	// With MSAA the pass draws into the multisampled target and resolves into the back buffer.
	color := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clearColor,
	}
	if b.sampleCount > 1 {
		msaa, err := dt.colorTarget(ws.fmt, b.sampleCount)
		if err != nil {
			encoder.Release()
			view.Release()
			surfaceTexture.Release()
			return err
		}
		color.View = msaa
		color.ResolveTarget = view
		color.StoreOp = wgpu.StoreOpDiscard
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              dt.view,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: 0,
		},
	})

	b.frame = &wgpuFrame{
		surface: ws,
		texture: surfaceTexture,
		view:    view,
		encoder: encoder,
		pass:    pass,
		format:  ws.fmt,
	}
	return nil
}

func (b *wgpuDriver) draw(cmd *drawCommand) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return ErrNoFrame
	}

	p, key, err := b.pipelineLocked(cmd)
	if err != nil {
		return err
	}

	pass := b.frame.pass
	pass.SetPipeline(p.pipeline)
	pass.SetViewport(0, 0, cmd.viewport.width, cmd.viewport.height, cmd.viewport.minDepth, cmd.viewport.maxDepth)

	for group := range p.groupLayouts {
		bg, err := b.bindGroupLocked(key, p, uint32(group), cmd.bindings)
		if err != nil {
			return err
		}
		pass.SetBindGroup(uint32(group), bg, nil)
	}

	if cmd.vertexBuffer != nil {
		vb, ok := cmd.vertexBuffer.(*wgpuBuffer)
		if !ok {
			return errForeignType
		}
		pass.SetVertexBuffer(0, vb.buffer, 0, wgpu.WholeSize)
	}

	if cmd.indexed {
		ib, ok := cmd.indexBuffer.(*wgpuBuffer)
		if !ok {
			return errForeignType
		}
		pass.SetIndexBuffer(ib.buffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(cmd.count, 1, cmd.first, cmd.baseVertex, 0)
		return nil
	}

	pass.Draw(cmd.count, 1, cmd.first, 0)
	return nil
}

func (b *wgpuDriver) present(surface surfaceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return ErrNoFrame
	}
	if ws, ok := surface.(*wgpuSurface); !ok || ws != b.frame.surface {
		b.endFrameLocked()
		return errors.New("present called on a swap chain other than the one that was cleared")
	}

	frame := b.frame
	frame.pass.End()
	frame.pass.Release()
	frame.pass = nil

	commandBuffer, err := frame.encoder.Finish(nil)
	if err != nil {
		b.endFrameLocked()
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	frame.surface.surface.Present()
	b.endFrameLocked()
	return nil
}

func (b *wgpuDriver) inFrame() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame != nil
}

// endFrameLocked drops the frame state without submitting. Caller holds b.mu.
func (b *wgpuDriver) endFrameLocked() {
	f := b.frame
	if f == nil {
		return
	}
	if f.pass != nil {
		f.pass.End()
		f.pass.Release()
	}
	if f.encoder != nil {
		f.encoder.Release()
	}
	if f.view != nil {
		f.view.Release()
	}
	if f.texture != nil {
		f.texture.Release()
	}
	b.frame = nil
}

// pipelineLocked returns the cached pipeline for the draw's state, building it on first use.
func (b *wgpuDriver) pipelineLocked(cmd *drawCommand) (*wgpuPipeline, string, error) {
	vs, ok := cmd.vertexModule.(*wgpuModule)
	if !ok {
		return nil, "", errForeignType
	}
	ps, ok := cmd.pixelModule.(*wgpuModule)
	if !ok {
		return nil, "", errForeignType
	}
	if vs.module == nil || ps.module == nil {
		return nil, "", ErrReleased
	}

	layoutKey := "none"
	if cmd.layout != nil {
		layoutKey = cmd.layout.key
	}
	key := fmt.Sprintf("%p/%s|%p/%s|%s|%d|%d", vs, cmd.vertexEntry, ps, cmd.pixelEntry, layoutKey, cmd.topology, b.frame.format)
	if p, ok := b.pipelines[key]; ok {
		return p, key, nil
	}

	groupLayouts, err := b.createGroupLayoutsLocked(key, cmd.bindings)
	if err != nil {
		return nil, "", err
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            key,
		BindGroupLayouts: groupLayouts,
	})
	if err != nil {
		releaseLayouts(groupLayouts)
		return nil, "", err
	}

	var buffers []wgpu.VertexBufferLayout
	if cmd.layout != nil {
		buffers = []wgpu.VertexBufferLayout{cmd.layout.layout}
	}

	primitive := wgpu.PrimitiveState{
		Topology:  cmd.topology,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  wgpu.CullModeNone,
	}
	if cmd.topology == wgpu.PrimitiveTopologyTriangleStrip && cmd.indexed {
		primitive.StripIndexFormat = wgpu.IndexFormatUint32
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  key + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: cmd.vertexEntry,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     ps.module,
			EntryPoint: cmd.pixelEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.frame.format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count: b.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionAlways,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationKeep,
				PassOp:      wgpu.StencilOperationKeep,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionAlways,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationKeep,
				PassOp:      wgpu.StencilOperationKeep,
			},
			StencilReadMask:  0xFF,
			StencilWriteMask: 0xFF,
		},
	})
	if err != nil {
		pipelineLayout.Release()
		releaseLayouts(groupLayouts)
		return nil, "", fmt.Errorf("failed to create render pipeline: %w", err)
	}

	p := &wgpuPipeline{
		pipeline:     created,
		layout:       pipelineLayout,
		groupLayouts: groupLayouts,
		modules:      [2]*wgpuModule{vs, ps},
	}
	b.pipelines[key] = p
	common.Logger().Debug("render pipeline created", "key", key)
	return p, key, nil
}

// createGroupLayoutsLocked builds one bind group layout per group index up to the highest bound group.
func (b *wgpuDriver) createGroupLayoutsLocked(label string, bindings []bindEntry) ([]*wgpu.BindGroupLayout, error) {
	groups := -1
	for _, e := range bindings {
		groups = max(groups, int(e.group))
	}
	layouts := make([]*wgpu.BindGroupLayout, groups+1)
	for g := range layouts {
		var entries []wgpu.BindGroupLayoutEntry
		for _, e := range bindings {
			if int(e.group) == g {
				entries = append(entries, e.layout)
			}
		}
		layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", label, g),
			Entries: entries,
		})
		if err != nil {
			releaseLayouts(layouts[:g])
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		layouts[g] = layout
	}
	return layouts, nil
}

// bindGroupLocked returns the bind group for the bound resources of one group, creating it on first use.
func (b *wgpuDriver) bindGroupLocked(pipelineKey string, p *wgpuPipeline, group uint32, bindings []bindEntry) (*wgpu.BindGroup, error) {
	var key strings.Builder
	fmt.Fprintf(&key, "%s#%d", pipelineKey, group)

	var entries []wgpu.BindGroupEntry
	for _, e := range bindings {
		if e.group != group {
			continue
		}
		entry := wgpu.BindGroupEntry{Binding: e.layout.Binding}
		switch {
		case e.buffer != nil:
			buf, ok := e.buffer.(*wgpuBuffer)
			if !ok {
				return nil, errForeignType
			}
			if buf.buffer == nil {
				return nil, ErrReleased
			}
			entry.Buffer = buf.buffer
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
			fmt.Fprintf(&key, "/b%d:%p", e.layout.Binding, buf)
		case e.texture != nil:
			tex, ok := e.texture.(*wgpuTexture)
			if !ok {
				return nil, errForeignType
			}
			if tex.view == nil {
				return nil, ErrReleased
			}
			if e.layout.Sampler.Type != wgpu.SamplerBindingTypeUndefined {
				entry.Sampler = tex.sampler
			} else {
				entry.TextureView = tex.view
			}
			fmt.Fprintf(&key, "/t%d:%p", e.layout.Binding, tex)
		default:
			return nil, fmt.Errorf("%w: binding %d", ErrUnboundResource, e.layout.Binding)
		}
		entries = append(entries, entry)
	}

	if bg, ok := b.bindGroups[key.String()]; ok {
		return bg, nil
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   key.String(),
		Layout:  p.groupLayouts[group],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %d: %w", group, err)
	}
	b.bindGroups[key.String()] = bg
	return bg, nil
}

// clearBindGroupsLocked drops every cached bind group. Called when a bound resource goes away.
func (b *wgpuDriver) clearBindGroupsLocked() {
	for key, bg := range b.bindGroups {
		bg.Release()
		delete(b.bindGroups, key)
	}
}

// evictModuleLocked drops every pipeline built from the module.
func (b *wgpuDriver) evictModuleLocked(m *wgpuModule) {
	evicted := false
	for key, p := range b.pipelines {
		if slices.Contains(p.modules[:], m) {
			p.release()
			delete(b.pipelines, key)
			evicted = true
		}
	}
	if evicted {
		b.clearBindGroupsLocked()
	}
}

func (p *wgpuPipeline) release() {
	p.pipeline.Release()
	p.layout.Release()
	releaseLayouts(p.groupLayouts)
}

func releaseLayouts(layouts []*wgpu.BindGroupLayout) {
	for _, l := range layouts {
		if l != nil {
			l.Release()
		}
	}
}

type wgpuSurface struct {
	drv     *wgpuDriver
	surface *wgpu.Surface
	fmt     wgpu.TextureFormat
}

func (s *wgpuSurface) configure(width, height uint32, vsync bool) error {
	s.drv.mu.Lock()
	defer s.drv.mu.Unlock()

	if s.surface == nil {
		return ErrReleased
	}
	if s.drv.device == nil {
		return errNotOpen
	}

	mode := wgpu.PresentModeImmediate
	if vsync {
		mode = wgpu.PresentModeFifo
	}
	caps := s.surface.GetCapabilities(s.drv.adapter)
	s.surface.Configure(s.drv.adapter, s.drv.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.fmt,
		Width:       width,
		Height:      height,
		PresentMode: mode,
		AlphaMode:   caps.AlphaModes[0],
	})
	return nil
}

func (s *wgpuSurface) format() wgpu.TextureFormat {
	return s.fmt
}

func (s *wgpuSurface) release() {
	s.drv.mu.Lock()
	defer s.drv.mu.Unlock()

	if s.surface == nil {
		return
	}
	if s.drv.frame != nil && s.drv.frame.surface == s {
		s.drv.endFrameLocked()
	}
	s.surface.Release()
	s.surface = nil
}

type wgpuDepthTarget struct {
	drv           *wgpuDriver
	width, height uint32
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	msaaTexture   *wgpu.Texture
	msaaView      *wgpu.TextureView
}

// colorTarget returns the multisampled color target for this size, creating it on first use.
func (d *wgpuDepthTarget) colorTarget(format wgpu.TextureFormat, samples uint32) (*wgpu.TextureView, error) {
	if d.msaaView != nil {
		return d.msaaView, nil
	}
	tex, err := d.drv.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "MSAA Texture",
		Size: wgpu.Extent3D{
			Width:              d.width,
			Height:             d.height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MSAA texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create MSAA view: %w", err)
	}
	d.msaaTexture, d.msaaView = tex, view
	return view, nil
}

func (d *wgpuDepthTarget) release() {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()

	if d.msaaView != nil {
		d.msaaView.Release()
		d.msaaTexture.Release()
		d.msaaView, d.msaaTexture = nil, nil
	}
	if d.view != nil {
		d.view.Release()
		d.view = nil
	}
	if d.texture != nil {
		d.texture.Release()
		d.texture = nil
	}
}

type wgpuBuffer struct {
	drv    *wgpuDriver
	buffer *wgpu.Buffer
	size   uint64
}

func (b *wgpuBuffer) release() {
	b.drv.mu.Lock()
	defer b.drv.mu.Unlock()

	if b.buffer == nil {
		return
	}
	b.drv.clearBindGroupsLocked()
	b.buffer.Release()
	b.buffer = nil
}

type wgpuModule struct {
	drv    *wgpuDriver
	module *wgpu.ShaderModule
}

func (m *wgpuModule) release() {
	m.drv.mu.Lock()
	defer m.drv.mu.Unlock()

	if m.module == nil {
		return
	}
	m.drv.evictModuleLocked(m)
	m.module.Release()
	m.module = nil
}

type wgpuTexture struct {
	drv     *wgpuDriver
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (t *wgpuTexture) release() {
	t.drv.mu.Lock()
	defer t.drv.mu.Unlock()

	if t.texture == nil {
		return
	}
	t.drv.clearBindGroupsLocked()
	t.sampler.Release()
	t.view.Release()
	t.texture.Release()
	t.sampler, t.view, t.texture = nil, nil, nil
}
