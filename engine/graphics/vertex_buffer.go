package graphics

import (
	"fmt"
	"sync"

	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// VertexBuffer is an immutable GPU array of vertex records with a fixed attribute schema.
type VertexBuffer interface {
	// Stride returns the byte size of one vertex record.
	Stride() uint32

	// Count returns the number of vertex records.
	Count() uint32

	// Schema returns the attribute schema the records follow.
	Schema() VertexSchema

	// Release frees the GPU buffer. Calling it more than once is a no-op.
	Release()
}

type vertexBuffer struct {
	owner  *device
	buffer handle
	stride uint32
	count  uint32
	schema VertexSchema

	mu sync.Mutex
	// layouts caches resolved layouts by input signature; programs are not retained.
	layouts map[string]*inputLayout
}

var _ VertexBuffer = &vertexBuffer{}

func (d *device) CreateVertexBuffer(data []byte, stride, count uint32, schema VertexSchema, vs *shader.Blob) (VertexBuffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if vs == nil {
		return nil, fmt.Errorf("%w: no vertex program to resolve the layout against", ErrLayoutMismatch)
	}
	if vs.Stage != shader.StageVertex {
		return nil, fmt.Errorf("%w: %s is a %s program", ErrWrongStage, vs.Label, vs.Stage)
	}
	if stride == 0 || count == 0 {
		return nil, fmt.Errorf("%w: empty vertex buffer", ErrSizeMismatch)
	}
	if uint64(len(data)) != uint64(stride)*uint64(count) {
		return nil, fmt.Errorf("%w: %d bytes for %d vertices of %d bytes", ErrSizeMismatch, len(data), count, stride)
	}

	layout, err := buildInputLayout(schema, stride, vs.Inputs)
	if err != nil {
		return nil, err
	}

	buf, err := d.drv.createBuffer(schema.Name+" Vertex Buffer", bufferUsageVertex, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex buffer: %w", err)
	}

	vb := &vertexBuffer{
		owner:   d,
		buffer:  buf,
		stride:  stride,
		count:   count,
		schema:  schema,
		layouts: map[string]*inputLayout{inputSignature(vs.Inputs): layout},
	}
	d.track(vb)
	return vb, nil
}

func (v *vertexBuffer) Stride() uint32 {
	return v.stride
}

func (v *vertexBuffer) Count() uint32 {
	return v.count
}

func (v *vertexBuffer) Schema() VertexSchema {
	return v.schema
}

// layoutFor returns the input layout of the records as read by the given vertex program.
func (v *vertexBuffer) layoutFor(vs *shader.Blob) (*inputLayout, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	sig := inputSignature(vs.Inputs)
	if l, ok := v.layouts[sig]; ok {
		return l, nil
	}
	l, err := buildInputLayout(v.schema, v.stride, vs.Inputs)
	if err != nil {
		return nil, err
	}
	v.layouts[sig] = l
	return l, nil
}

func (v *vertexBuffer) Release() {
	v.mu.Lock()
	buf := v.buffer
	v.buffer = nil
	v.mu.Unlock()

	if buf == nil {
		return
	}
	buf.release()
	v.owner.untrack(v)
}

func (v *vertexBuffer) gpuHandle() handle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buffer
}
