package graphics

import (
	"fmt"
	"sync"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// IndexBuffer is an immutable GPU list of 32-bit vertex indices.
type IndexBuffer interface {
	// Count returns the number of indices.
	Count() uint32

	// Release frees the GPU buffer. Calling it more than once is a no-op.
	Release()
}

type indexBuffer struct {
	owner *device
	count uint32

	mu     sync.Mutex
	buffer handle
}

var _ IndexBuffer = &indexBuffer{}

func (d *device) CreateIndexBuffer(indices []uint32) (IndexBuffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty index list", ErrSizeMismatch)
	}

	buf, err := d.drv.createBuffer("Index Buffer", bufferUsageIndex, common.SliceToBytes(indices))
	if err != nil {
		return nil, fmt.Errorf("failed to create index buffer: %w", err)
	}

	ib := &indexBuffer{owner: d, buffer: buf, count: uint32(len(indices))}
	d.track(ib)
	return ib, nil
}

func (i *indexBuffer) Count() uint32 {
	return i.count
}

func (i *indexBuffer) Release() {
	i.mu.Lock()
	buf := i.buffer
	i.buffer = nil
	i.mu.Unlock()

	if buf == nil {
		return
	}
	buf.release()
	i.owner.untrack(i)
}

func (i *indexBuffer) gpuHandle() handle {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.buffer
}
