package graphics

import (
	"fmt"
	"sync"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// uniformAlignment is the granularity of uniform buffer sizes.
const uniformAlignment = 16

// ConstantBuffer is a fixed-size uniform buffer rewritten in place every frame.
type ConstantBuffer interface {
	// Size returns the payload size the buffer was created with.
	//
	// Returns:
	//   - int: the unpadded byte size
	Size() int

	// Update overwrites the buffer contents. No reallocation happens.
	//
	// Parameters:
	//   - ctx: the context of the device that created the buffer
	//   - data: the new payload, exactly Size() bytes
	//
	// Returns:
	//   - error: ErrSizeMismatch, ErrForeignResource, ErrReleased, or a driver error
	Update(ctx DeviceContext, data []byte) error

	// Release frees the GPU buffer. Calling it more than once is a no-op.
	Release()
}

type constantBuffer struct {
	owner     *device
	size      int
	allocated uint64

	mu     sync.Mutex
	buffer handle
}

var _ ConstantBuffer = &constantBuffer{}

func (d *device) CreateConstantBuffer(data []byte) (ConstantBuffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty constant buffer", ErrSizeMismatch)
	}

	allocated := common.AlignUp(uint64(len(data)), uniformAlignment)
	padded := make([]byte, allocated)
	copy(padded, data)

	buf, err := d.drv.createBuffer("Constant Buffer", bufferUsageUniform, padded)
	if err != nil {
		return nil, fmt.Errorf("failed to create constant buffer: %w", err)
	}

	cb := &constantBuffer{owner: d, buffer: buf, size: len(data), allocated: allocated}
	d.track(cb)
	return cb, nil
}

func (c *constantBuffer) Size() int {
	return c.size
}

func (c *constantBuffer) Update(ctx DeviceContext, data []byte) error {
	dc, ok := ctx.(*deviceContext)
	if !ok || dc.owner != c.owner {
		return ErrForeignResource
	}
	if err := c.owner.alive(); err != nil {
		return err
	}
	if len(data) != c.size {
		return fmt.Errorf("%w: got %d bytes, buffer holds %d", ErrSizeMismatch, len(data), c.size)
	}

	buf := c.gpuHandle()
	if buf == nil {
		return ErrReleased
	}
	return c.owner.drv.writeBuffer(buf, data)
}

func (c *constantBuffer) Release() {
	c.mu.Lock()
	buf := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	if buf == nil {
		return
	}
	buf.release()
	c.owner.untrack(c)
}

func (c *constantBuffer) gpuHandle() handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}
