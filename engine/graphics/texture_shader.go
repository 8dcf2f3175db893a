package graphics

import (
	"fmt"
	"sync"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// TextureShader is a sampled 2D texture with its view and a linear repeat sampler.
type TextureShader interface {
	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Release frees the texture, view and sampler. Calling it more than once is a no-op.
	Release()
}

type textureShader struct {
	owner  *device
	width  uint32
	height uint32

	mu      sync.Mutex
	texture handle
}

var _ TextureShader = &textureShader{}

func (d *device) CreateTextureShader(path string) (TextureShader, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	staging, err := common.DecodeImageFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTextureLoad, err)
	}
	return d.CreateTextureShaderFromImage(path, staging)
}

func (d *device) CreateTextureShaderFromImage(label string, staging common.TextureStagingData) (TextureShader, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if staging.Width == 0 || staging.Height == 0 {
		return nil, fmt.Errorf("%w: %w", ErrTextureLoad, common.ErrEmptyImage)
	}
	if want := int(staging.RowPitch() * staging.Height); len(staging.Pixels) != want {
		return nil, fmt.Errorf("%w: %d pixel bytes for a %dx%d image", ErrTextureLoad, len(staging.Pixels), staging.Width, staging.Height)
	}

	tex, err := d.drv.createTexture(label, staging, common.SamplerStagingData{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTextureLoad, err)
	}

	ts := &textureShader{owner: d, texture: tex, width: staging.Width, height: staging.Height}
	d.track(ts)
	common.Logger().Debug("texture created", "label", label, "width", staging.Width, "height", staging.Height)
	return ts, nil
}

func (t *textureShader) Width() uint32 {
	return t.width
}

func (t *textureShader) Height() uint32 {
	return t.height
}

func (t *textureShader) Release() {
	t.mu.Lock()
	tex := t.texture
	t.texture = nil
	t.mu.Unlock()

	if tex == nil {
		return
	}
	tex.release()
	t.owner.untrack(t)
}

func (t *textureShader) gpuHandle() handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.texture
}
