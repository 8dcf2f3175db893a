package graphics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// VertexShader is a vertex program ready to bind to the context.
type VertexShader interface {
	// Blob returns the compiled program with its reflection data.
	Blob() *shader.Blob

	// Release frees the GPU module. Calling it more than once is a no-op.
	Release()
}

// PixelShader is a fragment program ready to bind to the context.
type PixelShader interface {
	// Blob returns the compiled program with its reflection data.
	Blob() *shader.Blob

	// Release frees the GPU module. Calling it more than once is a no-op.
	Release()
}

// shaderProgram backs both program kinds; the stage lives on the blob.
type shaderProgram struct {
	owner *device
	blob  *shader.Blob

	mu     sync.Mutex
	module handle
}

var (
	_ VertexShader = &shaderProgram{}
	_ PixelShader  = &shaderProgram{}
)

func (d *device) CreateVertexShader(blob *shader.Blob) (VertexShader, error) {
	return d.createProgram(blob, shader.StageVertex)
}

func (d *device) CreatePixelShader(blob *shader.Blob) (PixelShader, error) {
	return d.createProgram(blob, shader.StagePixel)
}

func (d *device) createProgram(blob *shader.Blob, stage shader.Stage) (*shaderProgram, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, errors.New("shader blob is nil")
	}
	if blob.Stage != stage {
		return nil, fmt.Errorf("%w: %s is a %s program, expected %s", ErrWrongStage, blob.Label, blob.Stage, stage)
	}

	mod, err := d.drv.createShaderModule(blob.Label, blob.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s shader %s: %w", stage, blob.Label, err)
	}

	p := &shaderProgram{owner: d, blob: blob, module: mod}
	d.track(p)
	return p, nil
}

func (p *shaderProgram) Blob() *shader.Blob {
	return p.blob
}

func (p *shaderProgram) Release() {
	p.mu.Lock()
	mod := p.module
	p.module = nil
	p.mu.Unlock()

	if mod == nil {
		return
	}
	mod.release()
	p.owner.untrack(p)
}

func (p *shaderProgram) gpuHandle() handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.module
}
