package shader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spirvMagic = 0x07230203

var assetDir = filepath.Join("..", "..", "assets", "shaders")

func TestCompileVertexAsset(t *testing.T) {
	blob, err := Compile(filepath.Join(assetDir, "vertex.wgsl"), "vsmain", StageVertex)
	require.NoError(t, err)

	require.GreaterOrEqual(t, blob.Size(), 20)
	assert.Equal(t, 0, blob.Size()%4)
	assert.Equal(t, uint32(spirvMagic), binary.LittleEndian.Uint32(blob.Bytecode))
	assert.Equal(t, uint32(spirvMagic), blob.Words()[0])

	require.Len(t, blob.Inputs, 3)
	assert.Equal(t, []string{"position", "texcoord", "normal"},
		[]string{blob.Inputs[0].Name, blob.Inputs[1].Name, blob.Inputs[2].Name})

	cb, ok := blob.Binding(0, 0)
	require.True(t, ok)
	assert.Equal(t, BindingUniform, cb.Kind)
	assert.Equal(t, uint64(256), cb.Size)
}

func TestCompilePixelAsset(t *testing.T) {
	blob, err := Compile(filepath.Join(assetDir, "pixel.wgsl"), "psmain", StagePixel)
	require.NoError(t, err)

	assert.Empty(t, blob.Inputs)
	require.Len(t, blob.Bindings, 3)
	assert.Equal(t, BindingTexture, blob.Bindings[1].Kind)
	assert.Equal(t, BindingSampler, blob.Bindings[2].Kind)
}

func TestCompileWrongEntryPoint(t *testing.T) {
	_, err := Compile(filepath.Join(assetDir, "vertex.wgsl"), "psmain", StageVertex)
	assert.ErrorIs(t, err, ErrEntryPoint)

	_, err = Compile(filepath.Join(assetDir, "vertex.wgsl"), "vsmain", StagePixel)
	assert.ErrorIs(t, err, ErrEntryPoint)
}

func TestCompileMissingFile(t *testing.T) {
	_, err := Compile(filepath.Join(t.TempDir(), "missing.wgsl"), "vsmain", StageVertex)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompileSourceErrors(t *testing.T) {
	_, err := CompileSource("empty", "", "main", StageVertex)
	assert.ErrorIs(t, err, ErrEmptySource)

	broken := "@vertex\nfn main() -> @builtin(position) vec4<f32> { return undefined_symbol; }"
	_, err = CompileSource("broken", broken, "main", StageVertex)
	assert.ErrorIs(t, err, ErrCompile)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "vertex", StageVertex.String())
	assert.Equal(t, "pixel", StagePixel.String())
	assert.Equal(t, "stage(7)", Stage(7).String())
}
