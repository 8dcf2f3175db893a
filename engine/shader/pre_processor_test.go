package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWGSL(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestProcessInjectsIncludes(t *testing.T) {
	dir := t.TempDir()
	writeWGSL(t, dir, "lib/types.wgsl", "struct A { x: f32, }")
	writeWGSL(t, dir, "common.wgsl", "//@ghost:include lib/types.wgsl\nstruct B { a: A, }")

	p := NewPreProcessor(dir)
	out, err := p.Process("  // @ghost:include common.wgsl\nfn main() {}")
	require.NoError(t, err)
	assert.Equal(t, "struct A { x: f32, }\nstruct B { a: A, }\nfn main() {}", out)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(abs, "common.wgsl"),
		filepath.Join(abs, "lib", "types.wgsl"),
	}, p.Includes())
}

func TestProcessLeavesPlainSourceAlone(t *testing.T) {
	src := "// a comment\n@vertex fn main() {}\n// @other:thing"
	out, err := NewPreProcessor(t.TempDir()).Process(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestProcessErrors(t *testing.T) {
	dir := t.TempDir()
	writeWGSL(t, dir, "a.wgsl", "//@ghost:include b.wgsl")
	writeWGSL(t, dir, "b.wgsl", "//@ghost:include a.wgsl")

	tests := []struct {
		name   string
		source string
	}{
		{"missing type", "//@ghost:"},
		{"unknown type", "//@ghost:define X 1"},
		{"include without file", "//@ghost:include"},
		{"include with two files", "//@ghost:include a.wgsl b.wgsl"},
		{"cycle", "//@ghost:include a.wgsl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor(dir).Process(tt.source)
			assert.ErrorIs(t, err, ErrAnnotation)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewPreProcessor(dir).Process("//@ghost:include nope.wgsl")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestCompileExpandsIncludes(t *testing.T) {
	blob, err := Compile(filepath.Join(assetDir, "pixel.wgsl"), "psmain", StagePixel)
	require.NoError(t, err)
	assert.Contains(t, blob.Source, "struct Constants")
	assert.NotContains(t, blob.Source, annotationPrefix)
}
