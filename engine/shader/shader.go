// Package shader compiles WGSL programs to SPIR-V bytecode and reflects the
// vertex inputs and resource bindings the graphics layer needs to bind them.
package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// Stage identifies the pipeline stage a program is compiled for.
type Stage int

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota
	// StagePixel is the fragment (pixel) stage.
	StagePixel
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Visibility returns the wgpu shader stage flag for s.
//
// Returns:
//   - wgpu.ShaderStage: ShaderStageVertex or ShaderStageFragment
func (s Stage) Visibility() wgpu.ShaderStage {
	if s == StageVertex {
		return wgpu.ShaderStageVertex
	}
	return wgpu.ShaderStageFragment
}

var (
	// ErrEntryPoint is returned when the requested entry point is not declared for the stage.
	ErrEntryPoint = errors.New("shader entry point not found")
	// ErrCompile is returned when the WGSL source fails to compile.
	ErrCompile = errors.New("shader compilation failed")
	// ErrEmptySource is returned for empty WGSL source.
	ErrEmptySource = errors.New("shader source is empty")
)

// BindingKind classifies a resource binding declared by a program.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingTexture
	BindingSampler
	BindingStorageTexture
)

// VertexInput is one @location input consumed by a vertex entry point.
type VertexInput struct {
	Name     string
	Location uint32
	Format   wgpu.VertexFormat
	Size     uint64
}

// Binding is one @group/@binding resource declared by a program.
type Binding struct {
	Group    uint32
	Binding  uint32
	Name     string
	TypeName string
	Kind     BindingKind
	// Size is the WGSL layout size of a buffer binding's type, 0 for handles.
	Size uint64
	// Layout is the bind group layout entry for the binding with this program's visibility.
	Layout wgpu.BindGroupLayoutEntry
}

// Blob is a compiled program: the SPIR-V bytecode plus the reflection data
// gathered from its WGSL source.
type Blob struct {
	Label      string
	Stage      Stage
	EntryPoint string
	Source     string
	Bytecode   []byte
	Inputs     []VertexInput
	Bindings   []Binding
}

// Size returns the bytecode size in bytes.
func (b *Blob) Size() int {
	return len(b.Bytecode)
}

// Words returns the bytecode as little-endian 32-bit SPIR-V words.
//
// Returns:
//   - []uint32: the SPIR-V words
func (b *Blob) Words() []uint32 {
	words := make([]uint32, len(b.Bytecode)/4)
	for i := range words {
		words[i] = uint32(b.Bytecode[i*4]) |
			uint32(b.Bytecode[i*4+1])<<8 |
			uint32(b.Bytecode[i*4+2])<<16 |
			uint32(b.Bytecode[i*4+3])<<24
	}
	return words
}

// Binding looks up the binding declared at group and binding.
//
// Parameters:
//   - group: the @group index
//   - binding: the @binding index
//
// Returns:
//   - Binding: the declared binding
//   - bool: false if the program declares nothing there
func (b *Blob) Binding(group, binding uint32) (Binding, bool) {
	for _, bd := range b.Bindings {
		if bd.Group == group && bd.Binding == binding {
			return bd, true
		}
	}
	return Binding{}, false
}

// Compile reads a WGSL file, expands its @ghost: annotations and compiles the given entry point for stage.
//
// Parameters:
//   - path: the WGSL file path
//   - entryPoint: the entry point function name
//   - stage: the pipeline stage to compile for
//
// Returns:
//   - *Blob: the compiled program
//   - error: I/O error, ErrAnnotation, ErrEntryPoint, or ErrCompile
func Compile(path, entryPoint string, stage Stage) (*Blob, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader %s: %w", path, err)
	}
	expanded, err := NewPreProcessor(filepath.Dir(path)).Process(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return CompileSource(path, expanded, entryPoint, stage)
}

// CompileSource compiles WGSL source held in memory. See Compile.
//
// Parameters:
//   - label: a name for diagnostics, usually the file path
//   - source: the WGSL source
//   - entryPoint: the entry point function name
//   - stage: the pipeline stage to compile for
//
// Returns:
//   - *Blob: the compiled program
//   - error: ErrEmptySource, ErrEntryPoint, or ErrCompile
func CompileSource(label, source, entryPoint string, stage Stage) (*Blob, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("%s: %w", label, ErrEmptySource)
	}

	cleaned := stripComments(source)
	if !hasEntryPoint(cleaned, entryPoint, stage) {
		return nil, fmt.Errorf("%s: %s entry point %q: %w", label, stage, entryPoint, ErrEntryPoint)
	}

	bytecode, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", label, ErrCompile, err)
	}

	blob := &Blob{
		Label:      label,
		Stage:      stage,
		EntryPoint: entryPoint,
		Source:     source,
		Bytecode:   bytecode,
		Bindings:   parseBindings(cleaned, stage.Visibility()),
	}
	if stage == StageVertex {
		inputs, err := parseVertexInputs(cleaned, entryPoint)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		blob.Inputs = inputs
	}

	common.Logger().Debug("shader compiled",
		"label", label, "stage", stage.String(), "entry", entryPoint,
		"bytes", blob.Size(), "inputs", len(blob.Inputs), "bindings", len(blob.Bindings))

	return blob, nil
}
