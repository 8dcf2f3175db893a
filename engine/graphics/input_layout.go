package graphics

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// VertexAttribute maps a byte offset inside one vertex record to a shader input location.
type VertexAttribute struct {
	Semantic string
	Format   wgpu.VertexFormat
	Offset   uint64
	Location uint32
}

// VertexSchema is a fixed attribute layout for vertex records.
type VertexSchema struct {
	Name       string
	Attributes []VertexAttribute
}

// SchemaPositionTexNormal is the mesh vertex record: position, texture coordinate, normal (32 bytes).
var SchemaPositionTexNormal = VertexSchema{
	Name: "position_tex_normal",
	Attributes: []VertexAttribute{
		{Semantic: "POSITION", Format: wgpu.VertexFormatFloat32x3, Offset: 0, Location: 0},
		{Semantic: "TEXCOORD", Format: wgpu.VertexFormatFloat32x2, Offset: 12, Location: 1},
		{Semantic: "NORMAL", Format: wgpu.VertexFormatFloat32x3, Offset: 20, Location: 2},
	},
}

// SchemaPositionColor is the colored vertex record: position and two colors (36 bytes).
var SchemaPositionColor = VertexSchema{
	Name: "position_color",
	Attributes: []VertexAttribute{
		{Semantic: "POSITION", Format: wgpu.VertexFormatFloat32x3, Offset: 0, Location: 0},
		{Semantic: "COLOR", Format: wgpu.VertexFormatFloat32x3, Offset: 12, Location: 1},
		{Semantic: "COLOR1", Format: wgpu.VertexFormatFloat32x3, Offset: 24, Location: 2},
	},
}

// Stride returns the packed record size implied by the schema.
//
// Returns:
//   - uint64: end offset of the furthest attribute
func (s VertexSchema) Stride() uint64 {
	var end uint64
	for _, a := range s.Attributes {
		end = max(end, a.Offset+vertexFormatSize(a.Format))
	}
	return end
}

// inputLayout is a schema resolved against one vertex program's inputs.
type inputLayout struct {
	key    string
	layout wgpu.VertexBufferLayout
}

// buildInputLayout derives the vertex buffer layout from the schema and the
// inputs the vertex program declares. Every program input must be served by a
// schema attribute at the same location with the same format. Schema attributes
// the program does not read are left out of the layout.
//
// Parameters:
//   - schema: the fixed attribute schema of the vertex records
//   - stride: the byte size of one vertex record
//   - inputs: the program's @location inputs
//
// Returns:
//   - *inputLayout: the resolved layout
//   - error: ErrLayoutMismatch if the schema and program disagree
func buildInputLayout(schema VertexSchema, stride uint32, inputs []shader.VertexInput) (*inputLayout, error) {
	if uint64(stride) < schema.Stride() {
		return nil, fmt.Errorf("%w: stride %d is smaller than schema %s (%d bytes)",
			ErrLayoutMismatch, stride, schema.Name, schema.Stride())
	}

	attrs := make([]wgpu.VertexAttribute, 0, len(inputs))
	var key strings.Builder
	fmt.Fprintf(&key, "%s/%d", schema.Name, stride)

	for _, in := range inputs {
		attr, ok := schemaAttribute(schema, in.Location)
		if !ok {
			return nil, fmt.Errorf("%w: input %s at location %d has no %s attribute",
				ErrLayoutMismatch, in.Name, in.Location, schema.Name)
		}
		if attr.Format != in.Format {
			return nil, fmt.Errorf("%w: input %s expects format %v, %s provides %v",
				ErrLayoutMismatch, in.Name, in.Format, attr.Semantic, attr.Format)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         attr.Format,
			Offset:         attr.Offset,
			ShaderLocation: attr.Location,
		})
		fmt.Fprintf(&key, "/%d", attr.Location)
	}

	return &inputLayout{
		key: key.String(),
		layout: wgpu.VertexBufferLayout{
			ArrayStride: uint64(stride),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		},
	}, nil
}

// inputSignature identifies a program's vertex inputs by location and format.
func inputSignature(inputs []shader.VertexInput) string {
	var sig strings.Builder
	for _, in := range inputs {
		fmt.Fprintf(&sig, "%d:%d;", in.Location, in.Format)
	}
	return sig.String()
}

func schemaAttribute(schema VertexSchema, location uint32) (VertexAttribute, bool) {
	for _, a := range schema.Attributes {
		if a.Location == location {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// vertexFormatSize returns the byte size of a vertex format, 0 if unknown.
func vertexFormatSize(f wgpu.VertexFormat) uint64 {
	switch f {
	case wgpu.VertexFormatFloat32, wgpu.VertexFormatUint32, wgpu.VertexFormatSint32:
		return 4
	case wgpu.VertexFormatFloat32x2, wgpu.VertexFormatUint32x2, wgpu.VertexFormatSint32x2:
		return 8
	case wgpu.VertexFormatFloat32x3, wgpu.VertexFormatUint32x3, wgpu.VertexFormatSint32x3:
		return 12
	case wgpu.VertexFormatFloat32x4, wgpu.VertexFormatUint32x4, wgpu.VertexFormatSint32x4:
		return 16
	default:
		return 0
	}
}
