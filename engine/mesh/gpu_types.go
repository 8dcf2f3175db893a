package mesh

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// VertexSize is the byte size of one packed Vertex record.
const VertexSize = 32

// Vertex is the GPU layout of one mesh vertex. It matches graphics.SchemaPositionTexNormal:
// position at offset 0, texture coordinate at 12, normal at 20.
type Vertex struct {
	Position [3]float32 // offset  0 (12 bytes)
	TexCoord [2]float32 // offset 12 (8 bytes)
	Normal   [3]float32 // offset 20 (12 bytes)
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the vertex into a 32-byte little-endian record.
//
// Returns:
//   - []byte: the packed record
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	v.put(buf)
	return buf
}

func (v *Vertex) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Normal[0]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.Normal[1]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(v.Normal[2]))
}

// MarshalVertices packs a vertex list into one contiguous buffer.
//
// Parameters:
//   - vertices: the vertex list
//
// Returns:
//   - []byte: len(vertices)*VertexSize bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexSize)
	for i := range vertices {
		vertices[i].put(buf[i*VertexSize:])
	}
	return buf
}
