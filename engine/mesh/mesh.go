// Package mesh decodes Wavefront OBJ models into flat vertex/index lists and
// uploads them as a vertex and index buffer pair.
package mesh

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/g3n/engine/loader/obj"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/graphics"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

var (
	// ErrMalformed is returned when a face references a position, texcoord or normal that does not exist.
	ErrMalformed = errors.New("malformed mesh data")
	// ErrEmpty is returned when a model decodes to no triangles.
	ErrEmpty = errors.New("mesh has no triangles")
)

// Data is a decoded model: one vertex per face corner and the sequential index list 0..n-1.
type Data struct {
	Vertices []Vertex
	Indices  []uint32
}

// Mesh is a decoded model resident in GPU memory.
type Mesh interface {
	// VertexBuffer returns the mesh's vertex buffer.
	VertexBuffer() graphics.VertexBuffer

	// IndexBuffer returns the mesh's index buffer.
	IndexBuffer() graphics.IndexBuffer

	// IndexCount returns the number of indices to draw.
	IndexCount() uint32

	// Release frees both buffers. Calling it more than once is a no-op.
	Release()
}

type mesh struct {
	vb graphics.VertexBuffer
	ib graphics.IndexBuffer
}

var _ Mesh = &mesh{}

// Decode parses OBJ data. Polygons are fan-triangulated and every face corner becomes its own vertex.
//
// Parameters:
//   - r: reader positioned at the start of the OBJ text
//
// Returns:
//   - Data: the vertex and index lists
//   - error: parse error, ErrMalformed, or ErrEmpty
func Decode(r io.Reader) (Data, error) {
	dec, err := obj.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return Data{}, fmt.Errorf("failed to parse obj: %w", err)
	}

	var out Data
	for _, o := range dec.Objects {
		for fi, face := range o.Faces {
			if err := checkAttributes(face); err != nil {
				return Data{}, fmt.Errorf("object %q face %d: %w", o.Name, fi, err)
			}
			// Fan triangulation: (0, i-1, i) for every i >= 2.
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range [3]int{0, i - 1, i} {
					v, err := faceVertex(dec, face, corner)
					if err != nil {
						return Data{}, fmt.Errorf("object %q face %d: %w", o.Name, fi, err)
					}
					out.Indices = append(out.Indices, uint32(len(out.Vertices)))
					out.Vertices = append(out.Vertices, v)
				}
			}
		}
	}

	if len(out.Vertices) == 0 {
		return Data{}, ErrEmpty
	}
	return out, nil
}

// DecodeFile opens and decodes an OBJ file. See Decode.
//
// Parameters:
//   - path: the OBJ file path
//
// Returns:
//   - Data: the vertex and index lists
//   - error: I/O error, parse error, ErrMalformed, or ErrEmpty
func DecodeFile(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, fmt.Errorf("failed to open mesh file %s: %w", path, err)
	}
	defer f.Close()

	data, err := Decode(f)
	if err != nil {
		return Data{}, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Load decodes an OBJ file and uploads it as one vertex buffer and one index buffer.
//
// Parameters:
//   - dev: the device that creates the buffers
//   - path: the OBJ file path
//   - vs: the vertex program the mesh will be drawn with; used to resolve the input layout
//
// Returns:
//   - Mesh: the GPU mesh
//   - error: decode or buffer creation error
func Load(dev graphics.Device, path string, vs *shader.Blob) (Mesh, error) {
	data, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Upload(dev, data, vs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	common.Logger().Debug("mesh loaded", "path", path, "vertices", len(data.Vertices))
	return m, nil
}

// Upload creates the GPU buffers for decoded mesh data.
//
// Parameters:
//   - dev: the device that creates the buffers
//   - data: decoded vertex and index lists
//   - vs: the vertex program the mesh will be drawn with
//
// Returns:
//   - Mesh: the GPU mesh
//   - error: ErrEmpty or buffer creation error
func Upload(dev graphics.Device, data Data, vs *shader.Blob) (Mesh, error) {
	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, ErrEmpty
	}

	vb, err := dev.CreateVertexBuffer(MarshalVertices(data.Vertices), VertexSize, uint32(len(data.Vertices)),
		graphics.SchemaPositionTexNormal, vs)
	if err != nil {
		return nil, err
	}
	ib, err := dev.CreateIndexBuffer(data.Indices)
	if err != nil {
		vb.Release()
		return nil, err
	}
	return &mesh{vb: vb, ib: ib}, nil
}

func (m *mesh) VertexBuffer() graphics.VertexBuffer {
	return m.vb
}

func (m *mesh) IndexBuffer() graphics.IndexBuffer {
	return m.ib
}

func (m *mesh) IndexCount() uint32 {
	return m.ib.Count()
}

func (m *mesh) Release() {
	m.ib.Release()
	m.vb.Release()
}

// faceVertex builds the vertex for one corner of a face.
func faceVertex(dec *obj.Decoder, face obj.Face, corner int) (Vertex, error) {
	var v Vertex

	pos := face.Vertices[corner]
	if pos < 0 || (pos+1)*3 > len(dec.Vertices) {
		return v, fmt.Errorf("%w: position %d of %d", ErrMalformed, pos, len(dec.Vertices)/3)
	}
	v.Position = [3]float32{dec.Vertices[pos*3], dec.Vertices[pos*3+1], dec.Vertices[pos*3+2]}

	if uv, ok := reference(face.Uvs, corner); ok {
		if uv < 0 || (uv+1)*2 > len(dec.Uvs) {
			return v, fmt.Errorf("%w: texcoord %d of %d", ErrMalformed, uv, len(dec.Uvs)/2)
		}
		v.TexCoord = [2]float32{dec.Uvs[uv*2], dec.Uvs[uv*2+1]}
	}

	if n, ok := reference(face.Normals, corner); ok {
		if n < 0 || (n+1)*3 > len(dec.Normals) {
			return v, fmt.Errorf("%w: normal %d of %d", ErrMalformed, n, len(dec.Normals)/3)
		}
		v.Normal = [3]float32{dec.Normals[n*3], dec.Normals[n*3+1], dec.Normals[n*3+2]}
	}
	return v, nil
}

// checkAttributes requires texcoords and normals to be given on every corner of a face or on none.
func checkAttributes(face obj.Face) error {
	for _, attr := range []struct {
		name    string
		indices []int
	}{
		{"texcoord", face.Uvs},
		{"normal", face.Normals},
	} {
		given := 0
		for corner := range face.Vertices {
			if _, ok := reference(attr.indices, corner); ok {
				given++
			}
		}
		if given != 0 && given != len(face.Vertices) {
			return fmt.Errorf("%w: %s on %d of %d corners", ErrMalformed, attr.name, given, len(face.Vertices))
		}
	}
	return nil
}

// reference returns the attribute index of a face corner. The decoder marks an
// omitted texcoord or normal with an out-of-range sentinel.
func reference(indices []int, corner int) (int, bool) {
	if corner >= len(indices) {
		return 0, false
	}
	idx := indices[corner]
	if idx >= math.MaxUint32 {
		return 0, false
	}
	return idx, true
}
