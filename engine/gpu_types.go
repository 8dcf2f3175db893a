package engine

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// ConstantsSize is the byte size of the per-frame uniform payload.
const ConstantsSize = 256

// Constants is the per-frame uniform payload shared by the vertex and pixel programs.
// Matches the WGSL Constants struct in assets/shaders exactly.
// Size: 256 bytes (WGSL uniform layout, padded to a multiple of 16).
type Constants struct {
	World          mgl32.Mat4 // offset   0: mesh-to-world transform
	View           mgl32.Mat4 // offset  64: inverse of the camera's world transform
	Projection     mgl32.Mat4 // offset 128: perspective projection
	LightDirection mgl32.Vec4 // offset 192: direction the light travels, w = 0
	CameraPosition mgl32.Vec4 // offset 208: world-space camera position, w = 1
	AmbientColor   mgl32.Vec3 // offset 224
	AmbientPower   float32    // offset 236
	Time           uint32     // offset 240: milliseconds since Init
	_pad           [3]uint32  // offset 244: padding to 256 bytes
}

// Size returns the size of the marshaled Constants payload in bytes.
//
// Returns:
//   - int: the payload size in bytes (256)
func (c *Constants) Size() int {
	return ConstantsSize
}

// Marshal serializes the payload into a byte buffer suitable for the constant buffer.
//
// Returns:
//   - []byte: the serialized 256-byte payload
func (c *Constants) Marshal() []byte {
	buf := make([]byte, ConstantsSize)
	c.MarshalTo(buf)
	return buf
}

// MarshalTo serializes the payload into an existing buffer so the per-frame update does not allocate.
//
// Parameters:
//   - buf: destination, at least ConstantsSize bytes
func (c *Constants) MarshalTo(buf []byte) {
	common.PutMat4(buf[0:], c.World)
	common.PutMat4(buf[64:], c.View)
	common.PutMat4(buf[128:], c.Projection)
	for i := range 4 {
		common.PutFloat32(buf[192+i*4:], c.LightDirection[i])
		common.PutFloat32(buf[208+i*4:], c.CameraPosition[i])
	}
	common.PutVec3(buf[224:], c.AmbientColor)
	common.PutFloat32(buf[236:], c.AmbientPower)
	binary.LittleEndian.PutUint32(buf[240:], c.Time)
	clear(buf[244:ConstantsSize])
}
