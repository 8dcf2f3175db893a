package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the source data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// PerspectiveLH builds a left-handed perspective projection with clip depth in [0, 1].
// +Z points into the screen, matching the camera's forward axis.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clip distance
//   - far: far clip distance
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func PerspectiveLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	yScale := float32(1 / math.Tan(float64(fovY)/2))
	xScale := yScale / aspect
	depth := far / (far - near)

	var m mgl32.Mat4
	m[0] = xScale
	m[5] = yScale
	m[10] = depth
	m[11] = 1
	m[14] = -near * depth
	return m
}

// PutMat4 writes a matrix into buf as 16 little-endian float32 values in column-major order.
//
// Parameters:
//   - buf: destination, at least 64 bytes
//   - m: the matrix to write
func PutMat4(buf []byte, m mgl32.Mat4) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(m[i]))
	}
}

// PutVec3 writes three little-endian float32 values into buf.
//
// Parameters:
//   - buf: destination, at least 12 bytes
//   - v: the vector to write
func PutVec3(buf []byte, v mgl32.Vec3) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}

// PutFloat32 writes one little-endian float32 into buf.
//
// Parameters:
//   - buf: destination, at least 4 bytes
//   - f: the value to write
func PutFloat32(buf []byte, f float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
}
