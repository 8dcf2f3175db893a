package engine

import "github.com/GhostlyActive/Ghost-Engine-3D/common"

// checkerTexture builds a two-tone RGBA8 checkerboard, bound when no texture file is configured.
//
// Parameters:
//   - size: the edge length in pixels
//   - cell: the edge length of one square in pixels
//
// Returns:
//   - common.TextureStagingData: the pixels
func checkerTexture(size, cell uint32) common.TextureStagingData {
	cell = max(cell, 1)
	pixels := make([]byte, size*size*4)
	for y := range size {
		for x := range size {
			v := byte(0x40)
			if (x/cell+y/cell)%2 == 0 {
				v = 0xd0
			}
			i := (y*size + x) * 4
			pixels[i+0] = v
			pixels[i+1] = v
			pixels[i+2] = v
			pixels[i+3] = 0xff
		}
	}
	return common.TextureStagingData{Pixels: pixels, Width: size, Height: size}
}
