// Package common contains plain value types and helpers shared by the engine packages.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when a decoded image has no pixels.
var ErrEmptyImage = errors.New("image has zero width or height")

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA8 pixel data, 4 bytes per pixel, rows top to bottom.
	Pixels []byte
	// Width is the texture width in pixels.
	Width uint32
	// Height is the texture height in pixels.
	Height uint32
}

// RowPitch returns the number of bytes in one row of pixels.
//
// Returns:
//   - uint32: Width * 4
func (t TextureStagingData) RowPitch() uint32 {
	return t.Width * 4
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to linear filtering with repeat addressing.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify addressing outside [0, 1] per dimension.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify magnification and minification filtering.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies mip level selection filtering.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp bound the sampled level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy caps anisotropic filtering.
	MaxAnisotropy uint16
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP data into RGBA8 staging data.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: reader positioned at the start of the encoded image
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - string: the format name reported by the decoder
//   - error: error if the data is not a registered image format
func DecodeImage(r io.Reader) (TextureStagingData, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, "", fmt.Errorf("failed to decode image: %w", err)
	}
	staging, err := StageImage(img)
	return staging, format, err
}

// DecodeImageFile opens and decodes an image file. See DecodeImage.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - error: error if the file cannot be read or decoded
func DecodeImageFile(path string) (TextureStagingData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	staging, _, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("%s: %w", path, err)
	}
	return staging, nil
}

// StageImage converts any image into tightly packed RGBA8 staging data.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - TextureStagingData: the converted pixels
//   - error: ErrEmptyImage if the image has no pixels
func StageImage(img image.Image) (TextureStagingData, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return TextureStagingData{}, ErrEmptyImage
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
