package loaders

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

/**
 * @brief A structure to hold image resource data.
 */
type ImageResourceData struct {
	/** @brief The number of channels. Always 4 (RGBA8). */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image, tightly packed rows. */
	Pixels []uint8
	/** @brief True if any pixel has alpha below 255. */
	HasTransparency bool
	/** @brief The container format, as a file extension. */
	Format string
}

var supportedImageFormats = map[string]bool{
	"png":  true,
	"jpg":  true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"webp": true,
}

// IsSupportedImage sniffs the container magic without decoding.
func IsSupportedImage(data []byte) (string, bool) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.Extension, supportedImageFormats[kind.Extension]
}

// DecodeImage decodes a texture container into RGBA8 pixels.
func DecodeImage(data []byte, flipY bool) (*ImageResourceData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	format, ok := IsSupportedImage(data)
	if !ok {
		return nil, fmt.Errorf("unsupported texture container `%s`", format)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	var rgba *image.RGBA
	if flipY {
		rgba = transform.FlipV(img)
	} else {
		rgba = clone.AsRGBA(img)
	}

	bounds := rgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", width, height)
	}

	pixels := make([]uint8, width*height*4)
	transparent := false
	for y := 0; y < height; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+width*4]
		copy(pixels[y*width*4:], row)
		for x := 3; x < len(row); x += 4 {
			if row[x] < 255 {
				transparent = true
			}
		}
	}

	return &ImageResourceData{
		ChannelCount:    4,
		Width:           uint32(width),
		Height:          uint32(height),
		Pixels:          pixels,
		HasTransparency: transparent,
		Format:          format,
	}, nil
}
