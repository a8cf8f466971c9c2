package loaders

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// TextureLoader reads a texture container without decoding it. Decoding
// happens in the backend when the texture is imported.
type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format, ok := IsSupportedImage(data); !ok {
		return nil, fmt.Errorf("%s: unsupported texture container `%s`", path, format)
	}

	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (tl *TextureLoader) Unload(*metadata.Resource) error {
	return nil
}

// SolidTexture encodes a 1x1 PNG of the given colour. Untextured meshes are
// registered with a white one so that modulation leaves the lit colour unchanged.
func SolidTexture(c color.RGBA) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)

	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WhiteTexture is SolidTexture(white); it panics only if PNG encoding of an
// in-memory image fails.
func WhiteTexture() []byte {
	data, err := SolidTexture(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if err != nil {
		panic(err)
	}
	return data
}

// CheckerTexture encodes a size x size PNG split into cells x cells squares
// alternating between a and b.
func CheckerTexture(size, cells int, a, b color.RGBA) ([]byte, error) {
	if size <= 0 || cells <= 0 || cells > size {
		return nil, fmt.Errorf("invalid checker texture %dpx with %d cells", size, cells)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := size / cells
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}

	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
