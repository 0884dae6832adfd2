package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// RasterizeText renders a single line of text with an OpenType face into a
// tightly sized RGBA image. A nil ttf uses Go Regular.
func RasterizeText(ttf []byte, text string, size float64, c color.Color) (*image.RGBA, error) {
	if ttf == nil {
		ttf = goregular.TTF
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	metrics := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	img := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(text)
	return img, nil
}

// NewTextTexture rasterizes text and uploads it as a texture.
func NewTextTexture(ctx *Context, text string, size float64, c color.Color) (*Texture, error) {
	img, err := RasterizeText(nil, text, size, c)
	if err != nil {
		return nil, err
	}
	return NewTextureFromImage(ctx, img, "text."+text)
}
