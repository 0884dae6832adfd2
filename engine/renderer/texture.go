package renderer

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	// decoders registered for LoadTexture
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// TextureSpec fixes the storage format of a texture. Resize keeps it.
type TextureSpec struct {
	Width    int32
	Height   int32
	Internal gpu.PixelFormat
	Format   gpu.PixelFormat
	Type     gpu.PixelType
	Filter   gpu.TextureFilter
	Wrap     gpu.TextureWrap
}

// DefaultTextureSpec is an RGBA8 texture with nearest filtering and repeat wrap.
func DefaultTextureSpec(width, height int32) TextureSpec {
	return TextureSpec{
		Width:    width,
		Height:   height,
		Internal: gpu.RGBA8,
		Format:   gpu.RGBA,
		Type:     gpu.UnsignedBytePixel,
		Filter:   gpu.Nearest,
		Wrap:     gpu.Repeat,
	}
}

type Texture struct {
	Object
	spec TextureSpec
}

// NewTexture allocates storage for spec and uploads pixels when they are
// not nil. pixels must hold Width*Height pixels in spec.Format/spec.Type.
func NewTexture(ctx *Context, spec TextureSpec, pixels []byte, label string) (*Texture, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("texture %q size %dx%d: %w", label, spec.Width, spec.Height, core.ErrOutOfBounds)
	}
	if want := int(spec.Width) * int(spec.Height) * gpu.PixelSize(spec.Format, spec.Type); pixels != nil && len(pixels) != want {
		return nil, fmt.Errorf("texture %q: %d bytes of pixel data, want %d: %w", label, len(pixels), want, core.ErrOutOfBounds)
	}
	dev := ctx.device
	t := &Texture{spec: spec}
	t.init(ctx, gpu.ObjectTexture, dev.CreateTexture(), t, label)
	dev.ActiveTexture(0)
	dev.BindTexture(t.id)
	dev.TexParameters(spec.Filter, spec.Wrap)
	dev.TexImage2D(spec.Internal, spec.Width, spec.Height, spec.Format, spec.Type, pixels)
	dev.BindTexture(0)
	return t, nil
}

// NewTextureFromImage uploads img as RGBA8. Rows are flipped so that
// v=0 is the bottom of the image.
func NewTextureFromImage(ctx *Context, img image.Image, label string) (*Texture, error) {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	flipRows(rgba.Pix, rgba.Stride, b.Dy())
	return NewTexture(ctx, DefaultTextureSpec(int32(b.Dx()), int32(b.Dy())), rgba.Pix, label)
}

// LoadTexture decodes an image file (png, jpeg, gif, bmp, tiff, webp) into a
// texture labelled with its path.
func LoadTexture(ctx *Context, path string) (*Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	core.LogDebug("loaded %s image %s (%dx%d)", format, path, img.Bounds().Dx(), img.Bounds().Dy())
	return NewTextureFromImage(ctx, img, path)
}

func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		z := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, z)
		copy(z, tmp)
	}
}

func (t *Texture) Spec() TextureSpec {
	return t.spec
}

func (t *Texture) Width() int32 {
	return t.spec.Width
}

func (t *Texture) Height() int32 {
	return t.spec.Height
}

// Bind binds the texture to a texture unit.
func (t *Texture) Bind(unit uint32) {
	if err := t.check(); err != nil {
		core.LogError("bind: %s", err)
		return
	}
	t.ctx.device.ActiveTexture(unit)
	t.ctx.device.BindTexture(t.id)
}

// Resize reallocates storage in place: same handle, same format, new size.
// The previous contents are discarded.
func (t *Texture) Resize(width, height int32) error {
	if err := t.check(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("texture %q resize to %dx%d: %w", t.label, width, height, core.ErrOutOfBounds)
	}
	t.spec.Width, t.spec.Height = width, height
	dev := t.ctx.device
	dev.ActiveTexture(0)
	dev.BindTexture(t.id)
	dev.TexImage2D(t.spec.Internal, width, height, t.spec.Format, t.spec.Type, nil)
	dev.BindTexture(0)
	return nil
}

func (t *Texture) Destroy() error {
	if err := t.release(); err != nil {
		return err
	}
	t.ctx.device.DeleteTexture(t.id)
	return nil
}
