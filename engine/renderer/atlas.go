package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/core"
)

// SubTexture is a rectangular region of an atlas texture. UVs follow the
// unit quad corner order: bottom-left, top-left, top-right, bottom-right.
type SubTexture struct {
	Texture  *Texture
	Name     string
	Position [2]int32
	Size     [2]int32
	UVs      [4]mgl32.Vec2
}

// FullUVs covers a whole texture.
var FullUVs = [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

type TextureAtlas struct {
	texture *Texture
	regions map[string]SubTexture
}

func NewTextureAtlas(texture *Texture) *TextureAtlas {
	return &TextureAtlas{texture: texture, regions: make(map[string]SubTexture)}
}

// LoadTextureAtlas decodes an image file and wraps it in an atlas.
func LoadTextureAtlas(ctx *Context, path string) (*TextureAtlas, error) {
	tex, err := LoadTexture(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewTextureAtlas(tex), nil
}

func (a *TextureAtlas) Texture() *Texture {
	return a.texture
}

// Create registers a region. position is in pixels from the top-left of the
// source image.
func (a *TextureAtlas) Create(name string, position, size [2]int32) (SubTexture, error) {
	w, h := a.texture.Width(), a.texture.Height()
	if position[0] < 0 || position[1] < 0 || position[0]+size[0] > w || position[1]+size[1] > h {
		return SubTexture{}, fmt.Errorf("atlas region %q (%v %v) outside %dx%d: %w", name, position, size, w, h, core.ErrOutOfBounds)
	}
	sub := SubTexture{
		Texture:  a.texture,
		Name:     name,
		Position: position,
		Size:     size,
		UVs:      regionUVs(position, size, w, h),
	}
	a.regions[name] = sub
	return sub, nil
}

// Grid slices the atlas into cells of cellW x cellH named "<prefix><n>",
// counting left to right then top to bottom.
func (a *TextureAtlas) Grid(prefix string, cellW, cellH int32) ([]SubTexture, error) {
	if cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf("atlas grid cell %dx%d: %w", cellW, cellH, core.ErrOutOfBounds)
	}
	cols, rows := a.texture.Width()/cellW, a.texture.Height()/cellH
	out := make([]SubTexture, 0, cols*rows)
	for row := int32(0); row < rows; row++ {
		for col := int32(0); col < cols; col++ {
			sub, err := a.Create(fmt.Sprintf("%s%d", prefix, len(out)), [2]int32{col * cellW, row * cellH}, [2]int32{cellW, cellH})
			if err != nil {
				return nil, err
			}
			out = append(out, sub)
		}
	}
	return out, nil
}

func (a *TextureAtlas) Get(name string) (SubTexture, bool) {
	sub, ok := a.regions[name]
	return sub, ok
}

func regionUVs(position, size [2]int32, width, height int32) [4]mgl32.Vec2 {
	px := 1 / float32(width)
	py := 1 / float32(height)
	x0 := float32(position[0]) * px
	x1 := float32(position[0]+size[0]) * px
	top := 1 - float32(position[1])*py
	bottom := 1 - float32(position[1]+size[1])*py
	return [4]mgl32.Vec2{{x0, bottom}, {x0, top}, {x1, top}, {x1, bottom}}
}
