package batch

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/math"
	"github.com/spaghettifunk/ember/engine/renderer"
)

// TextureSlots is the size of the sampler array in the shape shader.
const TextureSlots = 8

// NoTexture is the TextureID of untextured vertices.
const NoTexture float32 = -1

type ShapeVertex struct {
	Position  mgl32.Vec4
	Color     mgl32.Vec4
	UV        mgl32.Vec2
	TextureID float32
}

var (
	quadCorners = [4]mgl32.Vec4{
		{-0.5, -0.5, 0, 1},
		{-0.5, 0.5, 0, 1},
		{0.5, 0.5, 0, 1},
		{0.5, -0.5, 0, 1},
	}
	textureUnits = [TextureSlots]int32{0, 1, 2, 3, 4, 5, 6, 7}
)

func ShapeLayout() *renderer.VertexLayout {
	l := renderer.NewVertexLayout()
	renderer.PushAttribute[mgl32.Vec4](l, 1, false)
	renderer.PushAttribute[mgl32.Vec4](l, 1, false)
	renderer.PushAttribute[mgl32.Vec2](l, 1, false)
	renderer.PushAttribute[float32](l, 1, false)
	return l
}

// ShapeBatch draws coloured and textured quads. Up to TextureSlots
// distinct textures share one draw; the next one forces a flush.
type ShapeBatch struct {
	*Batch[ShapeVertex]
	textures    [TextureSlots]*renderer.Texture
	nextTexture int
}

func NewShapeBatch(ctx *renderer.Context, cfg Config) *ShapeBatch {
	sb := &ShapeBatch{}
	sb.Batch = New[ShapeVertex](ctx, cfg, renderer.ShapeShaderName, renderer.ShapeShaderSource, ShapeLayout(), Hooks{
		BindShaderData: sb.bindShaderData,
		BindResources:  sb.bindResources,
		Reset:          sb.resetTextures,
	})
	return sb
}

// DrawBox draws a unit quad scaled, rotated by rotation degrees and moved
// to position at depth layer.
func (sb *ShapeBatch) DrawBox(position mgl32.Vec2, color mgl32.Vec4, rotation, layer float32, scale mgl32.Vec2) error {
	return sb.DrawTextured(math.Compose2D(position, rotation, layer, scale), color, nil, renderer.FullUVs)
}

// DrawBoxAt draws an unscaled, unrotated unit quad centred on position.
func (sb *ShapeBatch) DrawBoxAt(position mgl32.Vec2, color mgl32.Vec4) error {
	if err := sb.VerifySpace(4, 6); err != nil {
		return err
	}
	offset := mgl32.Vec4{position.X(), position.Y(), 0, 0}
	verts := sb.writeQuad()
	for i := range verts {
		verts[i] = ShapeVertex{
			Position:  quadCorners[i].Add(offset),
			Color:     color,
			UV:        renderer.FullUVs[i],
			TextureID: NoTexture,
		}
	}
	sb.IncrementCounts(4, 6)
	return nil
}

func (sb *ShapeBatch) DrawQuad(transform mgl32.Mat4, color mgl32.Vec4) error {
	return sb.DrawTextured(transform, color, nil, renderer.FullUVs)
}

// DrawTransform draws the unit quad through a scene transform.
func (sb *ShapeBatch) DrawTransform(t *math.Transform, color mgl32.Vec4) error {
	return sb.DrawTextured(t.GetWorld(), color, nil, renderer.FullUVs)
}

// DrawTextured draws a transformed unit quad sampling tex at uvs, tinted by
// tint. A nil tex draws plain colour.
func (sb *ShapeBatch) DrawTextured(transform mgl32.Mat4, tint mgl32.Vec4, tex *renderer.Texture, uvs [4]mgl32.Vec2) error {
	if err := sb.VerifySpace(4, 6); err != nil {
		return err
	}
	slot, err := sb.textureSlot(tex)
	if err != nil {
		return err
	}
	verts := sb.writeQuad()
	for i := range verts {
		verts[i] = ShapeVertex{
			Position:  transform.Mul4x1(quadCorners[i]),
			Color:     tint,
			UV:        uvs[i],
			TextureID: slot,
		}
	}
	sb.IncrementCounts(4, 6)
	return nil
}

func (sb *ShapeBatch) DrawSubTexture(sub renderer.SubTexture, position mgl32.Vec2, tint mgl32.Vec4, rotation, layer float32, scale mgl32.Vec2) error {
	return sb.DrawTextured(math.Compose2D(position, rotation, layer, scale), tint, sub.Texture, sub.UVs)
}

// DrawText lays out text with a bitmap font. position is the top-left of
// the first line and scale converts font pixels to world units.
func (sb *ShapeBatch) DrawText(font *renderer.BitmapFont, text string, position mgl32.Vec2, scale float32, color mgl32.Vec4) error {
	pen := position
	prev := rune(-1)
	for _, r := range text {
		if r == '\n' {
			pen = mgl32.Vec2{position.X(), pen.Y() - font.LineHeight*scale}
			prev = -1
			continue
		}
		g, ok := font.Glyph(r)
		if !ok {
			continue
		}
		pen[0] += font.Kerning(prev, r) * scale
		prev = r
		if g.Sub.Size[0] > 0 && g.Sub.Size[1] > 0 {
			w := float32(g.Sub.Size[0]) * scale
			h := float32(g.Sub.Size[1]) * scale
			center := mgl32.Vec2{
				pen.X() + g.XOffset*scale + w/2,
				pen.Y() - g.YOffset*scale - h/2,
			}
			if err := sb.DrawSubTexture(g.Sub, center, color, 0, 0, mgl32.Vec2{w, h}); err != nil {
				return err
			}
		}
		pen[0] += g.XAdvance * scale
	}
	return nil
}

// textureSlot returns the slot holding tex, assigning the next free one.
// With every slot taken the batch is flushed first, which empties the table.
func (sb *ShapeBatch) textureSlot(tex *renderer.Texture) (float32, error) {
	if tex == nil {
		return NoTexture, nil
	}
	for i := 0; i < sb.nextTexture; i++ {
		if sb.textures[i] == tex {
			return float32(i), nil
		}
	}
	if sb.nextTexture >= TextureSlots {
		if err := sb.Flush(); err != nil {
			return NoTexture, err
		}
	}
	sb.textures[sb.nextTexture] = tex
	sb.nextTexture++
	return float32(sb.nextTexture - 1), nil
}

// TexturesInUse is the number of occupied texture slots.
func (sb *ShapeBatch) TexturesInUse() int {
	return sb.nextTexture
}

func (sb *ShapeBatch) bindShaderData(shader *renderer.Shader) error {
	return shader.SetUniformArray("uTextures", textureUnits[:])
}

func (sb *ShapeBatch) bindResources() error {
	for i := 0; i < sb.nextTexture; i++ {
		sb.textures[i].Bind(uint32(i))
	}
	return nil
}

func (sb *ShapeBatch) resetTextures() {
	clear(sb.textures[:])
	sb.nextTexture = 0
}
