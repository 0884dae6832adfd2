package renderer

import (
	"fmt"
	"path/filepath"

	"github.com/fzipp/bmfont"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/core"
)

type Glyph struct {
	Codepoint rune
	Sub       SubTexture
	XOffset   float32
	YOffset   float32
	XAdvance  float32
	Page      int
}

type kerningPair struct {
	first, second rune
}

// BitmapFont is an AngelCode font whose pages are uploaded as textures.
// Metrics are in source pixels.
type BitmapFont struct {
	Face       string
	Size       int32
	LineHeight float32
	Baseline   float32

	pages    map[int]*Texture
	glyphs   map[rune]Glyph
	kernings map[kerningPair]float32
}

// LoadBitmapFont reads a .fnt descriptor and uploads every page image it
// references. Page files are resolved relative to the descriptor.
func LoadBitmapFont(ctx *Context, path string) (*BitmapFont, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("bitmap font %s: %w", path, err)
	}
	desc := font.Descriptor

	bf := &BitmapFont{
		Face:       desc.Info.Face,
		Size:       int32(desc.Info.Size),
		LineHeight: float32(desc.Common.LineHeight),
		Baseline:   float32(desc.Common.Base),
		pages:      make(map[int]*Texture, len(desc.Pages)),
		glyphs:     make(map[rune]Glyph, len(desc.Chars)),
		kernings:   make(map[kerningPair]float32, len(desc.Kerning)),
	}

	dir := filepath.Dir(path)
	for _, p := range desc.Pages {
		tex, err := LoadTexture(ctx, filepath.Join(dir, p.File))
		if err != nil {
			for _, loaded := range bf.pages {
				_ = loaded.Destroy()
			}
			return nil, fmt.Errorf("bitmap font %s page %d: %w", path, p.ID, err)
		}
		bf.pages[int(p.ID)] = tex
	}

	for _, g := range desc.Chars {
		page, ok := bf.pages[int(g.Page)]
		if !ok {
			core.LogWarn("bitmap font %s: glyph %d references missing page %d", path, g.ID, g.Page)
			continue
		}
		pos := [2]int32{int32(g.X), int32(g.Y)}
		size := [2]int32{int32(g.Width), int32(g.Height)}
		bf.glyphs[rune(g.ID)] = Glyph{
			Codepoint: rune(g.ID),
			Sub: SubTexture{
				Texture:  page,
				Name:     string(rune(g.ID)),
				Position: pos,
				Size:     size,
				UVs:      regionUVs(pos, size, page.Width(), page.Height()),
			},
			XOffset:  float32(g.XOffset),
			YOffset:  float32(g.YOffset),
			XAdvance: float32(g.XAdvance),
			Page:     int(g.Page),
		}
	}

	for p, k := range desc.Kerning {
		bf.kernings[kerningPair{rune(p.First), rune(p.Second)}] = float32(k.Amount)
	}

	core.LogDebug("bitmap font %q: %d glyphs, %d pages, %d kernings", bf.Face, len(bf.glyphs), len(bf.pages), len(bf.kernings))
	return bf, nil
}

func (f *BitmapFont) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

func (f *BitmapFont) Kerning(first, second rune) float32 {
	return f.kernings[kerningPair{first, second}]
}

// Measure returns the pixel extent of text at scale 1. Newlines start a new
// line; unknown runes take no space.
func (f *BitmapFont) Measure(text string) mgl32.Vec2 {
	var width, line float32
	lines := 1
	prev := rune(-1)
	for _, r := range text {
		if r == '\n' {
			width = max(width, line)
			line = 0
			lines++
			prev = -1
			continue
		}
		g, ok := f.glyphs[r]
		if !ok {
			continue
		}
		line += g.XAdvance + f.Kerning(prev, r)
		prev = r
	}
	return mgl32.Vec2{max(width, line), float32(lines) * f.LineHeight}
}

// Destroy releases the page textures.
func (f *BitmapFont) Destroy() error {
	for id, tex := range f.pages {
		if err := tex.Destroy(); err != nil {
			return err
		}
		delete(f.pages, id)
	}
	return nil
}
