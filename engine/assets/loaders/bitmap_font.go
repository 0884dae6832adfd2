package loaders

import (
	"github.com/spaghettifunk/ember/engine/renderer"
)

// BitmapFontLoader loads AngelCode .fnt fonts and their page images.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(ctx *renderer.Context, path string) (interface{}, error) {
	return renderer.LoadBitmapFont(ctx, path)
}
