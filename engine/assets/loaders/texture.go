package loaders

import (
	"github.com/spaghettifunk/ember/engine/renderer"
)

type TextureLoader struct{}

func (tl *TextureLoader) Load(ctx *renderer.Context, path string) (interface{}, error) {
	return renderer.LoadTexture(ctx, path)
}
