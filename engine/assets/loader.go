package assets

import "github.com/spaghettifunk/ember/engine/renderer"

// Loader turns a file into an engine object. Loaders run on the render
// thread since most of them create GPU resources.
type Loader interface {
	Load(ctx *renderer.Context, path string) (interface{}, error)
}
