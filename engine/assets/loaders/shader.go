package loaders

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/ember/engine/renderer"
)

type ShaderLoader struct{}

// ShaderName is the cache name of a shader file: its base name without
// extension.
func ShaderName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (sl *ShaderLoader) Load(ctx *renderer.Context, path string) (interface{}, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ctx.GetOrCreateShader(ShaderName(path), string(source))
}

// Reload recompiles an already cached shader from disk. It reports false
// when no shader of that name is cached.
func (sl *ShaderLoader) Reload(ctx *renderer.Context, path string) (bool, error) {
	shader, ok := ctx.Shader(ShaderName(path))
	if !ok {
		return false, nil
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return true, err
	}
	return true, shader.Reload(string(source))
}
