package loaders

import (
	"os"
	"path/filepath"

	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/ember/engine/renderer"
)

// SystemFont is a parsed TrueType/OpenType file. Data is what
// renderer.RasterizeText expects.
type SystemFont struct {
	Name string
	Data []byte
	Font *opentype.Font
}

type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(_ *renderer.Context, path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return &SystemFont{Name: filepath.Base(path), Data: data, Font: f}, nil
}
