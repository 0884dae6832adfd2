package assets

import "path/filepath"

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
	AssetTypeImage
	AssetTypeBitmapFont
	AssetTypeSystemFont
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	case AssetTypeImage:
		return "image"
	case AssetTypeBitmapFont:
		return "bitmap_font"
	case AssetTypeSystemFont:
		return "system_font"
	}
	return "none"
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".glsl":
		return AssetTypeShader
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp":
		return AssetTypeImage
	case ".fnt":
		return AssetTypeBitmapFont
	case ".ttf", ".otf":
		return AssetTypeSystemFont
	default:
		return AssetTypeNone
	}
}
