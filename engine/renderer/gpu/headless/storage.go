package headless

import (
	"encoding/binary"
	"math"

	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// PixelSize is the number of bytes one texel of an internal format occupies.
func PixelSize(internal gpu.PixelFormat) int {
	switch internal {
	case gpu.RGBA, gpu.RGBA8:
		return 4
	case gpu.RGB:
		return 3
	case gpu.R32UI, gpu.Depth24Stencil8, gpu.DepthComponent, gpu.DepthStencil:
		return 4
	case gpu.RGB32UI:
		return 12
	}
	return 4
}

func (t *texture) allocate(width, height int32) {
	t.width, t.height = width, height
	t.pixels = make([]byte, int(width)*int(height)*PixelSize(t.internal))
}

func (t *texture) fill(c [4]float32) {
	size := PixelSize(t.internal)
	px := make([]byte, size)
	switch t.internal {
	case gpu.RGBA, gpu.RGBA8, gpu.RGB:
		for i := 0; i < size; i++ {
			px[i] = unorm8(c[i])
		}
	case gpu.R32UI:
		binary.LittleEndian.PutUint32(px, uint32(c[0]))
	case gpu.RGB32UI:
		for i := 0; i < 3; i++ {
			binary.LittleEndian.PutUint32(px[i*4:], uint32(c[i]))
		}
	default:
		// depth and stencil are not colour-cleared
		return
	}
	for at := 0; at+size <= len(t.pixels); at += size {
		copy(t.pixels[at:], px)
	}
}

func unorm8(v float32) byte {
	v = float32(math.Max(0, math.Min(1, float64(v))))
	return byte(math.Round(float64(v) * 255))
}

func le32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
