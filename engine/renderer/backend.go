package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/ember/engine/renderer/gpu"
	"github.com/spaghettifunk/ember/engine/renderer/gpu/headless"
	"github.com/spaghettifunk/ember/engine/renderer/gpu/opengl"
)

type BackendType uint8

const (
	OpenGL BackendType = iota
	Headless
)

func (b BackendType) String() string {
	switch b {
	case OpenGL:
		return "opengl"
	case Headless:
		return "headless"
	}
	return "unknown"
}

// ParseBackendType maps a config value to a backend. Empty selects OpenGL.
func ParseBackendType(s string) (BackendType, error) {
	switch strings.ToLower(s) {
	case "", "opengl", "gl":
		return OpenGL, nil
	case "headless":
		return Headless, nil
	}
	return OpenGL, fmt.Errorf("unknown render backend %q", s)
}

type BackendOptions struct {
	Width       int32
	Height      int32
	DebugLabels bool
}

// NewBackend creates the device for a backend. The OpenGL backend needs a
// current context on the calling thread.
func NewBackend(kind BackendType, opts BackendOptions) (gpu.Device, error) {
	switch kind {
	case OpenGL:
		return opengl.New(opengl.Options{DebugLabels: opts.DebugLabels})
	case Headless:
		return headless.New(opts.Width, opts.Height), nil
	}
	return nil, fmt.Errorf("render backend %s is not supported", kind)
}
