package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

func TestParseShaderSource(t *testing.T) {
	stages, err := ParseShaderSource(testShaderSource)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Contains(t, stages[gpu.VertexStage], "uniform mat4 uView;")
	assert.NotContains(t, stages[gpu.VertexStage], "uTint")
	assert.Contains(t, stages[gpu.FragmentStage], "uniform vec4 uTint;")

	pixel := strings.Replace(testShaderSource, "#type fragment", "#type pixel", 1)
	_, err = ParseShaderSource(pixel)
	assert.NoError(t, err, "pixel is an alias of fragment")

	tests := []struct {
		name   string
		source string
	}{
		{"no markers", "void main() {}"},
		{"vertex only", "#type vertex\nvoid main() {}\n"},
		{"unknown stage", "#type geometry\nvoid main() {}\n" + testShaderSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseShaderSource(tt.source)
			assert.ErrorIs(t, err, core.ErrShaderSource)
		})
	}
}

func TestShaderUniforms(t *testing.T) {
	ctx, dev := newTestContext(t)

	s, err := NewShader(ctx, "test", testShaderSource)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"uProjection", "uView", "uTextures[0]", "uTint"}, s.Uniforms())
	assert.True(t, s.HasUniform("uTint"))
	assert.Equal(t, "test", dev.LabelOf(gpu.ObjectProgram, s.ID()))

	s.Bind()
	assert.Equal(t, s.ID(), dev.CurrentProgram())

	tint := mgl32.Vec4{1, 0.5, 0.25, 1}
	require.NoError(t, s.SetVec4("uTint", tint))
	require.NoError(t, s.SetUniformArray("uTextures", []int32{0, 1, 2}))

	v, ok := dev.UniformValue(s.ID(), "uTint")
	require.True(t, ok)
	assert.Equal(t, tint, v)
	v, _ = dev.UniformValue(s.ID(), "uTextures[0]")
	assert.Equal(t, []int32{0, 1, 2}, v)

	err = s.SetFloat("uMissing", 1)
	assert.ErrorIs(t, err, core.ErrUnknownUniform)
	var uerr *UnknownUniformError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "uMissing", uerr.Name)
	assert.Equal(t, "test", uerr.Shader)

	s.Unbind()
	assert.Zero(t, dev.CurrentProgram())
	assert.Empty(t, dev.Errors())
}

func TestShaderCompileFailure(t *testing.T) {
	ctx, dev := newTestContext(t)

	broken := strings.Replace(testShaderSource, "out vec4 color;", "#error broken\nout vec4 color;", 1)
	_, err := NewShader(ctx, "broken", broken)
	assert.ErrorIs(t, err, core.ErrShaderCompile)
	assert.Contains(t, err.Error(), "fragment stage")
	assert.Zero(t, ctx.Live(), "nothing is registered for a failed shader")
	assert.Zero(t, dev.Live(gpu.ObjectProgram))

	_, err = ctx.GetOrCreateShader("broken", broken)
	assert.Error(t, err)
	_, ok := ctx.Shader("broken")
	assert.False(t, ok, "failed shaders are not cached")
}

func TestShaderReload(t *testing.T) {
	ctx, dev := newTestContext(t)

	s, err := NewShader(ctx, "test", testShaderSource)
	require.NoError(t, err)
	oldID := s.ID()

	broken := strings.Replace(testShaderSource, "void main() { color", "#error\nvoid main() { color", 1)
	assert.ErrorIs(t, s.Reload(broken), core.ErrShaderCompile)
	assert.Equal(t, oldID, s.ID(), "a failed reload keeps the old program")
	assert.True(t, s.HasUniform("uTint"))

	withScale := strings.Replace(testShaderSource, "uniform vec4 uTint;", "uniform vec4 uTint;\nuniform float uScale;", 1)
	require.NoError(t, s.Reload(withScale))
	assert.NotEqual(t, oldID, s.ID())
	assert.True(t, s.HasUniform("uScale"))
	assert.Equal(t, 1, dev.Live(gpu.ObjectProgram), "the old program is deleted")
	assert.Equal(t, "test", dev.LabelOf(gpu.ObjectProgram, s.ID()))

	require.NoError(t, s.Destroy())
	assert.ErrorIs(t, s.Reload(testShaderSource), core.ErrDestroyed)
	assert.ErrorIs(t, s.SetFloat("uScale", 1), core.ErrDestroyed)
	assert.Empty(t, dev.Errors())
}
