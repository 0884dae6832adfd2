package systems

import (
	"errors"
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
	"github.com/spaghettifunk/ember/engine/renderer/gpu/headless"
)

func triangle(offset float32) MeshData[mgl32.Vec2] {
	return MeshData[mgl32.Vec2]{
		Vertices: []mgl32.Vec2{{offset, 0}, {offset, 1}, {offset + 1, 0}},
		Indices:  []uint32{0, 1, 2},
	}
}

func TestMeshBuilderHandsOffResults(t *testing.T) {
	js, err := NewJobSystem(3, 16)
	require.NoError(t, err)
	defer js.Shutdown()

	mb := NewMeshBuilder[mgl32.Vec2](js)
	for id := uint64(1); id <= 5; id++ {
		offset := float32(id)
		require.NoError(t, mb.Submit(id, func() (MeshData[mgl32.Vec2], error) {
			return triangle(offset), nil
		}))
	}
	boom := errors.New("boom")
	require.NoError(t, mb.Submit(99, func() (MeshData[mgl32.Vec2], error) {
		return MeshData[mgl32.Vec2]{}, boom
	}))
	js.Wait()

	assert.Equal(t, 6, mb.Pending())
	results := mb.Drain()
	assert.Zero(t, mb.Pending())
	assert.Empty(t, mb.Drain())

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	require.Len(t, results, 6)
	for i, r := range results[:5] {
		require.NoError(t, r.Err)
		assert.Equal(t, float32(i+1), r.Data.Vertices[0].X())
	}
	assert.Equal(t, uint64(99), results[5].ID)
	assert.ErrorIs(t, results[5].Err, boom)
}

func TestUploadMesh(t *testing.T) {
	dev := headless.New(32, 32)
	ctx := renderer.NewContext(dev, 32, 32)
	layout := renderer.NewVertexLayout()
	renderer.PushAttribute[mgl32.Vec2](layout, 1, false)

	m, err := UploadMesh(ctx, layout, "tri", triangle(0))
	require.NoError(t, err)
	assert.Equal(t, int32(3), m.IndexCount)

	vb, ok := dev.BufferContents(m.VertexArray.VertexBuffer().ID())
	require.True(t, ok)
	assert.Len(t, vb, 3*8)
	assert.Equal(t, gpu.StaticDraw, dev.BufferUsage(m.VertexArray.VertexBuffer().ID()))

	shader, err := ctx.GetOrCreateShader(renderer.UIShaderName, renderer.UIShaderSource)
	require.NoError(t, err)
	shader.Bind()
	m.Draw()
	draws := dev.DrawCalls()
	require.Len(t, draws, 1)
	assert.Equal(t, []uint32{0, 1, 2}, draws[0].Indices)
	assert.Zero(t, dev.CurrentVertexArray())

	require.NoError(t, m.Destroy())
	assert.Zero(t, ctx.LiveCount(gpu.ObjectVertexArray))
	assert.Empty(t, dev.Errors())
}
