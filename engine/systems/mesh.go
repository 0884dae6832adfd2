package systems

import (
	"sync"

	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// MeshData is CPU-side geometry ready for upload.
type MeshData[V any] struct {
	Vertices []V
	Indices  []uint32
}

// MeshResult is a finished build waiting in the hand-off list.
type MeshResult[V any] struct {
	ID   uint64
	Data MeshData[V]
	Err  error
}

// MeshBuilder builds meshes on the job system and hands the results back
// through a mutex-guarded list. Workers only produce vertex and index
// slices; the render thread drains the list and does every upload.
type MeshBuilder[V any] struct {
	jobs *JobSystem

	mu       sync.Mutex
	finished []MeshResult[V]
}

func NewMeshBuilder[V any](jobs *JobSystem) *MeshBuilder[V] {
	return &MeshBuilder[V]{jobs: jobs}
}

// Submit queues build for mesh id. Failed builds are handed off with Err set.
func (mb *MeshBuilder[V]) Submit(id uint64, build func() (MeshData[V], error)) error {
	var data MeshData[V]
	return mb.jobs.Submit(JobTask{
		Name: "mesh",
		Run: func() error {
			var err error
			data, err = build()
			return err
		},
		OnComplete: func() {
			mb.handOff(MeshResult[V]{ID: id, Data: data})
		},
		OnFailure: func(err error) {
			mb.handOff(MeshResult[V]{ID: id, Err: err})
		},
	})
}

func (mb *MeshBuilder[V]) handOff(r MeshResult[V]) {
	mb.mu.Lock()
	mb.finished = append(mb.finished, r)
	mb.mu.Unlock()
}

// Drain returns every finished build since the last call. Call it on the
// render thread before the frame's batches flush.
func (mb *MeshBuilder[V]) Drain() []MeshResult[V] {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := mb.finished
	mb.finished = nil
	return out
}

// Pending reports the number of results waiting to be drained.
func (mb *MeshBuilder[V]) Pending() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.finished)
}

// Mesh is uploaded geometry drawn with its own vertex array.
type Mesh struct {
	VertexArray *renderer.VertexArray
	IndexCount  int32
}

// UploadMesh creates a vertex array for data. Render thread only.
func UploadMesh[V any](ctx *renderer.Context, layout *renderer.VertexLayout, label string, data MeshData[V]) (*Mesh, error) {
	va := renderer.NewVertexArray(ctx, layout, label)
	va.Bind()
	defer va.Unbind()
	if err := renderer.BufferData(va.VertexBuffer(), data.Vertices, gpu.StaticDraw); err != nil {
		_ = va.Destroy()
		return nil, err
	}
	if err := renderer.BufferData(va.IndexBuffer(), data.Indices, gpu.StaticDraw); err != nil {
		_ = va.Destroy()
		return nil, err
	}
	return &Mesh{VertexArray: va, IndexCount: int32(len(data.Indices))}, nil
}

// Draw issues one indexed draw. shader must already be bound with its
// uniforms set.
func (m *Mesh) Draw() {
	m.VertexArray.Bind()
	m.VertexArray.DrawElements(gpu.Triangles, m.IndexCount)
	m.VertexArray.Unbind()
}

func (m *Mesh) Destroy() error {
	return m.VertexArray.Destroy()
}
