package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// Resource is anything the Context tracks and can destroy.
type Resource interface {
	Kind() gpu.ObjectKind
	Label() string
	Destroy() error
}

// Object owns exactly one native handle. It is registered with its Context
// at construction and deregistered by release; after that every
// error-returning operation on the owner reports core.ErrDestroyed.
type Object struct {
	ctx    *Context
	kind   gpu.ObjectKind
	id     uint32
	handle core.Handle
	label  string
}

func (o *Object) init(ctx *Context, kind gpu.ObjectKind, id uint32, owner Resource, label string) {
	o.ctx = ctx
	o.kind = kind
	o.id = id
	o.handle = ctx.register(owner)
	if label == "" {
		label = fmt.Sprintf("%s.%s", kind, uuid.NewString()[:8])
	}
	o.SetLabel(label)
}

// ID is the native handle.
func (o *Object) ID() uint32 {
	return o.id
}

func (o *Object) Kind() gpu.ObjectKind {
	return o.kind
}

func (o *Object) Handle() core.Handle {
	return o.handle
}

func (o *Object) Label() string {
	return o.label
}

// SetLabel names the native object for debugging tools. Empty labels are ignored.
func (o *Object) SetLabel(label string) {
	if label == "" {
		return
	}
	o.label = label
	if o.Alive() {
		o.ctx.device.Label(o.kind, o.id, label)
	}
}

func (o *Object) Alive() bool {
	return o.ctx != nil && o.ctx.registry.Valid(o.handle)
}

func (o *Object) check() error {
	if !o.Alive() {
		return fmt.Errorf("%s %q: %w", o.kind, o.label, core.ErrDestroyed)
	}
	return nil
}

// release deregisters the object. It fails with core.ErrDestroyed when the
// object was already released, in which case the native handle must not be
// deleted again.
func (o *Object) release() error {
	if o.ctx == nil {
		return fmt.Errorf("%s: %w", o.kind, core.ErrDestroyed)
	}
	if err := o.ctx.registry.Release(o.handle); err != nil {
		return fmt.Errorf("%s %q: %w", o.kind, o.label, core.ErrDestroyed)
	}
	return nil
}
