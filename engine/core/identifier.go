package core

import "fmt"

// Handle identifies a slot in a HandleTable. The generation changes every
// time the slot is released, so a Handle kept past Release stops resolving.
type Handle struct {
	Index      uint32
	Generation uint32
}

// InvalidHandle never resolves; live handles start at generation 1.
var InvalidHandle = Handle{}

func (h Handle) IsValid() bool {
	return h.Generation != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.Index, h.Generation)
}

type handleSlot[T any] struct {
	owner      T
	generation uint32
	live       bool
}

// HandleTable hands out generation-checked handles and reuses free slots.
// It is not safe for concurrent use.
type HandleTable[T any] struct {
	slots []handleSlot[T]
	free  []uint32
	count int
}

func NewHandleTable[T any](capacity int) *HandleTable[T] {
	return &HandleTable[T]{
		slots: make([]handleSlot[T], 0, capacity),
	}
}

// Acquire stores owner and returns its handle.
func (t *HandleTable[T]) Acquire(owner T) Handle {
	t.count++
	if n := len(t.free); n > 0 {
		// Existing free spot. Take it.
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.owner = owner
		s.live = true
		return Handle{Index: idx, Generation: s.generation}
	}

	t.slots = append(t.slots, handleSlot[T]{owner: owner, generation: 1, live: true})
	return Handle{Index: uint32(len(t.slots) - 1), Generation: 1}
}

// Release frees the slot behind h. Releasing twice returns ErrStaleHandle.
func (t *HandleTable[T]) Release(h Handle) error {
	s, err := t.slot(h)
	if err != nil {
		return err
	}
	var zero T
	s.owner = zero
	s.live = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	t.free = append(t.free, h.Index)
	t.count--
	return nil
}

func (t *HandleTable[T]) Get(h Handle) (T, bool) {
	s, err := t.slot(h)
	if err != nil {
		var zero T
		return zero, false
	}
	return s.owner, true
}

func (t *HandleTable[T]) Valid(h Handle) bool {
	_, err := t.slot(h)
	return err == nil
}

func (t *HandleTable[T]) Len() int {
	return t.count
}

// Each visits live entries in slot order. The table must not be mutated
// from fn; collect first and release afterwards.
func (t *HandleTable[T]) Each(fn func(Handle, T)) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.live {
			fn(Handle{Index: uint32(i), Generation: s.generation}, s.owner)
		}
	}
}

func (t *HandleTable[T]) slot(h Handle) (*handleSlot[T], error) {
	if !h.IsValid() || int(h.Index) >= len(t.slots) {
		return nil, fmt.Errorf("handle %s out of range (max=%d): %w", h, len(t.slots), ErrStaleHandle)
	}
	s := &t.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return nil, fmt.Errorf("handle %s: %w", h, ErrStaleHandle)
	}
	return s, nil
}
