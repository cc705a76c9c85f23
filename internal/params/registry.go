package params

import "sync"

// Handle is a generational reference to an Asset held by a Registry.
// A handle stays safe to use after the asset is released: it simply stops resolving.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h was never issued.
func (h Handle) IsZero() bool { return h.gen == 0 }

type slot struct {
	gen   uint32
	asset *Asset
}

// Registry owns assets and hands out handles to them.
type Registry struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register stores a and returns its handle.
func (r *Registry) Register(a *Asset) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		s := &r.slots[idx]
		s.asset = a
		return Handle{index: idx, gen: s.gen}
	}
	r.slots = append(r.slots, slot{gen: 1, asset: a})
	return Handle{index: uint32(len(r.slots) - 1), gen: 1}
}

// Resolve returns the asset for h, or false once it has been released.
func (r *Registry) Resolve(h Handle) (*Asset, bool) {
	if r == nil || h.IsZero() {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(h.index) >= len(r.slots) {
		return nil, false
	}
	s := r.slots[h.index]
	if s.gen != h.gen || s.asset == nil {
		return nil, false
	}
	return s.asset, true
}

// Release invalidates h and every copy of it.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.IsZero() || int(h.index) >= len(r.slots) {
		return
	}
	s := &r.slots[h.index]
	if s.gen != h.gen {
		return
	}
	s.asset = nil
	s.gen++
	r.free = append(r.free, h.index)
}

// Len returns the number of live assets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots) - len(r.free)
}

// Ref points at one parameter of a registered asset.
type Ref struct {
	Registry *Registry
	Handle   Handle
	Param    string
}

// Resolve returns the owning asset and the parameter definition, if both are still reachable.
func (ref Ref) Resolve() (*Asset, Definition, bool) {
	a, ok := ref.Registry.Resolve(ref.Handle)
	if !ok {
		return nil, Definition{}, false
	}
	def, ok := a.Definition(ref.Param)
	if !ok {
		return nil, Definition{}, false
	}
	return a, def, true
}
