package keyframes

import (
	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/gentime"
	"github.com/ivlev/kfanim/internal/params"
	"github.com/ivlev/kfanim/internal/renderer"
)

// Keyframe is a snapshot of one entry.
type Keyframe struct {
	Pos   gentime.Time
	Frame int64
	Type  anim.KeyframeType
	Value anim.Value
}

// Row is the view of one entry as exposed to list observers.
type Row struct {
	Keyframe
	Normalized float64
}

func (s *Store) keyframe(i int) Keyframe {
	e := s.list[i]
	return Keyframe{Pos: e.pos, Frame: s.frames(e.pos), Type: e.typ, Value: e.value}
}

// Get returns the keyframe at pos.
func (s *Store) Get(pos gentime.Time) (Keyframe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index(pos)
	if !ok {
		return Keyframe{}, false
	}
	return s.keyframe(i), true
}

// Next returns the first keyframe strictly after pos.
func (s *Store) Next(pos gentime.Time) (Keyframe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next(pos)
}

func (s *Store) next(pos gentime.Time) (Keyframe, bool) {
	i, ok := s.index(pos)
	if ok {
		i++
	}
	if i >= len(s.list) {
		return Keyframe{}, false
	}
	return s.keyframe(i), true
}

// Prev returns the last keyframe strictly before pos.
func (s *Store) Prev(pos gentime.Time) (Keyframe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prev(pos)
}

func (s *Store) prev(pos gentime.Time) (Keyframe, bool) {
	i := s.search(pos)
	if i == 0 {
		return Keyframe{}, false
	}
	return s.keyframe(i - 1), true
}

// Closest returns the keyframe at pos, or the nearest one in frames.
// On equal distance the earlier keyframe wins.
func (s *Store) Closest(pos gentime.Time) (Keyframe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index(pos); ok {
		return s.keyframe(i), true
	}
	next, okNext := s.next(pos)
	prev, okPrev := s.prev(pos)
	switch {
	case okNext && okPrev:
		frame := s.frames(pos)
		if abs(next.Frame-frame) < abs(prev.Frame-frame) {
			return next, true
		}
		return prev, true
	case okNext:
		return next, true
	case okPrev:
		return prev, true
	}
	return Keyframe{}, false
}

// Has reports whether a keyframe exists at pos.
func (s *Store) Has(pos gentime.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index(pos)
	return ok
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// IsSingle reports whether the parameter is effectively not animated.
func (s *Store) IsSingle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list) <= 1
}

// Keyframes returns a snapshot of all entries in time order.
func (s *Store) Keyframes() []Keyframe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Keyframe, len(s.list))
	for i := range s.list {
		out[i] = s.keyframe(i)
	}
	return out
}

// InterpolatedValue returns the value at pos. Stored values are returned as is,
// outside the keyframed span the nearest keyframe value holds.
func (s *Store) InterpolatedValue(pos gentime.Time) (anim.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.list) == 0 {
		return nil, false
	}
	i := s.search(pos)
	switch {
	case i < len(s.list) && s.list[i].pos.Equal(pos):
		return s.list[i].value, true
	case i == 0:
		return s.list[0].value, true
	case i == len(s.list):
		return s.list[len(s.list)-1].value, true
	}
	return renderer.Interpolate(s.sample(i-1), s.sample(i), s.frames(pos)), true
}

// ValueAt is InterpolatedValue for a frame number.
func (s *Store) ValueAt(frame int64) (anim.Value, bool) {
	return s.InterpolatedValue(s.Time(frame))
}

func (s *Store) sample(i int) renderer.Sample {
	e := s.list[i]
	return renderer.Sample{Frame: s.frames(e.pos), Type: e.typ, Value: e.value}
}

// Samples returns the keyframes placed on the frame grid.
func (s *Store) Samples() []renderer.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]renderer.Sample, len(s.list))
	for i := range s.list {
		out[i] = s.sample(i)
	}
	return out
}

// Ranges returns the per-field spans of a rect parameter.
func (s *Store) Ranges() ([5]anim.Span, bool) {
	if s.typ != params.AnimatedRect {
		return [5]anim.Span{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return anim.Ranges(s.keys())
}

// Row returns the i-th entry with its normalized value. Without an owner the
// normalized value of a scalar is 1.
func (s *Store) Row(i int) (Row, bool) {
	_, def, ownerOK := s.ref.Resolve()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.list) {
		return Row{}, false
	}
	r := Row{Keyframe: s.keyframe(i)}
	switch v := r.Value.(type) {
	case anim.Rect:
		r.Normalized = v.Opacity
	case anim.Scalar:
		r.Normalized = 1
		if ownerOK {
			r.Normalized = def.Range.Normalize(float64(v))
		}
	}
	return r, true
}

// NormalizedToValue maps a 0..1 editing value to the parameter domain.
func (s *Store) NormalizedToValue(n float64) (float64, bool) {
	_, def, ok := s.ref.Resolve()
	if !ok {
		return 0, false
	}
	return def.Range.Denormalize(n), true
}

// keys converts the list for the codecs. Must be called with the lock held.
func (s *Store) keys() []anim.Key {
	out := make([]anim.Key, len(s.list))
	for i, e := range s.list {
		out[i] = anim.Key{Frame: s.frames(e.pos), Type: e.typ, Value: e.value}
	}
	return out
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
