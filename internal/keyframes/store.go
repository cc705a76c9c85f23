// Package keyframes keeps the ordered keyframes of one animated effect parameter.
//
// A Store is bound to a parameter through a params.Ref. It never owns the
// parameter: when the owning asset is released every operation that needs its
// metadata fails or falls back to a default.
package keyframes

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/gentime"
	"github.com/ivlev/kfanim/internal/observability"
	"github.com/ivlev/kfanim/internal/params"
	"github.com/ivlev/kfanim/internal/undo"
)

var (
	// ErrOwnerGone is returned when the owning parameter can no longer be resolved.
	ErrOwnerGone = errors.New("keyframes: owner parameter is gone")
	// ErrMalformed is returned when the owner value cannot be decoded.
	ErrMalformed = anim.ErrMalformed
	// ErrWrongValueKind is returned for a value that does not match the parameter type.
	ErrWrongValueKind = errors.New("keyframes: value kind does not match parameter type")
)

// Options configures a Store.
type Options struct {
	Rate    gentime.Rate
	Undo    undo.Pusher
	Locale  anim.Locale
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

type entry struct {
	pos   gentime.Time
	typ   anim.KeyframeType
	value anim.Value
}

// Store is the keyframe list of one parameter. It is safe for concurrent use.
type Store struct {
	ref     params.Ref
	typ     params.Type
	rate    gentime.Rate
	loc     anim.Locale
	undo    undo.Pusher
	logger  *slog.Logger
	metrics *observability.Metrics

	mu          sync.RWMutex
	list        []entry // ascending by pos, never empty
	lastData    string
	parsed      bool
	suppressed  bool // reparse in progress, do not write back to the owner
	pending     []Change
	pendingSync bool
	dispatching bool

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New creates the store of the parameter ref points at and fills it from the
// owner's current value.
func New(ref params.Ref, opts Options) *Store {
	s := &Store{
		ref:     ref,
		typ:     params.KeyframeParam,
		rate:    opts.Rate,
		loc:     opts.Locale,
		undo:    opts.Undo,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		subs:    make(map[int]func(Change)),
	}
	if !s.rate.Valid() {
		s.rate = gentime.PAL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "keyframes", "param", ref.Param)

	_, def, ok := ref.Resolve()
	if ok {
		s.typ = def.Type
	}
	if err := s.Refresh(); err != nil {
		s.logger.Warn("initial refresh failed", "error", err)
	}

	s.mu.Lock()
	if len(s.list) == 0 {
		s.list = []entry{{typ: anim.Linear, value: anim.Zero(s.typ, def.Range)}}
	}
	s.mu.Unlock()
	return s
}

// Type returns the parameter type read at construction.
func (s *Store) Type() params.Type { return s.typ }

// Rate returns the frame rate used for frame conversions.
func (s *Store) Rate() gentime.Rate { return s.rate }

// Time converts a frame number to a store position.
func (s *Store) Time(frame int64) gentime.Time {
	return gentime.FromFrames(frame, s.rate)
}

// Validate reports whether v can be stored in this parameter.
func (s *Store) Validate(v anim.Value) error {
	if !anim.Accepts(s.typ, v) {
		return ErrWrongValueKind
	}
	return nil
}

// search returns the index of the first entry at or after pos.
func (s *Store) search(pos gentime.Time) int {
	return sort.Search(len(s.list), func(i int) bool {
		return !s.list[i].pos.Before(pos)
	})
}

// index returns the row of pos.
func (s *Store) index(pos gentime.Time) (int, bool) {
	i := s.search(pos)
	return i, i < len(s.list) && s.list[i].pos.Equal(pos)
}

func (s *Store) frames(pos gentime.Time) int64 {
	return pos.Frames(s.rate)
}

// guard wraps a step recorded under the lock so that it can run later from an undo stack.
func (s *Store) guard(f undo.Fun) undo.Fun {
	return func() bool {
		s.mu.Lock()
		ok := f()
		s.mu.Unlock()
		s.flush()
		return ok
	}
}

// notify queues a change. Must be called with the write lock held.
func (s *Store) notify(c Change) {
	s.pending = append(s.pending, c)
	if !s.suppressed {
		s.pendingSync = true
	}
}

// flush dispatches queued changes to subscribers and writes the serialised
// store back to the owner. Must be called without the lock. A flush started
// from a subscriber callback leaves its changes to the flush already running.
func (s *Store) flush() {
	owner, def, ownerOK := s.ref.Resolve()

	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	for {
		changes := s.pending
		doSync := s.pendingSync && ownerOK
		s.pending = nil
		s.pendingSync = false
		if len(changes) == 0 && !doSync {
			s.dispatching = false
			s.mu.Unlock()
			return
		}
		var text string
		if doSync {
			text = s.serialize(int64(owner.ParentIn()), int64(owner.ParentDuration()))
			s.lastData = text
		}
		s.mu.Unlock()

		for _, c := range changes {
			for _, fn := range s.subscribers() {
				fn(c)
			}
		}
		if doSync {
			owner.SetParameter(def.Name, text, false)
		}

		s.mu.Lock()
	}
}

// Subscribe registers fn for change notifications. Notifications are
// delivered after the mutation, outside the store lock, so fn may query the store.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) subscribers() []func(Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Change), len(ids))
	for i, id := range ids {
		out[i] = s.subs[id]
	}
	return out
}
