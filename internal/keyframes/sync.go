package keyframes

import (
	"fmt"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/gentime"
	"github.com/ivlev/kfanim/internal/params"
	"github.com/ivlev/kfanim/internal/undo"
)

// serialize encodes the store in the owner's format. Must be called with the lock held.
func (s *Store) serialize(in, duration int64) string {
	switch s.typ {
	case params.RotoSpline:
		data, err := anim.FormatRoto(s.keys(), in, duration)
		if err != nil {
			s.logger.Error("roto serialisation failed", "error", err)
			return ""
		}
		return data
	case params.Double:
		if len(s.list) == 0 {
			return ""
		}
		return anim.FormatValue(s.list[0].value, s.loc)
	default:
		return anim.FormatText(s.keys(), s.typ, s.loc)
	}
}

// AnimProperty returns the store encoded the way the owner stores it.
func (s *Store) AnimProperty() string {
	var in, duration int64
	if owner, _, ok := s.ref.Resolve(); ok {
		in, duration = int64(owner.ParentIn()), int64(owner.ParentDuration())
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serialize(in, duration)
}

// Refresh reloads the store from the owner value when it changed since the
// last load. Nothing is written back to the owner and no undo entry is created.
func (s *Store) Refresh() error {
	return s.reload(nil)
}

// Reset is Refresh recorded as one undoable "Reset <effect>" command.
func (s *Store) Reset() error {
	tx := undo.NewTx()
	if err := s.reload(tx); err != nil {
		return err
	}
	name := "effect"
	if owner, _, ok := s.ref.Resolve(); ok && owner.Name != "" {
		name = owner.Name
	}
	s.commit(tx, "Reset "+name)
	return nil
}

func (s *Store) reload(tx *undo.Tx) error {
	owner, def, ok := s.ref.Resolve()
	if !ok {
		s.logger.Warn("cannot access the owner parameter")
		return ErrOwnerGone
	}
	data, _ := owner.Value(def.Name)
	anchor := int64(owner.ParentIn())

	s.mu.RLock()
	unchanged := s.parsed && data == s.lastData
	s.mu.RUnlock()
	if unchanged {
		return nil
	}

	keys, format, err := s.decode(data, anchor)
	s.metrics.Parse(format, err == nil)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", def.Name, err)
	}
	if s.typ == params.RotoSpline {
		anchor = 0
	}

	local := undo.NewTx()
	s.mu.Lock()
	s.suppressed = true
	s.load(keys, anchor, def.Range, local)
	s.resetStep()()
	s.suppressed = false
	s.lastData = data
	s.parsed = true
	s.mu.Unlock()
	s.flush()

	if tx != nil {
		local.AppendRedo(s.resetStep())
		local.AppendUndo(s.resetStep())
		tx.Merge(local)
	}
	s.logger.Debug("reloaded from owner", "format", format, "keyframes", len(keys))
	return nil
}

// resetStep notifies that every row may have changed.
func (s *Store) resetStep() undo.Fun {
	return func() bool {
		s.notify(Change{Kind: Reset, First: 0, Last: len(s.list) - 1})
		return true
	}
}

// decode parses the owner value according to the parameter type.
func (s *Store) decode(data string, in int64) ([]anim.Key, string, error) {
	switch s.typ {
	case params.RotoSpline:
		keys, err := anim.ParseRoto(data, in)
		return keys, "roto", err
	case params.Double:
		v, err := s.loc.ParseFloat(data)
		if err != nil {
			return nil, "double", fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return []anim.Key{{Type: anim.Linear, Value: anim.Scalar(v)}}, "double", nil
	default:
		keys, err := anim.ParseText(data, s.typ, s.loc)
		return keys, "text", err
	}
}

// load replaces the content with keys. An empty key list leaves the default
// value at anchor; a list starting after anchor is extended back to it with
// its first value. Must be called with the write lock held.
func (s *Store) load(keys []anim.Key, anchor int64, r params.Range, tx *undo.Tx) {
	s.removeRange(1, tx)

	want := keys
	switch {
	case len(keys) == 0:
		want = []anim.Key{{Frame: anchor, Type: anim.Linear, Value: anim.Zero(s.typ, r)}}
	case keys[0].Frame > anchor:
		want = append([]anim.Key{{Frame: anchor, Type: keys[0].Type, Value: keys[0].Value}}, keys...)
	}

	var first gentime.Time
	kept := len(s.list) > 0
	if kept {
		first = s.list[0].pos
	}
	for _, k := range want {
		// an existing keyframe is updated in place
		s.add(s.Time(k.Frame), k.Type, k.Value, false, tx)
	}
	// the surviving first keyframe goes unless the new content has it
	if kept && !containsFrame(want, s.frames(first)) {
		s.remove(first, false, tx)
	}
}

func containsFrame(keys []anim.Key, frame int64) bool {
	for _, k := range keys {
		if k.Frame == frame {
			return true
		}
	}
	return false
}
