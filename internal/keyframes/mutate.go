package keyframes

import (
	"math"
	"sort"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/gentime"
	"github.com/ivlev/kfanim/internal/undo"
)

// Undo labels
const (
	labelAdd         = "Add keyframe"
	labelChangeType  = "Change keyframe type"
	labelDelete      = "Delete keyframe"
	labelDeleteAll   = "Delete all keyframes"
	labelDeleteAfter = "Delete keyframes after position"
	labelMove        = "Move keyframe"
	labelMoveMany    = "Move keyframes"
	labelUpdate      = "Update keyframe"
)

// mutate runs fn under the write lock with a fresh transaction and delivers
// the resulting notifications. fn must leave the store unchanged when it fails.
func (s *Store) mutate(op string, fn func(tx *undo.Tx) bool) (*undo.Tx, bool) {
	tx := undo.NewTx()
	s.mu.Lock()
	ok := fn(tx)
	s.mu.Unlock()
	s.flush()

	s.metrics.Mutation(op, ok)
	if ok {
		s.logger.Debug("keyframe mutation", "op", op)
	} else {
		s.logger.Warn("keyframe mutation refused", "op", op)
	}
	return tx, ok
}

// commit pushes an applied transaction on the undo stack.
func (s *Store) commit(tx *undo.Tx, label string) {
	if tx.Empty() || s.undo == nil {
		return
	}
	s.undo.Push(s.guard(tx.RedoFun()), s.guard(tx.UndoFun()), label)
}

// record folds an applied transaction into a caller transaction.
func (s *Store) record(into, tx *undo.Tx) {
	if into == nil || tx.Empty() {
		return
	}
	into.Record(s.guard(tx.RedoFun()), s.guard(tx.UndoFun()))
}

// The raw steps below run with the write lock held.

func (s *Store) insertStep(pos gentime.Time, typ anim.KeyframeType, v anim.Value, notify bool) undo.Fun {
	return func() bool {
		i, exists := s.index(pos)
		if exists {
			return false
		}
		s.list = append(s.list, entry{})
		copy(s.list[i+1:], s.list[i:])
		s.list[i] = entry{pos: pos, typ: typ, value: v}
		if notify {
			s.notify(Change{Kind: Inserted, First: i, Last: i})
		}
		return true
	}
}

func (s *Store) deleteStep(pos gentime.Time, notify bool) undo.Fun {
	return func() bool {
		i, exists := s.index(pos)
		if !exists {
			return false
		}
		s.list = append(s.list[:i], s.list[i+1:]...)
		if notify {
			s.notify(Change{Kind: Removed, First: i, Last: i})
		}
		return true
	}
}

func (s *Store) updateStep(pos gentime.Time, typ anim.KeyframeType, v anim.Value, notify bool) undo.Fun {
	return func() bool {
		i, exists := s.index(pos)
		if !exists {
			return false
		}
		s.list[i].typ = typ
		s.list[i].value = v
		if notify {
			s.notify(Change{Kind: Updated, First: i, Last: i, Roles: valueRoles})
		}
		return true
	}
}

func (s *Store) notifyStep(c Change) undo.Fun {
	return func() bool {
		s.notify(c)
		return true
	}
}

// apply runs redo and records it with its inverse on success.
func apply(tx *undo.Tx, redo, inverse undo.Fun) bool {
	if !redo() {
		return false
	}
	tx.Record(redo, inverse)
	return true
}

func (s *Store) add(pos gentime.Time, typ anim.KeyframeType, v anim.Value, notify bool, tx *undo.Tx) bool {
	if s.Validate(v) != nil {
		return false
	}
	i, exists := s.index(pos)
	if !exists {
		return apply(tx, s.insertStep(pos, typ, v, notify), s.deleteStep(pos, notify))
	}
	old := s.list[i]
	if old.typ == typ && anim.Equal(old.value, v) {
		return true
	}
	return apply(tx, s.updateStep(pos, typ, v, notify), s.updateStep(pos, old.typ, old.value, notify))
}

func (s *Store) remove(pos gentime.Time, notify bool, tx *undo.Tx) bool {
	i, exists := s.index(pos)
	if !exists {
		return false
	}
	old := s.list[i]
	return apply(tx, s.deleteStep(pos, notify), s.insertStep(pos, old.typ, old.value, notify))
}

func (s *Store) update(pos gentime.Time, v anim.Value, notify bool, tx *undo.Tx) bool {
	if s.Validate(v) != nil {
		return false
	}
	i, exists := s.index(pos)
	if !exists {
		return false
	}
	old := s.list[i]
	if a, ok := old.value.(anim.Scalar); ok {
		if b, ok := v.(anim.Scalar); ok && fuzzyEqual(float64(a), float64(b)) {
			return true
		}
	}
	return apply(tx, s.updateStep(pos, old.typ, v, notify), s.updateStep(pos, old.typ, old.value, notify))
}

func (s *Store) updateType(pos gentime.Time, typ anim.KeyframeType, tx *undo.Tx) bool {
	i, exists := s.index(pos)
	if !exists {
		return false
	}
	old := s.list[i]
	if old.typ == typ {
		return true
	}
	return apply(tx, s.updateStep(pos, typ, old.value, true), s.updateStep(pos, old.typ, old.value, true))
}

// denormalized maps n through the owner range. It fails without an owner or
// for non scalar parameters.
func (s *Store) denormalized(n float64) (anim.Value, bool) {
	if !anim.Accepts(s.typ, anim.Scalar(0)) {
		return nil, false
	}
	_, def, ok := s.ref.Resolve()
	if !ok {
		return nil, false
	}
	return anim.Scalar(def.Range.Denormalize(n)), true
}

// move relocates the keyframe at from. A negative n keeps the value, otherwise
// the value becomes the denormalized n.
func (s *Store) move(from, to gentime.Time, n float64, tx *undo.Tx) bool {
	i, exists := s.index(from)
	if !exists {
		return false
	}
	old := s.list[i]
	if from.Equal(to) {
		if n < 0 {
			return true
		}
		v, ok := s.denormalized(n)
		if !ok {
			return false
		}
		return s.update(from, v, true, tx)
	}
	if _, occupied := s.index(to); occupied {
		return false
	}

	value := old.value
	if n >= 0 {
		v, ok := s.denormalized(n)
		if !ok {
			return false
		}
		value = v
	}

	local := undo.NewTx()
	if !s.remove(from, true, local) {
		return false
	}
	if !s.add(to, old.typ, value, true, local) {
		local.Undo()
		return false
	}
	tx.Merge(local)
	return true
}

// offset moves every keyframe at or after from by to-from.
func (s *Store) offset(from, to gentime.Time, tx *undo.Tx) bool {
	delta := to.Sub(from)
	zero := gentime.Time{}
	if delta.Equal(zero) {
		return true
	}
	start, exists := s.index(from)
	if !exists {
		return false
	}

	var positions []gentime.Time
	for _, e := range s.list[start:] {
		positions = append(positions, e.pos)
	}
	// shifted keyframes may only collide with the ones left in place
	for _, p := range positions {
		if i, occupied := s.index(p.Add(delta)); occupied && i < start {
			return false
		}
	}
	// move the leading edge first so keyframes never land on each other
	if delta.After(zero) {
		sort.Slice(positions, func(i, j int) bool { return positions[i].After(positions[j]) })
	}

	local := undo.NewTx()
	for _, p := range positions {
		if !s.move(p, p.Add(delta), -1, local) {
			local.Undo()
			return false
		}
	}
	tx.Merge(local)
	return true
}

// removeRange removes the rows [first, len) as one batch with a single notification.
func (s *Store) removeRange(first int, tx *undo.Tx) bool {
	last := len(s.list) - 1
	if first > last {
		return true
	}
	positions := make([]gentime.Time, 0, last-first+1)
	for _, e := range s.list[first:] {
		positions = append(positions, e.pos)
	}

	local := undo.NewTx()
	for _, p := range positions {
		if !s.remove(p, false, local) {
			local.Undo()
			return false
		}
	}
	removed := Change{Kind: Removed, First: first, Last: last}
	s.notify(removed)
	local.AppendRedo(s.notifyStep(removed))
	local.AppendUndo(s.notifyStep(Change{Kind: Inserted, First: first, Last: last}))
	tx.Merge(local)
	return true
}

// fuzzyEqual compares like a relative epsilon of 1e-12, exact for zero.
func fuzzyEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b)*1e12 <= math.Min(math.Abs(a), math.Abs(b))
}

// Add inserts a keyframe, or changes type and value of the one at pos.
func (s *Store) Add(pos gentime.Time, typ anim.KeyframeType, v anim.Value) bool {
	label := labelAdd
	tx, ok := s.mutate("add", func(tx *undo.Tx) bool {
		if _, exists := s.index(pos); exists {
			label = labelChangeType
		}
		return s.add(pos, typ, v, true, tx)
	})
	if ok {
		s.commit(tx, label)
	}
	return ok
}

// AddTx is Add composed into tx.
func (s *Store) AddTx(pos gentime.Time, typ anim.KeyframeType, v anim.Value, into *undo.Tx) bool {
	tx, ok := s.mutate("add", func(tx *undo.Tx) bool {
		return s.add(pos, typ, v, true, tx)
	})
	s.record(into, tx)
	return ok
}

// AddNormalized adds a linear keyframe at frame with the denormalized n.
func (s *Store) AddNormalized(frame int64, n float64) bool {
	v, ok := s.denormalized(n)
	if !ok {
		s.metrics.Mutation("add", false)
		return false
	}
	return s.Add(s.Time(frame), anim.Linear, v)
}

// Remove deletes the keyframe at pos. The first keyframe cannot be removed.
func (s *Store) Remove(pos gentime.Time) bool {
	tx, ok := s.mutate("remove", func(tx *undo.Tx) bool {
		return s.removeOne(pos, tx)
	})
	if ok {
		s.commit(tx, labelDelete)
	}
	return ok
}

// RemoveTx is Remove composed into tx.
func (s *Store) RemoveTx(pos gentime.Time, into *undo.Tx) bool {
	tx, ok := s.mutate("remove", func(tx *undo.Tx) bool {
		return s.removeOne(pos, tx)
	})
	s.record(into, tx)
	return ok
}

func (s *Store) removeOne(pos gentime.Time, tx *undo.Tx) bool {
	if i, exists := s.index(pos); !exists || i == 0 {
		return false
	}
	return s.remove(pos, true, tx)
}

// RemoveAll deletes every keyframe but the first.
func (s *Store) RemoveAll() bool {
	tx, ok := s.mutate("remove_all", func(tx *undo.Tx) bool {
		return s.removeRange(1, tx)
	})
	if ok {
		s.commit(tx, labelDeleteAll)
	}
	return ok
}

// RemoveAllTx is RemoveAll composed into tx.
func (s *Store) RemoveAllTx(into *undo.Tx) bool {
	tx, ok := s.mutate("remove_all", func(tx *undo.Tx) bool {
		return s.removeRange(1, tx)
	})
	s.record(into, tx)
	return ok
}

// RemoveAfter deletes every keyframe strictly after pos.
func (s *Store) RemoveAfter(pos gentime.Time) bool {
	tx, ok := s.mutate("remove_after", func(tx *undo.Tx) bool {
		return s.removeAfter(pos, tx)
	})
	if ok {
		s.commit(tx, labelDeleteAfter)
	}
	return ok
}

// RemoveAfterTx is RemoveAfter composed into tx.
func (s *Store) RemoveAfterTx(pos gentime.Time, into *undo.Tx) bool {
	tx, ok := s.mutate("remove_after", func(tx *undo.Tx) bool {
		return s.removeAfter(pos, tx)
	})
	s.record(into, tx)
	return ok
}

func (s *Store) removeAfter(pos gentime.Time, tx *undo.Tx) bool {
	first, exists := s.index(pos)
	if exists {
		first++
	}
	// the first keyframe always stays
	return s.removeRange(max(first, 1), tx)
}

// Move relocates the keyframe at from to to. A negative n keeps the value,
// otherwise the value becomes the denormalized n. When from equals to only the
// value is updated.
func (s *Store) Move(from, to gentime.Time, n float64) bool {
	tx, ok := s.mutate("move", func(tx *undo.Tx) bool {
		return s.move(from, to, n, tx)
	})
	if ok {
		label := labelMove
		if from.Equal(to) {
			label = labelUpdate
		}
		s.commit(tx, label)
	}
	return ok
}

// MoveTx is Move composed into tx.
func (s *Store) MoveTx(from, to gentime.Time, n float64, into *undo.Tx) bool {
	tx, ok := s.mutate("move", func(tx *undo.Tx) bool {
		return s.move(from, to, n, tx)
	})
	s.record(into, tx)
	return ok
}

// Offset shifts every keyframe at or after from by to-from as one transaction.
func (s *Store) Offset(from, to gentime.Time) bool {
	tx, ok := s.mutate("offset", func(tx *undo.Tx) bool {
		return s.offset(from, to, tx)
	})
	if ok {
		s.commit(tx, labelMoveMany)
	}
	return ok
}

// OffsetTx is Offset composed into tx.
func (s *Store) OffsetTx(from, to gentime.Time, into *undo.Tx) bool {
	tx, ok := s.mutate("offset", func(tx *undo.Tx) bool {
		return s.offset(from, to, tx)
	})
	s.record(into, tx)
	return ok
}

// Update replaces the value at pos, keeping its type. Scalar values that are
// indistinguishable from the current one are ignored.
func (s *Store) Update(pos gentime.Time, v anim.Value) bool {
	tx, ok := s.mutate("update", func(tx *undo.Tx) bool {
		return s.update(pos, v, true, tx)
	})
	if ok {
		s.commit(tx, labelUpdate)
	}
	return ok
}

// UpdateTx is Update composed into tx.
func (s *Store) UpdateTx(pos gentime.Time, v anim.Value, into *undo.Tx) bool {
	tx, ok := s.mutate("update", func(tx *undo.Tx) bool {
		return s.update(pos, v, true, tx)
	})
	s.record(into, tx)
	return ok
}

// UpdateNormalized updates the value at frame with the denormalized n.
func (s *Store) UpdateNormalized(frame int64, n float64) bool {
	v, ok := s.denormalized(n)
	if !ok {
		s.metrics.Mutation("update", false)
		return false
	}
	return s.Update(s.Time(frame), v)
}

// UpdateType changes the interpolation type at pos.
func (s *Store) UpdateType(pos gentime.Time, typ anim.KeyframeType) bool {
	tx, ok := s.mutate("update_type", func(tx *undo.Tx) bool {
		return s.updateType(pos, typ, tx)
	})
	if ok {
		s.commit(tx, labelChangeType)
	}
	return ok
}

// UpdateTypeTx is UpdateType composed into tx.
func (s *Store) UpdateTypeTx(pos gentime.Time, typ anim.KeyframeType, into *undo.Tx) bool {
	tx, ok := s.mutate("update_type", func(tx *undo.Tx) bool {
		return s.updateType(pos, typ, tx)
	})
	s.record(into, tx)
	return ok
}

// DirectUpdate replaces the value at pos without any undo entry.
func (s *Store) DirectUpdate(pos gentime.Time, v anim.Value) bool {
	_, ok := s.mutate("direct_update", func(tx *undo.Tx) bool {
		if s.Validate(v) != nil {
			return false
		}
		i, exists := s.index(pos)
		if !exists {
			return false
		}
		return s.updateStep(pos, s.list[i].typ, v, true)()
	})
	return ok
}
