package undo

// Fun is one reversible step. It reports whether the step succeeded.
type Fun func() bool

// Noop always succeeds.
func Noop() bool { return true }

// Pusher registers an already applied transaction on an undo stack.
type Pusher interface {
	Push(redo, undo Fun, label string)
}

// Tx accumulates forward and inverse steps of one atomic operation.
// Forward steps run in recording order, inverse steps in reverse recording order.
// The zero value is an empty transaction.
type Tx struct {
	redo []Fun
	undo []Fun // execution order
}

// NewTx returns an empty transaction.
func NewTx() *Tx { return &Tx{} }

// Record adds an operation that has just been applied: redo runs after the
// steps already recorded, undo runs before their inverses.
func (t *Tx) Record(redo, undo Fun) {
	t.redo = append(t.redo, redo)
	t.undo = append([]Fun{undo}, t.undo...)
}

// AppendRedo adds a step that runs after every forward step recorded so far.
func (t *Tx) AppendRedo(f Fun) {
	t.redo = append(t.redo, f)
}

// AppendUndo adds a step that runs after every inverse step recorded so far.
func (t *Tx) AppendUndo(f Fun) {
	t.undo = append(t.undo, f)
}

// Merge records the whole of other as a single step of t.
func (t *Tx) Merge(other *Tx) {
	if other == nil || other.Empty() {
		return
	}
	t.Record(other.RedoFun(), other.UndoFun())
}

// Empty reports whether nothing has been recorded.
func (t *Tx) Empty() bool {
	return len(t.redo) == 0 && len(t.undo) == 0
}

// Redo runs every forward step. All steps run even if one fails.
func (t *Tx) Redo() bool {
	return run(t.redo)
}

// Undo runs every inverse step. All steps run even if one fails.
func (t *Tx) Undo() bool {
	return run(t.undo)
}

// RedoFun snapshots the forward steps into a single Fun.
func (t *Tx) RedoFun() Fun {
	steps := append([]Fun(nil), t.redo...)
	return func() bool { return run(steps) }
}

// UndoFun snapshots the inverse steps into a single Fun.
func (t *Tx) UndoFun() Fun {
	steps := append([]Fun(nil), t.undo...)
	return func() bool { return run(steps) }
}

func run(steps []Fun) bool {
	ok := true
	for _, f := range steps {
		if !f() {
			ok = false
		}
	}
	return ok
}
