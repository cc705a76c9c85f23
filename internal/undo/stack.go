package undo

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/kfanim/internal/observability"
)

// Command is one named transaction on the stack.
type Command struct {
	ID    uuid.UUID
	Label string
	At    time.Time
	redo  Fun
	undo  Fun
}

// Stack is a linear undo history. Pushed commands are assumed to be already applied.
type Stack struct {
	mu       sync.Mutex
	commands []Command
	index    int // number of applied commands
	limit    int
	running  bool

	logger  *slog.Logger
	metrics *observability.Metrics
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithLimit caps the history length; the oldest commands are dropped first. 0 means unlimited.
func WithLimit(n int) StackOption {
	return func(s *Stack) { s.limit = n }
}

func WithLogger(l *slog.Logger) StackOption {
	return func(s *Stack) { s.logger = l }
}

func WithMetrics(m *observability.Metrics) StackOption {
	return func(s *Stack) { s.metrics = m }
}

// NewStack creates an empty history.
func NewStack(opts ...StackOption) *Stack {
	s := &Stack{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "undo")
	return s
}

// Push registers an applied transaction. Any redoable commands are discarded.
func (s *Stack) Push(redo, undo Fun, label string) {
	cmd := Command{
		ID:    uuid.New(),
		Label: label,
		At:    time.Now(),
		redo:  redo,
		undo:  undo,
	}

	s.mu.Lock()
	if s.running {
		// a command pushed while undoing or redoing would corrupt the history
		s.mu.Unlock()
		s.logger.Warn("push ignored during undo/redo", "label", label)
		s.metrics.UndoCommand("push", false)
		return
	}
	s.commands = append(s.commands[:s.index], cmd)
	if s.limit > 0 && len(s.commands) > s.limit {
		s.commands = append([]Command(nil), s.commands[len(s.commands)-s.limit:]...)
	}
	s.index = len(s.commands)
	s.mu.Unlock()

	s.logger.Debug("push", "label", label, "id", cmd.ID)
	s.metrics.UndoCommand("push", true)
}

// Undo reverts the last applied command.
func (s *Stack) Undo() bool {
	s.mu.Lock()
	if s.running || s.index == 0 {
		s.mu.Unlock()
		return false
	}
	cmd := s.commands[s.index-1]
	s.running = true
	s.mu.Unlock()

	ok := cmd.undo()

	s.mu.Lock()
	s.running = false
	if ok {
		s.index--
	}
	s.mu.Unlock()

	s.logger.Debug("undo", "label", cmd.Label, "ok", ok)
	s.metrics.UndoCommand("undo", ok)
	return ok
}

// Redo reapplies the next undone command.
func (s *Stack) Redo() bool {
	s.mu.Lock()
	if s.running || s.index >= len(s.commands) {
		s.mu.Unlock()
		return false
	}
	cmd := s.commands[s.index]
	s.running = true
	s.mu.Unlock()

	ok := cmd.redo()

	s.mu.Lock()
	s.running = false
	if ok {
		s.index++
	}
	s.mu.Unlock()

	s.logger.Debug("redo", "label", cmd.Label, "ok", ok)
	s.metrics.UndoCommand("redo", ok)
	return ok
}

func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index < len(s.commands)
}

// Len returns the number of commands, applied or not.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commands)
}

// History returns the labels of all commands, oldest first, and the count of applied ones.
func (s *Stack) History() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]string, len(s.commands))
	for i, c := range s.commands {
		labels[i] = c.Label
	}
	return labels, s.index
}

// Clear drops the whole history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
	s.index = 0
}
