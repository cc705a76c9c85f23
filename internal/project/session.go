package project

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/gentime"
	"github.com/ivlev/kfanim/internal/keyframes"
	"github.com/ivlev/kfanim/internal/observability"
	"github.com/ivlev/kfanim/internal/params"
	"github.com/ivlev/kfanim/internal/undo"
)

// ErrNotFound is returned for an unknown effect or parameter.
var ErrNotFound = errors.New("project: not found")

// Options configures a Session.
type Options struct {
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	UndoLimit int
	// Locale overrides the document locale when set.
	Locale string
}

type effectState struct {
	asset  *params.Asset
	handle params.Handle
}

// Session binds the effects of a project to keyframe stores sharing one undo history.
type Session struct {
	Registry *params.Registry
	Undo     *undo.Stack

	rate   gentime.Rate
	locale string
	logger *slog.Logger

	mu      sync.RWMutex
	effects []effectState
	stores  map[string]*keyframes.Store
	closed  bool
}

func storeKey(effectID uuid.UUID, param string) string {
	return effectID.String() + "/" + param
}

// Open registers every effect of p and creates a store per animated parameter.
func Open(p *Project, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locale := p.Locale
	if opts.Locale != "" {
		locale = opts.Locale
	}
	loc, err := anim.NewLocale(locale)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Registry: params.NewRegistry(),
		Undo: undo.NewStack(
			undo.WithLimit(opts.UndoLimit),
			undo.WithLogger(logger),
			undo.WithMetrics(opts.Metrics),
		),
		rate:   p.FPS,
		locale: locale,
		logger: logger.With("component", "project"),
		stores: make(map[string]*keyframes.Store),
	}
	if !s.rate.Valid() {
		s.rate = gentime.PAL
	}

	for _, e := range p.Effects {
		asset := params.NewAsset(e.Name, e.In, e.Duration)
		if e.ID != "" {
			id, err := uuid.Parse(e.ID)
			if err != nil {
				return nil, fmt.Errorf("effect %s: invalid id: %w", e.Name, err)
			}
			asset.ID = id
		}
		for _, prm := range e.Params {
			def, err := prm.Definition()
			if err != nil {
				return nil, fmt.Errorf("effect %s: %w", e.Name, err)
			}
			asset.AddParameter(def, prm.Value)
		}
		handle := s.Registry.Register(asset)
		s.effects = append(s.effects, effectState{asset: asset, handle: handle})

		for _, def := range asset.Definitions() {
			if !def.Type.Animated() && def.Type != params.Double {
				continue
			}
			store := keyframes.New(params.Ref{Registry: s.Registry, Handle: handle, Param: def.Name}, keyframes.Options{
				Rate:    s.rate,
				Undo:    s.Undo,
				Locale:  loc,
				Logger:  logger.With("effect", e.Name),
				Metrics: opts.Metrics,
			})
			s.stores[storeKey(asset.ID, def.Name)] = store
		}
	}
	s.logger.Info("session opened", "effects", len(s.effects), "stores", len(s.stores))
	return s, nil
}

// Load reads the project at path and opens a session on it.
func Load(path string, opts Options) (*Session, error) {
	p, err := ReadProject(path)
	if err != nil {
		return nil, err
	}
	return Open(p, opts)
}

// Rate returns the project frame rate.
func (s *Session) Rate() gentime.Rate { return s.rate }

// Asset returns the effect matching name or id.
func (s *Session) Asset(effect string) (*params.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.find(effect)
	if err != nil {
		return nil, err
	}
	return st.asset, nil
}

func (s *Session) find(effect string) (effectState, error) {
	for _, st := range s.effects {
		if st.asset.Name == effect || st.asset.ID.String() == effect {
			if _, ok := s.Registry.Resolve(st.handle); !ok {
				break
			}
			return st, nil
		}
	}
	return effectState{}, fmt.Errorf("effect %q: %w", effect, ErrNotFound)
}

// Store returns the keyframe store of one effect parameter.
func (s *Session) Store(effect, param string) (*keyframes.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.find(effect)
	if err != nil {
		return nil, err
	}
	store, ok := s.stores[storeKey(st.asset.ID, param)]
	if !ok {
		return nil, fmt.Errorf("param %s/%s: %w", effect, param, ErrNotFound)
	}
	return store, nil
}

// Target names a store within the session.
type Target struct {
	Effect string
	Param  string
	Store  *keyframes.Store
}

// Targets lists every store in document order.
func (s *Session) Targets() []Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Target
	for _, st := range s.effects {
		for _, def := range st.asset.Definitions() {
			if store, ok := s.stores[storeKey(st.asset.ID, def.Name)]; ok {
				out = append(out, Target{Effect: st.asset.Name, Param: def.Name, Store: store})
			}
		}
	}
	return out
}

// Snapshot builds a document from the current parameter values.
func (s *Session) Snapshot() *Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := &Project{Version: CurrentVersion, FPS: s.rate, Locale: s.locale}
	for _, st := range s.effects {
		a := st.asset
		e := Effect{ID: a.ID.String(), Name: a.Name, In: a.ParentIn(), Duration: a.ParentDuration()}
		for _, def := range a.Definitions() {
			value, _ := a.Value(def.Name)
			e.Params = append(e.Params, Param{
				Name:  def.Name,
				Type:  def.Type.String(),
				Range: def.Range,
				Value: value,
			})
		}
		p.Effects = append(p.Effects, e)
	}
	return p
}

// Save writes the current state to path.
func (s *Session) Save(path string) error {
	if err := WriteProject(s.Snapshot(), path); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	s.logger.Info("project saved", "path", path)
	return nil
}

// Apply copies the parameter values of p into the session and refreshes the
// affected stores. Effects and parameters missing from the session are ignored.
func (s *Session) Apply(p *Project) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var errs []error
	for _, e := range p.Effects {
		st, err := s.find(e.Name)
		if err != nil {
			s.logger.Warn("ignoring unknown effect", "effect", e.Name)
			continue
		}
		for _, prm := range e.Params {
			current, ok := st.asset.Value(prm.Name)
			if !ok || current == prm.Value {
				continue
			}
			st.asset.SetParameter(prm.Name, prm.Value, true)
			if store, ok := s.stores[storeKey(st.asset.ID, prm.Name)]; ok {
				if err := store.Refresh(); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases every effect. Stores obtained earlier keep working but no
// longer reach their owners.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, st := range s.effects {
		s.Registry.Release(st.handle)
	}
	s.closed = true
	s.logger.Info("session closed")
}
