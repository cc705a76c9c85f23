package params

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Type selects the value variant and the text encoding of an animated parameter.
type Type int

const (
	Double        Type = iota // constant number, no animation string
	KeyframeParam             // scalar animation "0=1;25~=2"
	AnimatedRect              // rectangle animation "0=0 0 100 100 1"
	RotoSpline                // JSON keyed by frame, values are point lists
)

var typeNames = map[Type]string{
	Double:        "double",
	KeyframeParam: "keyframe",
	AnimatedRect:  "animatedrect",
	RotoSpline:    "roto-spline",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Animated reports whether values of this type are stored as keyframes.
func (t Type) Animated() bool {
	return t == KeyframeParam || t == AnimatedRect || t == RotoSpline
}

// ParseType accepts the names used in project files.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	switch strings.ToLower(s) {
	case "", "keyframes", "animated":
		return KeyframeParam, nil
	case "rect", "geometry":
		return AnimatedRect, nil
	case "roto", "spline":
		return RotoSpline, nil
	}
	return 0, fmt.Errorf("unknown parameter type %q", s)
}

// Definition is the static description of one effect parameter.
type Definition struct {
	Name  string
	Type  Type
	Range Range
}

// ChangeFunc is called when a parameter value changes with notifyUI set.
type ChangeFunc func(asset *Asset, name, value string)

// Asset is an effect instance owning a set of parameters.
// Stores never hold it directly; they resolve it through a Registry handle.
type Asset struct {
	ID       uuid.UUID
	Name     string
	In       int
	Duration int

	mu        sync.RWMutex
	defs      []Definition
	values    map[string]string
	listeners []ChangeFunc
}

// NewAsset creates an effect instance spanning [in, in+duration).
func NewAsset(name string, in, duration int) *Asset {
	return &Asset{
		ID:       uuid.New(),
		Name:     name,
		In:       in,
		Duration: duration,
		values:   make(map[string]string),
	}
}

// AddParameter declares a parameter with its initial textual value.
func (a *Asset) AddParameter(def Definition, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, d := range a.defs {
		if d.Name == def.Name {
			a.defs[i] = def
			a.values[def.Name] = value
			return
		}
	}
	a.defs = append(a.defs, def)
	a.values[def.Name] = value
}

// Definition returns the definition of the named parameter.
func (a *Asset) Definition(name string) (Definition, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, d := range a.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Definitions returns all parameter definitions in declaration order.
func (a *Asset) Definitions() []Definition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Definition, len(a.defs))
	copy(out, a.defs)
	return out
}

// Value returns the current textual value of the named parameter.
func (a *Asset) Value(name string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[name]
	return v, ok
}

func (a *Asset) ParentIn() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.In
}

func (a *Asset) ParentDuration() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Duration
}

// SetParameter stores a new textual value. Listeners are only called when notifyUI is set.
func (a *Asset) SetParameter(name, value string, notifyUI bool) {
	a.mu.Lock()
	if _, ok := a.values[name]; !ok {
		a.mu.Unlock()
		return
	}
	a.values[name] = value
	listeners := append([]ChangeFunc(nil), a.listeners...)
	a.mu.Unlock()

	if !notifyUI {
		return
	}
	for _, fn := range listeners {
		fn(a, name, value)
	}
}

// OnChange registers a listener for UI-visible parameter changes.
func (a *Asset) OnChange(fn ChangeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}
