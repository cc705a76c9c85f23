package anim

import (
	"fmt"
	"strings"
)

// KeyframeType governs how a keyframe interpolates towards its successor.
type KeyframeType int

const (
	Linear KeyframeType = iota
	Discrete
	Curve
)

// Op returns the operator used in the text encoding.
func (t KeyframeType) Op() string {
	switch t {
	case Discrete:
		return "|="
	case Curve:
		return "~="
	default:
		return "="
	}
}

func (t KeyframeType) String() string {
	switch t {
	case Linear:
		return "linear"
	case Discrete:
		return "discrete"
	case Curve:
		return "curve"
	}
	return fmt.Sprintf("keyframetype(%d)", int(t))
}

// Engine keyframe type codes, in the order the compositing engine declares them.
const (
	mltDiscrete = 0
	mltLinear   = 1
	mltSmooth   = 2
)

// FromMLT converts an engine keyframe type code. Unknown codes map to Linear.
func FromMLT(code int) KeyframeType {
	switch code {
	case mltDiscrete:
		return Discrete
	case mltSmooth:
		return Curve
	default:
		return Linear
	}
}

// MLT returns the engine code of t.
func (t KeyframeType) MLT() int {
	switch t {
	case Discrete:
		return mltDiscrete
	case Curve:
		return mltSmooth
	default:
		return mltLinear
	}
}

// ParseKeyframeType accepts a type name or its text operator.
func ParseKeyframeType(s string) (KeyframeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "=":
		return Linear, nil
	case "discrete", "hold", "|=":
		return Discrete, nil
	case "curve", "smooth", "~=":
		return Curve, nil
	}
	return Linear, fmt.Errorf("unknown keyframe type %q", s)
}
