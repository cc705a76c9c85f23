package anim

import (
	"github.com/ivlev/kfanim/internal/params"
)

// Value is the payload of a keyframe. It is one of Scalar, Rect or Spline.
type Value interface {
	// Kind returns the parameter type this value belongs to.
	Kind() params.Type
	isValue()
}

// Scalar is the value of a plain animated number.
type Scalar float64

// Rect is an animated geometry with opacity.
type Rect struct {
	X, Y, W, H float64
	Opacity    float64
}

// Point is a position in frame-normalized coordinates.
type Point struct {
	X, Y float64
}

// BPoint is a bezier control point with its two handles.
type BPoint struct {
	H1, P, H2 Point
}

// Spline is an ordered list of control points of a roto shape.
type Spline []BPoint

func (Scalar) Kind() params.Type { return params.KeyframeParam }
func (Rect) Kind() params.Type   { return params.AnimatedRect }
func (Spline) Kind() params.Type { return params.RotoSpline }

func (Scalar) isValue() {}
func (Rect) isValue()   {}
func (Spline) isValue() {}

// Accepts reports whether v can be stored in a parameter of type t.
func Accepts(t params.Type, v Value) bool {
	if v == nil {
		return false
	}
	if t == params.Double {
		t = params.KeyframeParam
	}
	return v.Kind() == t
}

// Zero returns the value used for the initial keyframe of an empty parameter.
func Zero(t params.Type, r params.Range) Value {
	switch t {
	case params.AnimatedRect:
		return Rect{Opacity: 1}
	case params.RotoSpline:
		return Spline{}
	default:
		return Scalar(r.Default)
	}
}

// Equal reports whether a and b hold the same variant and contents.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && av == bv
	case Rect:
		bv, ok := b.(Rect)
		return ok && av == bv
	case Spline:
		bv, ok := b.(Spline)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

// Field returns the i-th component of r in x, y, w, h, opacity order.
func (r Rect) Field(i int) float64 {
	switch i {
	case 0:
		return r.X
	case 1:
		return r.Y
	case 2:
		return r.W
	case 3:
		return r.H
	default:
		return r.Opacity
	}
}

// RectFields builds a Rect from components in x, y, w, h, opacity order.
func RectFields(f [5]float64) Rect {
	return Rect{X: f[0], Y: f[1], W: f[2], H: f[3], Opacity: f[4]}
}
