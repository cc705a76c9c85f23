package renderer

import (
	"math"
	"sort"

	"github.com/ivlev/kfanim/internal/anim"
)

// Sample is a keyframe placed on the frame grid.
type Sample struct {
	Frame int64
	Type  anim.KeyframeType
	Value anim.Value
}

// Interpolate computes the value at frame between two bracketing samples.
// The segment algorithm is chosen by prev.Type. Outside [prev, next] the
// nearest sample value is returned.
func Interpolate(prev, next Sample, frame int64) anim.Value {
	if frame <= prev.Frame || next.Frame <= prev.Frame {
		return prev.Value
	}
	if frame >= next.Frame {
		return next.Value
	}

	switch a := prev.Value.(type) {
	case anim.Scalar:
		b, ok := next.Value.(anim.Scalar)
		if !ok {
			return prev.Value
		}
		t := progress(prev.Frame, next.Frame, frame)
		return anim.Scalar(segment(prev.Type, float64(a), float64(b), t))

	case anim.Rect:
		b, ok := next.Value.(anim.Rect)
		if !ok {
			return prev.Value
		}
		t := progress(prev.Frame, next.Frame, frame)
		var f [5]float64
		for i := range f {
			f[i] = segment(prev.Type, a.Field(i), b.Field(i), t)
			if i < 4 {
				// geometry is expressed in whole pixels
				f[i] = math.Trunc(f[i])
			}
		}
		return anim.RectFields(f)

	case anim.Spline:
		b, ok := next.Value.(anim.Spline)
		if !ok {
			return prev.Value
		}
		t := float64(frame-prev.Frame) / float64(next.Frame-prev.Frame+1)
		return lerpSpline(a, b, t)
	}
	return prev.Value
}

// At interpolates within an ordered sample list. Before the first sample the
// first value holds, after the last sample the last value holds.
func At(samples []Sample, frame int64) (anim.Value, bool) {
	if len(samples) == 0 {
		return nil, false
	}
	i := sort.Search(len(samples), func(i int) bool { return samples[i].Frame > frame })
	switch {
	case i == 0:
		return samples[0].Value, true
	case i == len(samples):
		return samples[len(samples)-1].Value, true
	}
	return Interpolate(samples[i-1], samples[i], frame), true
}

func progress(from, to, frame int64) float64 {
	return clamp(float64(frame-from)/float64(to-from), 0, 1)
}

func segment(typ anim.KeyframeType, a, b, t float64) float64 {
	switch typ {
	case anim.Discrete:
		return a
	case anim.Curve:
		return catmullRom(a, a, b, b, t)
	default:
		return lerp(a, b, t)
	}
}

func lerpSpline(a, b anim.Spline, t float64) anim.Spline {
	n := min(len(a), len(b))
	out := make(anim.Spline, n)
	for i := 0; i < n; i++ {
		out[i] = anim.BPoint{
			H1: lerpPoint(a[i].H1, b[i].H1, t),
			P:  lerpPoint(a[i].P, b[i].P, t),
			H2: lerpPoint(a[i].H2, b[i].H2, t),
		}
	}
	return out
}

func lerpPoint(a, b anim.Point, t float64) anim.Point {
	if a == b {
		return a
	}
	return anim.Point{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// catmullRom evaluates the spline segment between x1 and x2. With the outer
// points duplicated it is the compositing engine's "smooth" keyframe.
func catmullRom(x0, x1, x2, x3, t float64) float64 {
	t2 := t * t
	a0 := -0.5*x0 + 1.5*x1 - 1.5*x2 + 0.5*x3
	a1 := x0 - 2.5*x1 + 2*x2 - 0.5*x3
	a2 := -0.5*x0 + 0.5*x2
	return a0*t*t2 + a1*t2 + a2*t + x1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
