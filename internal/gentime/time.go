package gentime

import (
	"fmt"
	"math"
)

// Rate is a frame rate expressed as Num/Den frames per second (25/1, 30000/1001...).
type Rate struct {
	Num int64 `yaml:"num"`
	Den int64 `yaml:"den"`
}

// Common rates
var (
	PAL  = Rate{Num: 25, Den: 1}
	NTSC = Rate{Num: 30000, Den: 1001}
)

// Valid reports whether the rate can be used for frame conversions.
func (r Rate) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// FPS returns the rate as a floating point value.
func (r Rate) FPS() float64 {
	if !r.Valid() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rate) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Time is an exact position in seconds stored as a reduced fraction.
// The zero value is time 0.
type Time struct {
	num int64
	den int64
}

// FromFrames returns the time of the given frame at rate r.
func FromFrames(frames int64, r Rate) Time {
	if !r.Valid() {
		return Time{}
	}
	return normalize(frames*r.Den, r.Num)
}

// Frames returns the frame number at rate r, rounded to the nearest frame.
func (t Time) Frames(r Rate) int64 {
	if !r.Valid() {
		return 0
	}
	n, d := t.parts()
	// frames = n/d * Num/Den
	return int64(math.Round(float64(n*r.Num) / float64(d*r.Den)))
}

// Seconds returns the time as floating point seconds.
func (t Time) Seconds() float64 {
	n, d := t.parts()
	return float64(n) / float64(d)
}

// Compare returns -1, 0 or +1.
func (t Time) Compare(o Time) int {
	a, b := t.parts()
	c, d := o.parts()
	l, r := a*d, c*b
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func (t Time) Before(o Time) bool { return t.Compare(o) < 0 }
func (t Time) After(o Time) bool  { return t.Compare(o) > 0 }
func (t Time) Equal(o Time) bool  { return t.Compare(o) == 0 }

func (t Time) Add(o Time) Time {
	a, b := t.parts()
	c, d := o.parts()
	return normalize(a*d+c*b, b*d)
}

func (t Time) Sub(o Time) Time {
	a, b := t.parts()
	c, d := o.parts()
	return normalize(a*d-c*b, b*d)
}

func (t Time) String() string {
	n, d := t.parts()
	if d == 1 {
		return fmt.Sprintf("%ds", n)
	}
	return fmt.Sprintf("%d/%ds", n, d)
}

// parts returns numerator and a strictly positive denominator.
func (t Time) parts() (int64, int64) {
	if t.den == 0 {
		return 0, 1
	}
	return t.num, t.den
}

func normalize(n, d int64) Time {
	if d == 0 {
		return Time{}
	}
	if d < 0 {
		n, d = -n, -d
	}
	if n == 0 {
		return Time{num: 0, den: 1}
	}
	g := gcd(abs(n), d)
	return Time{num: n / g, den: d / g}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
