package params

import "math"

// ScaleMode selects how normalized UI values map onto real values.
type ScaleMode int

const (
	ScaleLinear ScaleMode = 0
	// ScaleLog is logarithmic below the default value. The owner encodes it as -1.
	ScaleLog ScaleMode = -1
)

// logExponent is applied below the default when denormalizing; Normalize uses its inverse (0.6).
const logExponent = 10.0 / 6

// Range describes the real domain of a parameter.
type Range struct {
	Min     float64   `yaml:"min"`
	Max     float64   `yaml:"max"`
	Factor  float64   `yaml:"factor"`
	Default float64   `yaml:"default"`
	Scale   ScaleMode `yaml:"scale"`
}

func (r Range) factor() float64 {
	if r.Factor == 0 {
		return 1
	}
	return r.Factor
}

// Denormalize maps a 0..1 UI value to the real parameter value.
func (r Range) Denormalize(n float64) float64 {
	f := r.factor()
	if r.Scale == ScaleLog {
		norm := r.Default
		if n >= 0.5 {
			return norm + 2*(n-0.5)*(r.Max/f-norm)
		}
		return norm - math.Pow(2*(0.5-n), logExponent)*(norm-r.Min/f)
	}
	return (n*(r.Max-r.Min) + r.Min) / f
}

// Normalize maps a real parameter value back to the 0..1 UI scale.
// It is the inverse of Denormalize.
func (r Range) Normalize(v float64) float64 {
	f := r.factor()
	if r.Scale == ScaleLog {
		norm := r.Default
		if v >= norm {
			span := r.Max/f - norm
			if span == 0 {
				return 0.5
			}
			return 0.5 + (v-norm)/span*0.5
		}
		span := norm - r.Min/f
		if span == 0 {
			return 0.5
		}
		scaled := (norm - v) / span
		return 0.5 - math.Pow(scaled, 1/logExponent)*0.5
	}
	if r.Max == r.Min {
		return 0.5
	}
	return (v*f - r.Min) / (r.Max - r.Min)
}
