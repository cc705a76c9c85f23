package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/kfanim/internal/anim"
)

// ErrNotScalar is returned when an expression is requested for non numeric samples.
var ErrNotScalar = errors.New("samples are not scalar")

// GenerateExpression builds an FFmpeg piecewise expression of the frame
// variable (usually "n", "on" inside zoompan) reproducing the samples.
func GenerateExpression(samples []Sample, variable string) (string, error) {
	values := make([]float64, len(samples))
	for i, s := range samples {
		v, ok := s.Value.(anim.Scalar)
		if !ok {
			return "", fmt.Errorf("frame %d: %w", s.Frame, ErrNotScalar)
		}
		values[i] = float64(v)
	}
	return buildExpression(samples, values, variable), nil
}

// GenerateRectExpressions builds one expression per rect field, in x, y, w, h, opacity order.
func GenerateRectExpressions(samples []Sample, variable string) ([5]string, error) {
	var exprs [5]string
	for field := range exprs {
		values := make([]float64, len(samples))
		for i, s := range samples {
			r, ok := s.Value.(anim.Rect)
			if !ok {
				return exprs, fmt.Errorf("frame %d: %s value is not a rect", s.Frame, s.Value.Kind())
			}
			values[i] = r.Field(field)
		}
		exprs[field] = buildExpression(samples, values, variable)
	}
	return exprs, nil
}

func buildExpression(samples []Sample, values []float64, variable string) string {
	if len(samples) == 0 {
		return ""
	}
	if len(samples) == 1 {
		return fmt.Sprintf("%.6f", values[0])
	}

	// if(lte(n,end),segment,if(lte(n,end2),segment2,...,last))
	var b strings.Builder
	open := 0
	for i := 0; i < len(samples)-1; i++ {
		start, end := samples[i].Frame, samples[i+1].Frame
		fmt.Fprintf(&b, "if(lte(%s,%d),%s,", variable, end,
			segmentExpression(samples[i].Type, values[i], values[i+1], start, end, variable))
		open++
	}
	fmt.Fprintf(&b, "%.6f", values[len(values)-1])
	b.WriteString(strings.Repeat(")", open))
	return b.String()
}

func segmentExpression(typ anim.KeyframeType, a, b float64, start, end int64, variable string) string {
	if end <= start || typ == anim.Discrete || a == b {
		return fmt.Sprintf("%.6f", a)
	}
	t := fmt.Sprintf("clip((%s-%d)/%d,0,1)", variable, start, end-start)
	if typ == anim.Curve {
		return fmt.Sprintf("%.6f+(%.6f)*(-pow(%s,3)+1.5*pow(%s,2)+0.5*%s)", a, b-a, t, t, t)
	}
	return fmt.Sprintf("%.6f+(%.6f)*%s", a, b-a, t)
}
