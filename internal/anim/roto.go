package anim

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// MarshalJSON writes each control point as [[h1x,h1y],[px,py],[h2x,h2y]].
func (s Spline) MarshalJSON() ([]byte, error) {
	out := make([][3][2]float64, len(s))
	for i, bp := range s {
		out[i] = [3][2]float64{
			{bp.H1.X, bp.H1.Y},
			{bp.P.X, bp.P.Y},
			{bp.H2.X, bp.H2.Y},
		}
	}
	return json.Marshal(out)
}

func (s *Spline) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json5.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := splineFrom(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// FormatRoto encodes spline keys as a JSON object keyed by the absolute frame,
// zero padded to the number of digits of duration.
func FormatRoto(keys []Key, in, duration int64) (string, error) {
	width := 1
	if duration > 0 {
		width = int(math.Log10(float64(duration))) + 1
	}
	m := make(map[string]Spline, len(keys))
	for _, k := range keys {
		s, ok := k.Value.(Spline)
		if !ok {
			return "", fmt.Errorf("frame %d: %s value in roto data", k.Frame, k.Value.Kind())
		}
		if s == nil {
			s = Spline{}
		}
		m[fmt.Sprintf("%0*d", width, in+k.Frame)] = s
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseRoto decodes the output of FormatRoto. Frames are made relative to in
// again. Comments and trailing commas are tolerated.
func ParseRoto(data string, in int64) ([]Key, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var raw map[string]any
	if err := json5.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	keys := make([]Key, 0, len(raw))
	for name, payload := range raw {
		frame, err := strconv.ParseInt(strings.TrimSpace(name), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, name, err)
		}
		s, err := splineFrom(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, name, err)
		}
		keys = append(keys, Key{Frame: frame - in, Type: Linear, Value: s})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Frame < keys[j].Frame })
	return keys, nil
}

func splineFrom(raw any) (Spline, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("point list is %T", raw)
	}
	s := make(Spline, 0, len(list))
	for i, item := range list {
		triple, ok := item.([]any)
		if !ok || len(triple) != 3 {
			return nil, fmt.Errorf("point %d: want 3 coordinates pairs", i)
		}
		var pts [3]Point
		for j, c := range triple {
			p, err := pointFrom(c)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			pts[j] = p
		}
		s = append(s, BPoint{H1: pts[0], P: pts[1], H2: pts[2]})
	}
	return s, nil
}

func pointFrom(raw any) (Point, error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return Point{}, fmt.Errorf("coordinate is not a pair")
	}
	x, okx := number(pair[0])
	y, oky := number(pair[1])
	if !okx || !oky {
		return Point{}, fmt.Errorf("coordinate is not numeric")
	}
	return Point{X: x, Y: y}, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
