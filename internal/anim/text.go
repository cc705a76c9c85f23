package anim

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/kfanim/internal/params"
)

// ErrMalformed is returned when an animation string cannot be decoded.
var ErrMalformed = errors.New("malformed animation")

// Key is one decoded keyframe. Frame is absolute, as written in the encoding.
type Key struct {
	Frame int64
	Type  KeyframeType
	Value Value
}

// ParseText decodes the semicolon separated `frame<op>value` encoding.
//
// An entry without '=' is a value at frame 0. Keys are returned sorted by frame;
// when a frame appears twice the later entry wins. Any undecodable entry fails
// the whole parse.
func ParseText(s string, t params.Type, loc Locale) ([]Key, error) {
	var keys []Key
	for i, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		k, err := parseEntry(entry, t, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d %q: %v", ErrMalformed, i, entry, err)
		}
		keys = append(keys, k)
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Frame < keys[j].Frame })
	out := keys[:0]
	for _, k := range keys {
		if n := len(out); n > 0 && out[n-1].Frame == k.Frame {
			out[n-1] = k
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

func parseEntry(entry string, t params.Type, loc Locale) (Key, error) {
	k := Key{Type: Linear}
	raw := entry
	if idx := strings.IndexByte(entry, '='); idx >= 0 {
		left := strings.TrimSpace(entry[:idx])
		raw = entry[idx+1:]
		switch {
		case strings.HasSuffix(left, "|"):
			k.Type = Discrete
			left = left[:len(left)-1]
		case strings.HasSuffix(left, "~"):
			k.Type = Curve
			left = left[:len(left)-1]
		}
		frame, err := strconv.ParseInt(strings.TrimSpace(left), 10, 64)
		if err != nil {
			return k, fmt.Errorf("frame: %w", err)
		}
		k.Frame = frame
	}

	v, err := ParseValue(raw, t, loc)
	if err != nil {
		return k, err
	}
	k.Value = v
	return k, nil
}

// ParseValue decodes the value part of one entry for a parameter of type t.
func ParseValue(raw string, t params.Type, loc Locale) (Value, error) {
	switch t {
	case params.AnimatedRect:
		return parseRect(raw, loc)
	case params.RotoSpline:
		return nil, fmt.Errorf("%s has no text encoding", t)
	default:
		f, err := loc.ParseFloat(raw)
		if err != nil {
			return nil, err
		}
		return Scalar(f), nil
	}
}

func parseRect(raw string, loc Locale) (Rect, error) {
	fields := strings.Fields(raw)
	if len(fields) < 4 || len(fields) > 5 {
		return Rect{}, fmt.Errorf("rect needs 4 or 5 fields, got %d", len(fields))
	}
	f := [5]float64{4: 1}
	for i, s := range fields {
		v, err := loc.ParseFloat(s)
		if err != nil {
			return Rect{}, fmt.Errorf("rect field %d: %w", i, err)
		}
		f[i] = v
	}
	return RectFields(f), nil
}

// FormatText encodes keys in the order given. It is the inverse of ParseText.
func FormatText(keys []Key, t params.Type, loc Locale) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatInt(k.Frame, 10))
		b.WriteString(k.Type.Op())
		b.WriteString(FormatValue(k.Value, loc))
	}
	return b.String()
}

// FormatValue encodes a single value. Rect geometry is always written with a dot,
// only the opacity follows the locale.
func FormatValue(v Value, loc Locale) string {
	switch v := v.(type) {
	case Scalar:
		return loc.FormatFloat(float64(v))
	case Rect:
		return strings.Join([]string{
			C.FormatFloat(v.X),
			C.FormatFloat(v.Y),
			C.FormatFloat(v.W),
			C.FormatFloat(v.H),
			loc.FormatFloat(v.Opacity),
		}, " ")
	case Spline:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}
