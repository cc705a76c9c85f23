package anim

// Span is a closed min/max interval.
type Span struct {
	Min, Max float64
}

// Ranges returns the per-field spans of all rect keys in x, y, w, h, opacity order.
// ok is false when no key holds a rect.
func Ranges(keys []Key) (spans [5]Span, ok bool) {
	for _, k := range keys {
		r, isRect := k.Value.(Rect)
		if !isRect {
			continue
		}
		for i := range spans {
			v := r.Field(i)
			if !ok {
				spans[i] = Span{Min: v, Max: v}
				continue
			}
			spans[i].Min = min(spans[i].Min, v)
			spans[i].Max = max(spans[i].Max, v)
		}
		ok = true
	}
	return spans, ok
}
