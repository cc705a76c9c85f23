package anim

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale formats and parses the real numbers of the text encoding.
// Only the decimal separator is localized; digits are never grouped.
type Locale struct {
	tag     language.Tag
	decimal string
}

// C is the locale the compositing engine uses by default.
var C = Locale{tag: language.Und, decimal: "."}

// NewLocale builds a locale from a BCP 47 tag. "" and "C" select the C locale.
func NewLocale(tag string) (Locale, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "C" || tag == "POSIX" {
		return C, nil
	}
	t, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return C, fmt.Errorf("invalid locale %q: %w", tag, err)
	}
	return Locale{tag: t, decimal: decimalSeparator(t)}, nil
}

// decimalSeparator asks the locale printer how it writes 1.5.
func decimalSeparator(t language.Tag) string {
	s := message.NewPrinter(t).Sprintf("%.1f", 1.5)
	if !strings.HasPrefix(s, "1") || !strings.HasSuffix(s, "5") || len(s) < 3 {
		return "."
	}
	sep := s[1 : len(s)-1]
	if strings.ContainsAny(sep, "0123456789") {
		return "."
	}
	return sep
}

// Tag returns the language tag, language.Und for C.
func (l Locale) Tag() language.Tag { return l.tag }

// Decimal returns the decimal separator.
func (l Locale) Decimal() string {
	if l.decimal == "" {
		return "."
	}
	return l.decimal
}

// FormatFloat writes v with the shortest exact representation.
func (l Locale) FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if d := l.Decimal(); d != "." {
		s = strings.Replace(s, ".", d, 1)
	}
	return s
}

// ParseFloat reads a number written with either the locale separator or a dot.
func (l Locale) ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if d := l.Decimal(); d != "." {
		s = strings.Replace(s, d, ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}
