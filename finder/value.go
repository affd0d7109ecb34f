package finder

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind is the variant of a search Value.
type Kind int

const (
	KindInteger Kind = iota + 1
	KindReal
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is the literal being searched for. The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func Integer(v int64) Value {
	return Value{kind: KindInteger, i: v}
}

func Real(v float64) Value {
	return Value{kind: KindReal, f: v}
}

func Text(v string) Value {
	return Value{kind: KindText, s: v}
}

// ParseValue decides the variant of a raw command line or tool argument:
// integer first, then real, then text. forceText skips the numeric attempts.
// NaN and infinities are words, not numbers, and stay text.
func ParseValue(raw string, forceText bool) Value {
	if !forceText {
		trimmed := strings.TrimSpace(raw)
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return Integer(i)
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return Real(f)
		}
	}
	return Text(raw)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int64() int64 { return v.i }

func (v Value) Float64() float64 { return v.f }

// String is the plain textual form of the value.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.s
	}
}

// Size is what a column must be able to hold: decimal digits for numbers,
// characters for text.
func (v Value) Size() int {
	switch v.kind {
	case KindInteger, KindReal:
		n := 0
		for _, r := range v.String() {
			if r >= '0' && r <= '9' {
				n++
			}
		}
		return n
	default:
		return utf8.RuneCountInString(v.s)
	}
}
