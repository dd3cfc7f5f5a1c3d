package wiggle

import (
	"strconv"
	"strings"
)

type valueKind uint8

const (
	undefinedKind valueKind = iota
	intKind
	floatKind
)

// Value is a track measurement. A value remembers whether it was decoded
// from an integer or a floating point token so that it is written back in
// the same form. The zero Value is undefined.
type Value struct {
	kind valueKind
	i    int64
	f    float64
}

// Undefined is the value of a position that has no measurement. It only
// appears in derived streams (e.g. gap filling or synchronized walks), never
// in a track read from disk.
var Undefined = Value{}

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: intKind, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: floatKind, f: f} }

// Defined reports whether v holds a measurement.
func (v Value) Defined() bool { return v.kind != undefinedKind }

// IsInt reports whether v is a defined integer value.
func (v Value) IsInt() bool { return v.kind == intKind }

// Int64 returns v truncated to an integer. Undefined values yield 0.
func (v Value) Int64() int64 {
	switch v.kind {
	case intKind:
		return v.i
	case floatKind:
		return int64(v.f)
	}
	return 0
}

// Float64 returns v as a float. Undefined values yield 0.
func (v Value) Float64() float64 {
	switch v.kind {
	case intKind:
		return float64(v.i)
	case floatKind:
		return v.f
	}
	return 0
}

// String formats v the way it is written to a track. Floats always carry a
// decimal point so that they parse back as floats. Undefined values format
// as the empty string.
func (v Value) String() string {
	switch v.kind {
	case intKind:
		return strconv.FormatInt(v.i, 10)
	case floatKind:
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".NI") {
			s += ".0"
		}
		return s
	}
	return ""
}

// ParseValue decodes a numeric token. Tokens containing a decimal point are
// floats, everything else must be an integer.
func ParseValue(token string) (Value, error) {
	if strings.IndexByte(token, '.') >= 0 {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return Undefined, err
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return Undefined, err
	}
	return Int(i), nil
}
