package merge

import (
	"fmt"
	"math"

	"github.com/grailbio/wiggle/encoding/wiggle"
)

// Func reduces the values of all inputs at one position to a single value.
// It sees neither the region nor the position.
type Func func(values []wiggle.Value) wiggle.Value

// Merger is a predefined reducer. Unless noted otherwise, undefined values
// count as zero, and the result is an integer if all values are.
type Merger uint8

const (
	// Sum adds all values.
	Sum Merger = iota
	// Mean divides the sum by the number of inputs, defined or not.
	Mean
	// Count is the number of defined values.
	Count
	// Minus subtracts the second value from the first.
	Minus
	// Min is the smallest value.
	Min
	// Max is the largest value.
	Max
	// Div divides the first value by the second. An undefined or zero
	// divisor counts as one.
	Div
	// Intersect is the first value where the second is defined and not
	// zero, and zero elsewhere.
	Intersect
	// ClosestToZero is the value with the smallest magnitude. It is zero
	// if the values have different signs.
	ClosestToZero
)

var mergerNames = []string{
	"sum",
	"mean",
	"count",
	"minus",
	"min",
	"max",
	"div",
	"intersect",
	"closest-to-zero",
}

func (m Merger) String() string {
	if int(m) < len(mergerNames) {
		return mergerNames[m]
	}
	return fmt.Sprintf("Merger%d", m)
}

// ParseMerger converts a name such as "closest-to-zero" to a Merger.
func ParseMerger(v string) (Merger, error) {
	for m, name := range mergerNames {
		if name == v {
			return Merger(m), nil
		}
	}
	return Sum, fmt.Errorf("%v: invalid merger", v)
}

// Mergers returns the names of all predefined mergers.
func Mergers() []string {
	return append([]string(nil), mergerNames...)
}

// Arity is the number of inputs m requires, or 0 if it takes any number.
func (m Merger) Arity() int {
	switch m {
	case Minus, Div, Intersect:
		return 2
	}
	return 0
}

// Func returns m as a Func.
func (m Merger) Func() Func { return m.Reduce }

// Reduce applies m to values. Missing inputs of fixed arity mergers are
// undefined.
func (m Merger) Reduce(values []wiggle.Value) wiggle.Value {
	switch m {
	case Sum:
		return sum(values)
	case Mean:
		if len(values) == 0 {
			return wiggle.Undefined
		}
		return wiggle.Float(sum(values).Float64() / float64(len(values)))
	case Count:
		var n int64
		for _, v := range values {
			if v.Defined() {
				n++
			}
		}
		return wiggle.Int(n)
	case Minus:
		a, b := zero(at(values, 0)), zero(at(values, 1))
		if a.IsInt() && b.IsInt() {
			return wiggle.Int(a.Int64() - b.Int64())
		}
		return wiggle.Float(a.Float64() - b.Float64())
	case Min:
		return extreme(values, func(a, b float64) bool { return a < b })
	case Max:
		return extreme(values, func(a, b float64) bool { return a > b })
	case Div:
		d := at(values, 1).Float64()
		if d == 0 {
			d = 1
		}
		return wiggle.Float(at(values, 0).Float64() / d)
	case Intersect:
		if b := at(values, 1); b.Defined() && b.Float64() != 0 {
			return zero(at(values, 0))
		}
		return wiggle.Int(0)
	case ClosestToZero:
		if len(values) == 0 {
			return wiggle.Undefined
		}
		lo := extreme(values, func(a, b float64) bool { return a < b }).Float64()
		hi := extreme(values, func(a, b float64) bool { return a > b }).Float64()
		if lo < 0 && hi > 0 {
			return wiggle.Int(0)
		}
		return extreme(values, func(a, b float64) bool { return math.Abs(a) < math.Abs(b) })
	}
	panic(m)
}

func at(values []wiggle.Value, i int) wiggle.Value {
	if i < len(values) {
		return values[i]
	}
	return wiggle.Undefined
}

// zero replaces an undefined value by integer zero.
func zero(v wiggle.Value) wiggle.Value {
	if v.Defined() {
		return v
	}
	return wiggle.Int(0)
}

func sum(values []wiggle.Value) wiggle.Value {
	var (
		i     int64
		f     float64
		float bool
	)
	for _, v := range values {
		switch {
		case v.IsInt():
			i += v.Int64()
		case v.Defined():
			f += v.Float64()
			float = true
		}
	}
	if float {
		return wiggle.Float(f + float64(i))
	}
	return wiggle.Int(i)
}

// extreme returns the best of values by better, undefined counting as zero.
// Ties go to the earliest value.
func extreme(values []wiggle.Value, better func(a, b float64) bool) wiggle.Value {
	if len(values) == 0 {
		return wiggle.Undefined
	}
	best := zero(values[0])
	for _, v := range values[1:] {
		v = zero(v)
		if better(v.Float64(), best.Float64()) {
			best = v
		}
	}
	return best
}

type mergeWalker struct {
	z    *Zipper
	fn   Func
	item wiggle.Item
}

// Merge walks the given walkers in lock-step and yields, at every position
// held by any of them, the reduction of their values by fn.
func Merge(fn Func, walkers ...wiggle.Walker) wiggle.Walker {
	return &mergeWalker{z: Zip(walkers...), fn: fn}
}

func (w *mergeWalker) Scan() bool {
	if !w.z.Scan() {
		return false
	}
	zi := w.z.Item()
	w.item = wiggle.Item{Region: zi.Region, Pos: zi.Pos, Value: w.fn(zi.Values)}
	return true
}

func (w *mergeWalker) Item() wiggle.Item { return w.item }

func (w *mergeWalker) Err() error { return w.z.Err() }
