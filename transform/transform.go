// Package transform derives new wiggle walks from existing ones: gap
// filling, value mapping and filtering, and derivatives.
package transform

import "github.com/grailbio/wiggle/encoding/wiggle"

// Range is a 1-based closed interval of positions.
type Range struct {
	Start, Stop int
}

// Contains reports whether pos lies in r.
func (r Range) Contains(pos int) bool {
	return r.Start <= pos && pos <= r.Stop
}

type mapWalker struct {
	src  wiggle.Walker
	fn   func(wiggle.Item) wiggle.Item
	item wiggle.Item
}

// Map applies fn to every item of src. fn must not change the order of
// items.
func Map(src wiggle.Walker, fn func(wiggle.Item) wiggle.Item) wiggle.Walker {
	return &mapWalker{src: src, fn: fn}
}

func (w *mapWalker) Scan() bool {
	if !w.src.Scan() {
		return false
	}
	w.item = w.fn(w.src.Item())
	return true
}

func (w *mapWalker) Item() wiggle.Item { return w.item }

func (w *mapWalker) Err() error { return w.src.Err() }

type filterWalker struct {
	src  wiggle.Walker
	keep func(wiggle.Item) bool
}

// Filter yields the items of src for which keep returns true.
func Filter(src wiggle.Walker, keep func(wiggle.Item) bool) wiggle.Walker {
	return &filterWalker{src: src, keep: keep}
}

func (w *filterWalker) Scan() bool {
	for w.src.Scan() {
		if w.keep(w.src.Item()) {
			return true
		}
	}
	return false
}

func (w *filterWalker) Item() wiggle.Item { return w.src.Item() }

func (w *filterWalker) Err() error { return w.src.Err() }

// Scale returns a Map function multiplying defined values by factor.
func Scale(factor float64) func(wiggle.Item) wiggle.Item {
	return func(item wiggle.Item) wiggle.Item {
		if item.Value.Defined() {
			item.Value = wiggle.Float(item.Value.Float64() * factor)
		}
		return item
	}
}

// InRegions returns a Filter function keeping the items that lie within
// the range of their region.
func InRegions(regions map[string]Range) func(wiggle.Item) bool {
	return func(item wiggle.Item) bool {
		r, ok := regions[item.Region]
		return ok && r.Contains(item.Pos)
	}
}

// AtLeast returns a Filter function keeping the items with a defined value
// of at least threshold.
func AtLeast(threshold float64) func(wiggle.Item) bool {
	return func(item wiggle.Item) bool {
		return item.Value.Defined() && item.Value.Float64() >= threshold
	}
}

type concatWalker struct {
	walkers []wiggle.Walker
	err     error
}

// Concat walks the given walkers one after another.
func Concat(walkers ...wiggle.Walker) wiggle.Walker {
	return &concatWalker{walkers: walkers}
}

func (w *concatWalker) Scan() bool {
	for len(w.walkers) > 0 && w.err == nil {
		if w.walkers[0].Scan() {
			return true
		}
		w.err = w.walkers[0].Err()
		if w.err == nil {
			w.walkers = w.walkers[1:]
		}
	}
	return false
}

func (w *concatWalker) Item() wiggle.Item { return w.walkers[0].Item() }

func (w *concatWalker) Err() error { return w.err }
