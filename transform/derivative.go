package transform

import "github.com/grailbio/wiggle/encoding/wiggle"

// DiffOpts controls the divided difference walkers.
type DiffOpts struct {
	// Step restricts the derivative to positions this far apart from
	// their neighbours. Zero means no restriction.
	Step int
	// AutoStep sets Step, if zero, to the distance between the first two
	// positions of the walk.
	AutoStep bool
}

type diffWalker struct {
	src wiggle.Walker
	// window holds the last len(window) items; n of them are filled.
	window []wiggle.Item
	n      int
	// current is the window slot the derivative is reported at.
	current  int
	step     int
	autoStep bool
	item     wiggle.Item
}

func newDiffWalker(src wiggle.Walker, size, current int, opts DiffOpts) *diffWalker {
	return &diffWalker{
		src:      src,
		window:   make([]wiggle.Item, size),
		current:  current,
		step:     opts.Step,
		autoStep: opts.AutoStep && opts.Step == 0,
	}
}

// ForwardDividedDifference yields, for every position of src, the slope
// between it and the next position.
func ForwardDividedDifference(src wiggle.Walker, opts DiffOpts) wiggle.Walker {
	return newDiffWalker(src, 2, 0, opts)
}

// BackwardDividedDifference yields, for every position of src, the slope
// between the previous position and it.
func BackwardDividedDifference(src wiggle.Walker, opts DiffOpts) wiggle.Walker {
	return newDiffWalker(src, 2, 1, opts)
}

// CentralDividedDifference yields, for every position of src, the slope
// between the previous and the next position. If step is zero, it is set
// to the distance between the first two positions of the walk.
func CentralDividedDifference(src wiggle.Walker, step int) wiggle.Walker {
	return newDiffWalker(src, 3, 1, DiffOpts{Step: step, AutoStep: true})
}

func (w *diffWalker) push(item wiggle.Item) {
	if w.n < len(w.window) {
		w.window[w.n] = item
		w.n++
		return
	}
	copy(w.window, w.window[1:])
	w.window[len(w.window)-1] = item
}

// defined reports whether the window holds a derivative.
func (w *diffWalker) defined() bool {
	if w.n < len(w.window) {
		return false
	}
	first, last := w.window[0], w.window[w.n-1]
	if first.Region != last.Region {
		return false
	}
	if w.step != 0 {
		for i := 1; i < w.n; i++ {
			if w.window[i].Pos-w.window[i-1].Pos != w.step {
				return false
			}
		}
	}
	return true
}

func (w *diffWalker) Scan() bool {
	for w.src.Scan() {
		w.push(w.src.Item())
		if w.autoStep && w.n > 1 {
			w.step = w.window[1].Pos - w.window[0].Pos
			w.autoStep = false
		}
		if !w.defined() {
			continue
		}
		first, last := w.window[0], w.window[w.n-1]
		cur := w.window[w.current]
		slope := (last.Value.Float64() - first.Value.Float64()) / float64(last.Pos-first.Pos)
		w.item = wiggle.Item{Region: cur.Region, Pos: cur.Pos, Value: wiggle.Float(slope)}
		return true
	}
	return false
}

func (w *diffWalker) Item() wiggle.Item { return w.item }

func (w *diffWalker) Err() error { return w.src.Err() }
