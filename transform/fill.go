package transform

import "github.com/grailbio/wiggle/encoding/wiggle"

// FillOpts controls Fill.
type FillOpts struct {
	// Regions maps region names to the ranges to fill. Regions missing
	// from a non-nil map are not filled. If nil, every region is filled
	// between its first and last position.
	Regions map[string]Range
	// Filler is the value of filled positions, and replaces undefined
	// values of the source. The zero value fills with wiggle.Undefined.
	Filler wiggle.Value
	// OnlyEdges fills only the first and last position of every gap.
	OnlyEdges bool
}

// gap is a run of missing positions [from, to]; next is the next position
// to emit.
type gap struct {
	region   string
	next, to int
}

type fillWalker struct {
	src  wiggle.Walker
	opts FillOpts

	started bool
	region  string
	rng     Range
	bounded bool // rng applies to region
	last    int  // 0 if no position of region was emitted

	// At most two gaps are pending: the tail of the previous region and a
	// gap before held.
	gaps []gap
	held *wiggle.Item
	done bool

	item wiggle.Item
}

// Fill yields the items of src and, in position order among them, filler
// items for the positions src lacks.
func Fill(src wiggle.Walker, opts FillOpts) wiggle.Walker {
	return &fillWalker{src: src, opts: opts, gaps: make([]gap, 0, 2)}
}

func (w *fillWalker) Scan() bool {
	for {
		if len(w.gaps) > 0 {
			g := &w.gaps[0]
			w.item = wiggle.Item{Region: g.region, Pos: g.next, Value: w.opts.Filler}
			switch {
			case g.next >= g.to:
				w.gaps = append(w.gaps[:0], w.gaps[1:]...)
			case w.opts.OnlyEdges:
				g.next = g.to
			default:
				g.next++
			}
			return true
		}
		if w.held != nil {
			w.item = *w.held
			w.held = nil
			if !w.item.Value.Defined() {
				w.item.Value = w.opts.Filler
			}
			if w.item.Pos > w.last {
				w.last = w.item.Pos
			}
			return true
		}
		if w.done {
			return false
		}
		if !w.src.Scan() {
			w.done = true
			w.closeRegion()
			continue
		}
		item := w.src.Item()
		if !w.started || item.Region != w.region {
			if w.started {
				w.closeRegion()
			}
			w.started = true
			w.region = item.Region
			w.last = 0
			w.rng, w.bounded = w.opts.Regions[item.Region]
		}
		switch {
		case w.bounded:
			from := w.rng.Start
			if w.last >= from {
				from = w.last + 1
			}
			to := item.Pos - 1
			if to > w.rng.Stop {
				to = w.rng.Stop
			}
			w.addGap(from, to)
		case w.opts.Regions == nil && w.last > 0:
			w.addGap(w.last+1, item.Pos-1)
		}
		w.held = &item
	}
}

// closeRegion queues the tail of the current region up to its range.
func (w *fillWalker) closeRegion() {
	if !w.started || !w.bounded {
		return
	}
	from := w.rng.Start
	if w.last >= from {
		from = w.last + 1
	}
	w.addGap(from, w.rng.Stop)
}

func (w *fillWalker) addGap(from, to int) {
	if from <= to {
		w.gaps = append(w.gaps, gap{region: w.region, next: from, to: to})
	}
}

func (w *fillWalker) Item() wiggle.Item { return w.item }

func (w *fillWalker) Err() error { return w.src.Err() }
