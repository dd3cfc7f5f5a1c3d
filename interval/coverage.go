package interval

import "github.com/grailbio/wiggle/encoding/wiggle"

// Interval is a run of consecutive positions [Begin, End] of a region,
// 1-based and inclusive.
type Interval struct {
	Region     string
	Begin, End int
}

// Intervals iterates over the covered intervals of a walk.
type Intervals struct {
	src      wiggle.Walker
	pending  Interval
	havePend bool
	done     bool
	cur      Interval
}

// Coverage returns the maximal intervals of consecutive positions of src.
// All positions count, whatever their value; filter src to restrict
// coverage to some values.
func Coverage(src wiggle.Walker) *Intervals {
	return &Intervals{src: src}
}

// Scan advances to the next interval.
func (it *Intervals) Scan() bool {
	for !it.done {
		if !it.src.Scan() {
			it.done = true
			break
		}
		item := it.src.Item()
		if it.havePend && item.Region == it.pending.Region && item.Pos == it.pending.End+1 {
			it.pending.End = item.Pos
			continue
		}
		prev, had := it.pending, it.havePend
		it.pending, it.havePend = Interval{Region: item.Region, Begin: item.Pos, End: item.Pos}, true
		if had {
			it.cur = prev
			return true
		}
	}
	if it.havePend {
		it.cur, it.havePend = it.pending, false
		return true
	}
	return false
}

// Interval returns the current interval.
func (it *Intervals) Interval() Interval { return it.cur }

// Err returns the error of the underlying walk, if any.
func (it *Intervals) Err() error { return it.src.Err() }
