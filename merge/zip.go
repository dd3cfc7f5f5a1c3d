// Package merge walks several wiggle tracks in lock-step and reduces the
// values they hold at each position.
package merge

import (
	"fmt"

	"github.com/grailbio/wiggle/encoding/wiggle"
)

// RegionOrderError is returned by a Zipper when a region reappears after
// the walk moved past it. The inputs do not present their regions in a
// mutually compatible order; walking them with a forced index fixes this.
type RegionOrderError struct {
	Region string
}

func (e *RegionOrderError) Error() string {
	return fmt.Sprintf("region %s reappears after it was closed: tracks are not sorted compatibly", e.Region)
}

// ZipItem holds the values of all inputs at one position. Values[i] is
// wiggle.Undefined if input i has no value there.
type ZipItem struct {
	Region string
	Pos    int
	Values []wiggle.Value
}

// lookahead is the next unconsumed item of one input.
type lookahead struct {
	w    wiggle.Walker
	item wiggle.Item
	ok   bool
}

func (l *lookahead) advance() error {
	l.ok = l.w.Scan()
	if !l.ok {
		return l.w.Err()
	}
	return nil
}

// Zipper combines walkers into one walk over the union of their positions,
// in ascending (region, position) order. Each input must present its
// positions in ascending order within a region, and all inputs must
// present their regions in the same relative order.
type Zipper struct {
	inputs  []lookahead
	started bool
	region  string
	closed  map[string]bool
	item    ZipItem
	err     error
}

// Zip returns a Zipper over the given walkers.
func Zip(walkers ...wiggle.Walker) *Zipper {
	z := &Zipper{
		inputs: make([]lookahead, len(walkers)),
		closed: map[string]bool{},
	}
	for i, w := range walkers {
		z.inputs[i].w = w
	}
	return z
}

func less(a, b wiggle.Item) bool {
	if a.Region != b.Region {
		return a.Region < b.Region
	}
	return a.Pos < b.Pos
}

// Scan advances to the next position held by any input.
func (z *Zipper) Scan() bool {
	if z.err != nil {
		return false
	}
	if !z.started {
		z.started = true
		for i := range z.inputs {
			if z.err = z.inputs[i].advance(); z.err != nil {
				return false
			}
			if z.inputs[i].ok {
				z.inputs[i].item = z.inputs[i].w.Item()
			}
		}
	}
	var (
		key   wiggle.Item
		found bool
	)
	for i := range z.inputs {
		in := &z.inputs[i]
		if in.ok && (!found || less(in.item, key)) {
			key, found = in.item, true
		}
	}
	if !found {
		return false
	}
	if z.item.Values == nil || z.region != key.Region {
		if z.closed[key.Region] {
			z.err = &RegionOrderError{Region: key.Region}
			return false
		}
		if z.item.Values != nil {
			z.closed[z.region] = true
		}
		z.region = key.Region
	}
	values := make([]wiggle.Value, len(z.inputs))
	for i := range z.inputs {
		in := &z.inputs[i]
		if !in.ok || in.item.Region != key.Region || in.item.Pos != key.Pos {
			continue
		}
		values[i] = in.item.Value
		if z.err = in.advance(); z.err != nil {
			return false
		}
		if in.ok {
			in.item = in.w.Item()
		}
	}
	z.item = ZipItem{Region: key.Region, Pos: key.Pos, Values: values}
	return true
}

// Item returns the current position and the values of all inputs there.
func (z *Zipper) Item() ZipItem { return z.item }

// Err returns the first error of any input, or a *RegionOrderError.
func (z *Zipper) Err() error { return z.err }
