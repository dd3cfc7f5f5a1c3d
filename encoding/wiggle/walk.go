package wiggle

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Item is the value of a track at one position.
type Item struct {
	Region string
	// Pos is the 1-based position within Region.
	Pos   int
	Value Value
}

// Walker iterates over the items of a track. Within a region, items come in
// increasing position order.
//
// Scan advances to the next item, which is then available through Item.
// Once Scan returns false it never returns true again; Err tells whether
// the walk stopped because of an error or because the items were
// exhausted.
type Walker interface {
	Scan() bool
	Item() Item
	Err() error
}

// WalkOpts controls Walk.
type WalkOpts struct {
	// Store resolves the track's index. If nil, a private store is used, so
	// only index files are shared with other walks.
	Store *Store
	// ForceIndex builds an index if none is available. Walking with an
	// index visits regions in lexicographic order.
	ForceIndex bool
}

// Walk returns a walker over the items of t. With an index, regions are
// visited in lexicographic order by seeking to each of them; otherwise the
// track is read once from the beginning (or, for a stream that can not
// seek, from its current position) and regions come in file order. Walk
// returns a *ReadError if ForceIndex is set and t can not seek.
//
// With an index, a region declared in several separate blocks is read
// from its first declaration up to its last data line, skipping the blocks
// of other regions in between.
func Walk(ctx context.Context, t *Track, opts WalkOpts) (Walker, error) {
	store := opts.Store
	if store == nil {
		store = NewStore()
	}
	rs, err := t.seeker()
	if err != nil {
		if opts.ForceIndex {
			return nil, err
		}
		return &trackWalker{br: bufio.NewReader(t.r), parser: NewParser()}, nil
	}
	idx, _, err := store.Get(ctx, t, opts.ForceIndex)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, &ReadError{Track: t.Name(), Err: err}
		}
		return &trackWalker{br: bufio.NewReader(rs), parser: NewParser()}, nil
	}
	return &trackWalker{
		rs:      rs,
		br:      bufio.NewReader(rs),
		idx:     idx,
		regions: idx.Regions(),
		eof:     true,
	}, nil
}

type trackWalker struct {
	br     *bufio.Reader
	parser *Parser

	// Set when walking with an index.
	rs       io.ReadSeeker
	idx      *Index
	regions  []string
	next     int
	expected string
	// off is the byte offset of the next line and stop the end of the
	// expected region's last data line.
	off, stop int64
	// skipping is set while reading a block of another region.
	skipping bool

	region string
	// data is being expanded; left positions of it remain.
	data Data
	left int
	eof  bool

	item Item
	done bool
	err  error
}

func (w *trackWalker) Scan() bool {
	if w.done || w.err != nil {
		return false
	}
	for {
		if w.left > 0 {
			w.item = Item{Region: w.region, Pos: w.data.Pos + w.data.Span - w.left, Value: w.data.Value}
			w.left--
			return true
		}
		if w.eof {
			if !w.nextRegion() {
				return false
			}
			continue
		}
		line, err := w.br.ReadString('\n')
		if err == io.EOF {
			w.eof = true
		} else if err != nil {
			w.err = errors.Wrap(err, "reading track")
			return false
		}
		if line == "" {
			continue
		}
		if w.expected != "" {
			w.off += int64(len(line))
			if w.off >= w.stop {
				w.eof = true
			}
		}
		l, err := w.parser.Parse(line)
		if err != nil {
			w.err = err
			return false
		}
		switch l.Type {
		case LineRegion:
			if w.expected != "" {
				w.skipping = l.Region != w.expected
			}
			w.region = l.Region
		case LineData:
			if w.skipping {
				continue
			}
			if w.region == "" {
				w.err = &ParseError{Line: strings.TrimRight(line, "\r\n"), Err: errNoRegion}
				return false
			}
			w.data = l.Data
			w.left = l.Data.Span
		}
	}
}

// nextRegion positions the walker at the start of the next indexed region.
func (w *trackWalker) nextRegion() bool {
	if w.idx == nil || w.next >= len(w.regions) {
		w.done = true
		return false
	}
	w.expected = w.regions[w.next]
	w.next++
	s := w.idx.Summary(w.expected)
	if _, err := w.rs.Seek(s.Start, io.SeekStart); err != nil {
		w.err = &ReadError{Err: err}
		return false
	}
	w.br.Reset(w.rs)
	w.parser = NewParser()
	w.region = ""
	w.skipping = false
	w.off, w.stop = s.Start, s.Stop
	w.eof = w.off >= w.stop
	return true
}

func (w *trackWalker) Item() Item { return w.item }

func (w *trackWalker) Err() error { return w.err }

// SliceWalker walks over a fixed list of items.
type SliceWalker struct {
	items []Item
	i     int
}

// NewSliceWalker returns a walker over items.
func NewSliceWalker(items []Item) *SliceWalker {
	return &SliceWalker{items: items, i: -1}
}

// Scan implements Walker.
func (w *SliceWalker) Scan() bool {
	if w.i+1 >= len(w.items) {
		w.i = len(w.items)
		return false
	}
	w.i++
	return true
}

// Item implements Walker.
func (w *SliceWalker) Item() Item { return w.items[w.i] }

// Err implements Walker.
func (w *SliceWalker) Err() error { return nil }

// Collect reads all remaining items of w into memory.
func Collect(w Walker) ([]Item, error) {
	var items []Item
	for w.Scan() {
		items = append(items, w.Item())
	}
	return items, w.Err()
}
