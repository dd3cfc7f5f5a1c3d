package wiggle

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// WriteOpts controls Write.
type WriteOpts struct {
	// Name and Description are written to the track line if not empty.
	Name, Description string
	// Fields are the custom fields of the index returned by Write.
	Fields []Field
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write writes the items of src to w as a variableStep track, starting a
// new block whenever the region changes. Items with undefined values are
// skipped. Infinite and NaN values can not be read back from a track, so
// Write fails on them. It returns the index of the written track.
func Write(w io.Writer, src Walker, opts WriteOpts) (*Index, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	header := "track type=wiggle_0"
	if opts.Name != "" {
		header += ` name="` + opts.Name + `"`
	}
	if opts.Description != "" {
		header += ` description="` + opts.Description + `"`
	}
	fmt.Fprintln(cw, header)

	var (
		b       = newIndexBuilder(opts.Fields)
		region  string
		started bool
	)
	for src.Scan() {
		item := src.Item()
		if !item.Value.Defined() {
			continue
		}
		if x := item.Value.Float64(); math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, errors.E(fmt.Sprintf("%s:%d: value %s can not be written to a track", item.Region, item.Pos, item.Value))
		}
		if !started || item.Region != region {
			start := cw.n
			fmt.Fprintf(cw, "variableStep chrom=%s\n", item.Region)
			b.region(item.Region, start, cw.n)
			region, started = item.Region, true
		}
		fmt.Fprintf(cw, "%d %s\n", item.Pos, item.Value)
		b.data(Data{Pos: item.Pos, Span: 1, Value: item.Value}, cw.n)
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	if err := cw.w.Flush(); err != nil {
		return nil, err
	}
	return b.idx, nil
}

// WriteFile writes the items of src as a track at path, gzip compressed if
// path ends in ".gz". Nothing is left at path if writing fails. If store is
// not nil and the track is not compressed, the index of the new track is
// cached in store and written next to it; the index file path is returned,
// or "" if it could not be written. The store's fields replace
// opts.Fields.
func WriteFile(ctx context.Context, path string, src Walker, opts WriteOpts, store *Store) (string, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return "", errors.E(err, "create track", path)
	}
	var (
		out = f.Writer(ctx)
		gz  *gzip.Writer
	)
	if fileio.DetermineType(path) == fileio.Gzip {
		gz = gzip.NewWriter(out)
		out = gz
	}
	if store != nil {
		opts.Fields = store.Fields()
	}
	idx, err := Write(out, src, opts)
	if gz != nil {
		if e := gz.Close(); e != nil && err == nil {
			err = e
		}
	}
	if e := f.Close(ctx); e != nil && err == nil {
		err = errors.E(e, "close track", path)
	}
	if err != nil {
		_ = file.Remove(ctx, path)
		return "", err
	}
	if store == nil || gz != nil {
		return "", nil
	}
	return store.Save(ctx, path, idx), nil
}
