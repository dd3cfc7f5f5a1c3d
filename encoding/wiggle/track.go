package wiggle

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// IndexSuffix is appended to a track's path to name its index file.
const IndexSuffix = ".idx"

// ReadError is returned when random access is required but the track can
// not seek.
type ReadError struct {
	Track string
	Err   error
}

func (e *ReadError) Error() string {
	name := e.Track
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("track %s does not support random access: %v", name, e.Err)
}

// Track is a wiggle track backed by a byte stream. A track serves one
// traversal at a time.
type Track struct {
	name  string
	r     io.Reader
	close func(ctx context.Context) error
}

// NewTrack wraps r as a track. The name identifies the track for indexing;
// an empty name, or one under /dev/ (stdin, pipes), means the track can
// not be indexed persistently. Random access requires r to implement
// io.Seeker.
func NewTrack(r io.Reader, name string) *Track {
	return &Track{name: name, r: r}
}

// Open opens the track at path. Gzipped tracks are decompressed on the
// fly; they can be walked but not indexed.
func Open(ctx context.Context, path string) (*Track, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open track", path)
	}
	t := &Track{name: path, r: f.Reader(ctx), close: f.Close}
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(t.r)
		if err != nil {
			_ = f.Close(ctx)
			return nil, errors.E(err, "open track", path)
		}
		t.r = gz
		t.close = func(ctx context.Context) error {
			err := gz.Close()
			if e := f.Close(ctx); e != nil && err == nil {
				err = e
			}
			return err
		}
	}
	return t, nil
}

// Name returns the name the track was created with.
func (t *Track) Name() string { return t.name }

// Close releases the underlying file of a track created by Open. It is a
// no-op for tracks created by NewTrack.
func (t *Track) Close(ctx context.Context) error {
	if t.close == nil {
		return nil
	}
	return t.close(ctx)
}

// IndexPath returns the path of the track's index file, or "" if the track
// has no name to derive it from.
func (t *Track) IndexPath() string {
	name := t.name
	if name == "" || name == "-" || strings.HasPrefix(name, "/dev/") {
		return ""
	}
	if !strings.Contains(name, "://") {
		if abs, err := filepath.Abs(name); err == nil {
			name = abs
		}
	}
	return name + IndexSuffix
}

// seeker returns the underlying stream if it supports random access.
func (t *Track) seeker() (io.ReadSeeker, error) {
	rs, ok := t.r.(io.ReadSeeker)
	if !ok {
		return nil, &ReadError{Track: t.name, Err: fmt.Errorf("stream is not seekable")}
	}
	// Pipes and terminals implement Seek but fail on use.
	if _, err := rs.Seek(0, io.SeekCurrent); err != nil {
		return nil, &ReadError{Track: t.name, Err: err}
	}
	return rs, nil
}
