package wiggle

import (
	"context"
	"sync"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

type storeEntry struct {
	idx *Index
	// persisted is set if idx is known to exist in its index file.
	persisted bool
}

// Store caches track indices in memory, keyed by index file path, and
// persists them next to their tracks. A Store is safe for concurrent use.
//
// Stored indices are never checked against their tracks: an index file
// left over from a track that has since changed yields wrong offsets and
// statistics.
type Store struct {
	fields []Field

	mu    sync.Mutex
	cache map[string]storeEntry
}

// NewStore returns an empty store whose indices maintain the given custom
// fields.
func NewStore(fields ...Field) *Store {
	return &Store{fields: fields, cache: map[string]storeEntry{}}
}

// Fields returns the custom fields of the store's indices.
func (s *Store) Fields() []Field { return s.fields }

// Clear drops all cached indices. Index files are left alone.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cache = map[string]storeEntry{}
	s.mu.Unlock()
}

func (s *Store) lookup(key string) (storeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[key]
	return e, ok
}

func (s *Store) put(key string, e storeEntry) {
	s.mu.Lock()
	s.cache[key] = e
	s.mu.Unlock()
}

// Get returns the index of t. It consults, in order, the cache, the index
// file and, if force is set, builds the index by scanning t. A freshly
// built index is cached and written to the index file. Get returns a nil
// index if none is available and force is not set.
//
// The returned path is the index file holding the index, or "" if the
// index is not persisted (the track has no name, or writing failed).
// Failing to read or write the index file is not an error. Building
// requires t to be seekable; otherwise a *ReadError is returned.
func (s *Store) Get(ctx context.Context, t *Track, force bool) (idx *Index, path string, err error) {
	key := t.IndexPath()
	if key != "" {
		if e, ok := s.lookup(key); ok {
			if e.persisted {
				path = key
			}
			return e.idx, path, nil
		}
		loaded, lerr := s.load(ctx, key)
		if lerr == nil {
			s.put(key, storeEntry{idx: loaded, persisted: true})
			return loaded, key, nil
		}
		log.Debug.Printf("wiggle: no usable index %s: %v", key, lerr)
	}
	if !force {
		return nil, "", nil
	}
	rs, err := t.seeker()
	if err != nil {
		return nil, "", err
	}
	if idx, err = BuildIndex(rs, s.fields...); err != nil {
		return nil, "", err
	}
	if key == "" {
		return idx, "", nil
	}
	path = s.persist(ctx, key, idx)
	s.put(key, storeEntry{idx: idx, persisted: path != ""})
	return idx, path, nil
}

// Save caches idx as the index of the track at trackPath and writes it to
// the index file. It returns the index file path, or "" if writing failed.
func (s *Store) Save(ctx context.Context, trackPath string, idx *Index) string {
	key := NewTrack(nil, trackPath).IndexPath()
	if key == "" {
		return ""
	}
	path := s.persist(ctx, key, idx)
	s.put(key, storeEntry{idx: idx, persisted: path != ""})
	return path
}

func (s *Store) load(ctx context.Context, path string) (idx *Index, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := f.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	return DecodeIndex(f.Reader(ctx), s.fields...)
}

// persist writes idx to path, returning "" on failure.
func (s *Store) persist(ctx context.Context, path string, idx *Index) string {
	f, err := file.Create(ctx, path)
	if err != nil {
		log.Debug.Printf("wiggle: could not create index %s: %v", path, err)
		return ""
	}
	err = idx.Encode(f.Writer(ctx))
	if e := f.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		log.Debug.Printf("wiggle: could not write index %s: %v", path, err)
		_ = file.Remove(ctx, path)
		return ""
	}
	log.Printf("wiggle: wrote index %s", path)
	return path
}
