package wiggle

import (
	"bytes"
	"context"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	items := []Item{
		{"chr1", 1, Int(3)},
		{"chr1", 2, Undefined},
		{"chr1", 5, Float(2)},
		{"chr2", 4, Float(-0.5)},
	}
	var buf bytes.Buffer
	idx, err := Write(&buf, NewSliceWalker(items), WriteOpts{Name: "out", Description: "merged"})
	require.NoError(t, err)
	want := `track type=wiggle_0 name="out" description="merged"
variableStep chrom=chr1
1 3
5 2.0
variableStep chrom=chr2
4 -0.5
`
	assert.Equal(t, want, buf.String())

	built, err := BuildIndex(strings.NewReader(buf.String()))
	require.NoError(t, err)
	var a, b bytes.Buffer
	require.NoError(t, idx.Encode(&a))
	require.NoError(t, built.Encode(&b))
	assert.Equal(t, b.String(), a.String())
}

func TestWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	w, err := Walk(ctx, NewTrack(strings.NewReader(unsortedTrack), ""), WalkOpts{ForceIndex: true})
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = Write(&buf, w, WriteOpts{})
	require.NoError(t, err)

	w, err = Walk(ctx, NewTrack(strings.NewReader(buf.String()), ""), WalkOpts{})
	require.NoError(t, err)
	items, err := Collect(w)
	require.NoError(t, err)
	assert.Equal(t, concat(oneItems, thirteenItems, mtItems), items)
}

func TestWriteFile(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := testutil.TempDir(t, "", "wiggle")
	defer cleanup()

	store := NewStore()
	path := filepath.Join(dir, "out.wig")
	items := concat(oneItems, thirteenItems)
	indexPath, err := WriteFile(ctx, path, NewSliceWalker(items), WriteOpts{}, store)
	require.NoError(t, err)
	assert.Equal(t, path+IndexSuffix, indexPath)
	assert.Equal(t, items, walkFile(ctx, t, path, WalkOpts{Store: store, ForceIndex: true}))

	gzPath := filepath.Join(dir, "out.wig.gz")
	indexPath, err = WriteFile(ctx, gzPath, NewSliceWalker(items), WriteOpts{}, store)
	require.NoError(t, err)
	assert.Equal(t, "", indexPath)
	assert.Equal(t, items, walkFile(ctx, t, gzPath, WalkOpts{Store: store}))
	_, err = os.Stat(gzPath + IndexSuffix)
	assert.True(t, os.IsNotExist(err))
}

type failingWalker struct{ SliceWalker }

func (w *failingWalker) Err() error { return os.ErrInvalid }

func TestWriteFileRemovesOutputOnError(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := testutil.TempDir(t, "", "wiggle")
	defer cleanup()

	path := filepath.Join(dir, "out.wig")
	src := &failingWalker{*NewSliceWalker(oneItems)}
	_, err := WriteFile(ctx, path, src, WriteOpts{}, nil)
	require.Equal(t, os.ErrInvalid, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriteFileSplitRegion(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := testutil.TempDir(t, "", "wiggle")
	defer cleanup()

	path := filepath.Join(dir, "out.wig")
	items := []Item{
		{"a", 1, Int(1)},
		{"b", 1, Int(2)},
		{"a", 5, Int(3)},
	}
	indexPath, err := WriteFile(ctx, path, NewSliceWalker(items), WriteOpts{}, NewStore())
	require.NoError(t, err)
	require.Equal(t, path+IndexSuffix, indexPath)

	// The index file is picked up by a fresh store; every record survives.
	got := walkFile(ctx, t, path, WalkOpts{Store: NewStore()})
	assert.Equal(t, []Item{{"a", 1, Int(1)}, {"a", 5, Int(3)}, {"b", 1, Int(2)}}, got)
}

func TestWriteNonFinite(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := testutil.TempDir(t, "", "wiggle")
	defer cleanup()

	for _, v := range []Value{Float(math.Inf(1)), Float(math.Inf(-1)), Float(math.NaN())} {
		items := []Item{{"a", 1, Int(1)}, {"a", 2, v}}
		var buf bytes.Buffer
		_, err := Write(&buf, NewSliceWalker(items), WriteOpts{})
		assert.Error(t, err, v.String())

		path := filepath.Join(dir, "out.wig")
		_, err = WriteFile(ctx, path, NewSliceWalker(items), WriteOpts{}, NewStore())
		assert.Error(t, err, v.String())
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	}
}
