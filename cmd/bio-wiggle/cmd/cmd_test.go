package cmd

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/wiggle/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"
)

const (
	trackA = `track type=wiggle_0 name="a"
variableStep chrom=chrM
1 10
2 20
variableStep chrom=chr1
3 1
`
	trackB = `fixedStep chrom=chr1 start=3 step=1
5
6
variableStep chrom=chrM
2 2.5
`
)

func newEnv(stdin string) (*cmdline.Env, *bytes.Buffer) {
	var stdout bytes.Buffer
	return &cmdline.Env{
		// Like a pipe, stdin can not seek.
		Stdin:  struct{ io.Reader }{strings.NewReader(stdin)},
		Stdout: &stdout,
		Stderr: ioutil.Discard,
		Vars:   map[string]string{},
	}, &stdout
}

func setup(t *testing.T) (dir string, cleanup func()) {
	dir, cleanup = testutil.TempDir(t, "", "bio-wiggle")
	for name, data := range map[string]string{
		"a.wig":      trackA,
		"b.wig":      trackB,
		"genome.bed": "track name=genome\nchr1\t0\t5\nchrM\t0\t3\n",
	} {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(data), 0600))
	}
	return
}

func TestIndex(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := setup(t)
	defer cleanup()
	path := filepath.Join(dir, "a.wig")
	indexPath, err := indexTrack(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path+".idx", indexPath)
	data, err := ioutil.ReadFile(indexPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "region=_all,start=0,"), string(data))

	_, err = indexTrack(ctx, filepath.Join(dir, "missing.wig"))
	assert.Error(t, err)
}

func TestSort(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := setup(t)
	defer cleanup()
	env, stdout := newEnv("")
	path := filepath.Join(dir, "a.wig")
	require.NoError(t, sortTrack(ctx, env, path, outputOpts{description: "sorted"}))
	assert.Equal(t, `track type=wiggle_0 name="Sorted `+path+`" description="sorted"
variableStep chrom=chr1
3 1
variableStep chrom=chrM
1 10
2 20
`, stdout.String())

	// Stdin can not be indexed.
	env, _ = newEnv(trackA)
	assert.Error(t, sortTrack(ctx, env, "-", outputOpts{}))
}

func TestScaleStdin(t *testing.T) {
	env, stdout := newEnv(trackA)
	require.NoError(t, scaleTrack(vcontext.Background(), env, "-", 0.5, outputOpts{name: "half"}))
	assert.Equal(t, `track type=wiggle_0 name="half"
variableStep chrom=chrM
1 5.0
2 10.0
variableStep chrom=chr1
3 0.5
`, stdout.String())
}

func TestFill(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := setup(t)
	defer cleanup()
	env, stdout := newEnv("")
	opts := fillOpts{genome: filepath.Join(dir, "genome.bed"), filler: "0", onlyEdges: true}
	require.NoError(t, fillTrack(ctx, env, filepath.Join(dir, "b.wig"), opts, outputOpts{name: "f"}))
	assert.Equal(t, `track type=wiggle_0 name="f"
variableStep chrom=chr1
1 0
2 0
3 5
4 6
5 0
variableStep chrom=chrM
1 0
2 2.5
3 0
`, stdout.String())

	opts.filler = "x"
	assert.Error(t, fillTrack(ctx, env, filepath.Join(dir, "b.wig"), opts, outputOpts{}))
	assert.Error(t, fillTrack(ctx, env, filepath.Join(dir, "b.wig"), fillOpts{filler: "0", onlyGenome: true}, outputOpts{}))
}

func TestDerivative(t *testing.T) {
	ctx := vcontext.Background()
	env, stdout := newEnv("variableStep chrom=a\n1 1\n2 3\n3 7\n")
	require.NoError(t, derivativeTrack(ctx, env, "-", derivativeOpts{method: "central"}, outputOpts{name: "d"}))
	assert.Equal(t, "track type=wiggle_0 name=\"d\"\nvariableStep chrom=a\n2 3.0\n", stdout.String())

	env, _ = newEnv("")
	assert.Error(t, derivativeTrack(ctx, env, "-", derivativeOpts{method: "sideways"}, outputOpts{}))
}

func TestCoverage(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := setup(t)
	defer cleanup()
	env, _ := newEnv("")
	out := filepath.Join(dir, "cov.bed")
	threshold := 5.0
	require.NoError(t, coverageTrack(ctx, env, filepath.Join(dir, "a.wig"), &threshold, outputOpts{path: out, name: "c"}))
	data, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "track name=\"c\"\nchrM\t0\t2\n", string(data))
}

func TestMerge(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := setup(t)
	defer cleanup()
	a, b := filepath.Join(dir, "a.wig"), filepath.Join(dir, "b.wig")

	env, stdout := newEnv("")
	require.NoError(t, mergeTracks(ctx, env, []string{a, b}, mergeOpts{merger: "sum"}, outputOpts{name: "m"}))
	assert.Equal(t, `track type=wiggle_0 name="m"
variableStep chrom=chr1
3 6
4 6
variableStep chrom=chrM
1 10
2 22.5
`, stdout.String())

	out := filepath.Join(dir, "merged.wig")
	env, _ = newEnv("")
	require.NoError(t, mergeTracks(ctx, env, []string{a, b}, mergeOpts{merger: "count"}, outputOpts{path: out}))
	_, err := os.Stat(out + ".idx")
	assert.NoError(t, err)

	// Regions in incompatible order.
	out = filepath.Join(dir, "unsorted.wig")
	err = mergeTracks(ctx, env, []string{a, b}, mergeOpts{merger: "sum", noIndices: true}, outputOpts{path: out})
	require.Error(t, err)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "partial output must be removed")

	assert.Error(t, mergeTracks(ctx, env, []string{a}, mergeOpts{merger: "minus"}, outputOpts{}))
	assert.Error(t, mergeTracks(ctx, env, []string{a, b}, mergeOpts{merger: "median"}, outputOpts{}))
}

func TestDistance(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := setup(t)
	defer cleanup()
	a, b := filepath.Join(dir, "a.wig"), filepath.Join(dir, "b.wig")
	env, stdout := newEnv("")
	require.NoError(t, distanceTracks(ctx, env, []string{a, b, a}, distance.Opts{Metric: distance.MetricC}))
	lines := strings.Split(stdout.String(), "\n")
	assert.Equal(t, "A: "+a, lines[0])
	assert.Equal(t, "B: "+b, lines[1])
	assert.Equal(t, "C: "+a, lines[2])
	assert.Equal(t, "A     x", lines[5])
	assert.True(t, strings.HasPrefix(lines[6], "B   0."), lines[6])
	assert.True(t, strings.HasPrefix(lines[7], "C   0.000 0."), lines[7])
	assert.Equal(t, lines[6][4:9], lines[7][10:15], "A and C are the same track")
}

func TestPlot(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := setup(t)
	defer cleanup()
	a, b := filepath.Join(dir, "a.wig"), filepath.Join(dir, "b.wig")
	env, _ := newEnv("")
	images, err := plotTracks(ctx, env, []string{a, b}, plotOpts{
		regions:   "chrM",
		orderBy:   "region",
		format:    "png",
		outputDir: dir,
		width:     4,
		height:    3,
	})
	require.NoError(t, err)
	require.Len(t, images, 2)
	for _, image := range images {
		_, err := os.Stat(image)
		assert.NoError(t, err)
	}

	_, err = plotTracks(ctx, env, []string{a}, plotOpts{orderBy: "size", format: "png", outputDir: dir})
	assert.Error(t, err)
}

func TestCommandLine(t *testing.T) {
	dir, cleanup := setup(t)
	defer cleanup()
	env, stdout := newEnv("")
	err := cmdline.ParseAndRun(newRoot(), env, []string{"merge", "-merger", "max", "-name", "x", filepath.Join(dir, "a.wig"), filepath.Join(dir, "b.wig")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "track type=wiggle_0 name=\"x\"\nvariableStep chrom=chr1\n3 5\n"), stdout.String())
}
