package plot

import (
	"os"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/wiggle/encoding/wiggle"
	"github.com/grailbio/wiggle/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
)

func source() wiggle.Walker {
	return wiggle.NewSliceWalker([]wiggle.Item{
		{Region: "a", Pos: 3, Value: wiggle.Int(2)},
		{Region: "a", Pos: 5, Value: wiggle.Float(4)},
		{Region: "b", Pos: 1, Value: wiggle.Int(10)},
	})
}

func summary(plots []RegionPlot) (regions []string, averages []float64) {
	for _, p := range plots {
		regions = append(regions, p.Region)
		averages = append(averages, p.Average)
	}
	return
}

func TestPlots(t *testing.T) {
	plots, err := Plots(source(), Opts{})
	require.NoError(t, err)
	regions, averages := summary(plots)
	assert.Equal(t, []string{"a", "b"}, regions)
	assert.Equal(t, []float64{2, 10}, averages)
	assert.Equal(t, "a", plots[0].Plot.Title.Text)
	assert.Equal(t, 3.0, plots[0].Plot.X.Min)
	assert.Equal(t, 5.0, plots[0].Plot.X.Max)

	plots, err = Plots(source(), Opts{OrderBy: ByAverage})
	require.NoError(t, err)
	regions, _ = summary(plots)
	assert.Equal(t, []string{"b", "a"}, regions)

	threshold := 5.0
	plots, err = Plots(source(), Opts{AverageThreshold: &threshold})
	require.NoError(t, err)
	regions, _ = summary(plots)
	assert.Equal(t, []string{"b"}, regions)
}

func TestPlotsRegions(t *testing.T) {
	zero := 0.0
	plots, err := Plots(source(), Opts{
		Regions:          map[string]transform.Range{"a": {Start: 1, Stop: 10}, "c": {Start: 1, Stop: 5}},
		AverageThreshold: &zero,
	})
	require.NoError(t, err)
	regions, averages := summary(plots)
	assert.Equal(t, []string{"a", "c"}, regions)
	assert.InDelta(t, 0.6, averages[0], 1e-9)
	assert.Equal(t, 1.0, plots[0].Plot.X.Min)
	assert.Equal(t, 10.0, plots[0].Plot.X.Max)
	assert.Equal(t, "c (no data)", plots[1].Plot.Title.Text)
}

func TestPlotsNoDataOrder(t *testing.T) {
	zero := 0.0
	regions := map[string]transform.Range{"b": {Start: 1, Stop: 2}}
	for _, name := range []string{"e", "c", "d", "g", "f"} {
		regions[name] = transform.Range{Start: 1, Stop: 5}
	}
	for i := 0; i < 10; i++ {
		plots, err := Plots(source(), Opts{Regions: regions, OrderBy: ByOriginal, AverageThreshold: &zero})
		require.NoError(t, err)
		got, _ := summary(plots)
		assert.Equal(t, []string{"b", "c", "d", "e", "f", "g"}, got)
	}
}

func TestParseOrder(t *testing.T) {
	for _, name := range []string{"region", "average", "original"} {
		o, err := ParseOrder(name)
		require.NoError(t, err)
		assert.Equal(t, name, o.String())
	}
	_, err := ParseOrder("size")
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	ctx := vcontext.Background()
	dir, cleanup := testutil.TempDir(t, "", "plot")
	defer cleanup()

	plots, err := Plots(source(), Opts{OrderBy: ByOriginal})
	require.NoError(t, err)
	paths, err := Save(ctx, plots, dir, "png", 4*vg.Inch, 3*vg.Inch)
	require.NoError(t, err)
	assert.Equal(t, []string{dir + "/a.png", dir + "/b.png"}, paths)
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.Size() > 0)
	}
}
