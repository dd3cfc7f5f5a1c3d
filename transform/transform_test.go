package transform

import (
	"testing"

	"github.com/grailbio/wiggle/encoding/wiggle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sparse(region string, positions ...int) []wiggle.Item {
	items := make([]wiggle.Item, len(positions))
	for i, pos := range positions {
		items[i] = wiggle.Item{Region: region, Pos: pos, Value: wiggle.Int(int64(pos))}
	}
	return items
}

func collect(t *testing.T, w wiggle.Walker) []wiggle.Item {
	items, err := wiggle.Collect(w)
	require.NoError(t, err)
	return items
}

// filled returns the positions of items carrying the filler, and all
// positions in walk order.
func filled(items []wiggle.Item, filler wiggle.Value) (fill, all []int) {
	for _, item := range items {
		if item.Value == filler {
			fill = append(fill, item.Pos)
		}
		all = append(all, item.Pos)
	}
	return
}

func TestFillClosedRange(t *testing.T) {
	items := collect(t, Fill(wiggle.NewSliceWalker(sparse("a", 3, 5, 6, 8)), FillOpts{
		Regions: map[string]Range{"a": {1, 10}},
	}))
	fill, all := filled(items, wiggle.Undefined)
	assert.Equal(t, []int{1, 2, 4, 7, 9, 10}, fill)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, all)
	assert.Equal(t, wiggle.Int(5), items[4].Value)
}

func TestFillOnlyEdges(t *testing.T) {
	filler := wiggle.Int(0)
	items := collect(t, Fill(wiggle.NewSliceWalker(sparse("a", 3, 5, 6, 14)), FillOpts{
		Filler:    filler,
		OnlyEdges: true,
	}))
	fill, all := filled(items, filler)
	assert.Equal(t, []int{4, 7, 13}, fill)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 13, 14}, all)
}

func TestFillRegions(t *testing.T) {
	src := append(sparse("a", 2, 4), sparse("b", 3, 5)...)
	src = append(src, sparse("c", 8, 12)...)
	items := collect(t, Fill(wiggle.NewSliceWalker(src), FillOpts{
		Filler:  wiggle.Float(-1),
		Regions: map[string]Range{"a": {1, 5}, "c": {9, 10}},
	}))
	var got []wiggle.Item
	for _, item := range items {
		got = append(got, wiggle.Item{Region: item.Region, Pos: item.Pos})
	}
	assert.Equal(t, []wiggle.Item{
		{Region: "a", Pos: 1}, {Region: "a", Pos: 2}, {Region: "a", Pos: 3},
		{Region: "a", Pos: 4}, {Region: "a", Pos: 5},
		{Region: "b", Pos: 3}, {Region: "b", Pos: 5},
		{Region: "c", Pos: 8}, {Region: "c", Pos: 9}, {Region: "c", Pos: 10},
		{Region: "c", Pos: 12},
	}, got)
	assert.Equal(t, wiggle.Float(-1), items[9].Value)
	assert.Equal(t, wiggle.Int(12), items[10].Value)
}

func TestFillEmpty(t *testing.T) {
	assert.Empty(t, collect(t, Fill(wiggle.NewSliceWalker(nil), FillOpts{
		Regions: map[string]Range{"a": {1, 10}},
	})))
}

func TestFillReplacesUndefined(t *testing.T) {
	src := []wiggle.Item{{Region: "a", Pos: 1, Value: wiggle.Undefined}, {Region: "a", Pos: 3, Value: wiggle.Int(2)}}
	items := collect(t, Fill(wiggle.NewSliceWalker(src), FillOpts{Filler: wiggle.Int(0)}))
	assert.Equal(t, []wiggle.Item{
		{Region: "a", Pos: 1, Value: wiggle.Int(0)},
		{Region: "a", Pos: 2, Value: wiggle.Int(0)},
		{Region: "a", Pos: 3, Value: wiggle.Int(2)},
	}, items)
}

func TestMapFilter(t *testing.T) {
	src := wiggle.NewSliceWalker(append(sparse("a", 1, 5, 9), sparse("b", 2)...))
	w := Filter(Map(src, Scale(0.5)), AtLeast(2))
	w = Filter(w, InRegions(map[string]Range{"a": {1, 8}, "b": {1, 2}}))
	assert.Equal(t, []wiggle.Item{
		{Region: "a", Pos: 5, Value: wiggle.Float(2.5)},
	}, collect(t, w))
}

var derivativeInput = []struct{ pos, value int }{
	{1, 5}, {2, 4}, {3, 4}, {4, 4}, {5, 5}, {6, 4}, {7, 3}, {8, 1}, {9, 5}, {10, 6},
}

func derivativeSource() wiggle.Walker {
	items := make([]wiggle.Item, len(derivativeInput))
	for i, x := range derivativeInput {
		items[i] = wiggle.Item{Region: "a", Pos: x.pos, Value: wiggle.Int(int64(x.value))}
	}
	return wiggle.NewSliceWalker(items)
}

func slopes(t *testing.T, w wiggle.Walker) map[int]float64 {
	m := map[int]float64{}
	for _, item := range collect(t, w) {
		m[item.Pos] = item.Value.Float64()
	}
	return m
}

func TestForwardDividedDifference(t *testing.T) {
	assert.Equal(t, map[int]float64{1: -1, 2: 0, 3: 0, 4: 1, 5: -1, 6: -1, 7: -2, 8: 4, 9: 1},
		slopes(t, ForwardDividedDifference(derivativeSource(), DiffOpts{})))
}

func TestBackwardDividedDifference(t *testing.T) {
	assert.Equal(t, map[int]float64{2: -1, 3: 0, 4: 0, 5: 1, 6: -1, 7: -1, 8: -2, 9: 4, 10: 1},
		slopes(t, BackwardDividedDifference(derivativeSource(), DiffOpts{})))
}

func TestCentralDividedDifference(t *testing.T) {
	assert.Equal(t, map[int]float64{2: -0.5, 3: 0, 4: 0.5, 5: 0, 6: -1, 7: -1.5, 8: 1, 9: 2.5},
		slopes(t, CentralDividedDifference(derivativeSource(), 0)))
}

func TestDividedDifferenceStep(t *testing.T) {
	src := append(sparse("a", 1, 3, 4, 6), sparse("b", 7, 9)...)
	assert.Equal(t, map[int]float64{1: 1, 4: 1, 7: 1},
		slopes(t, ForwardDividedDifference(wiggle.NewSliceWalker(src), DiffOpts{AutoStep: true})))
	assert.Equal(t, map[int]float64{3: 1, 6: 1, 9: 1},
		slopes(t, BackwardDividedDifference(wiggle.NewSliceWalker(src), DiffOpts{Step: 2, AutoStep: true})))
	assert.Equal(t, map[int]float64{3: 1, 4: 1, 6: 1, 9: 1},
		slopes(t, BackwardDividedDifference(wiggle.NewSliceWalker(src), DiffOpts{})))
	assert.Empty(t, slopes(t, CentralDividedDifference(wiggle.NewSliceWalker(src), 0)))
	assert.Equal(t, map[int]float64{3: 1},
		slopes(t, CentralDividedDifference(wiggle.NewSliceWalker(sparse("a", 1, 3, 5, 6)), 0)))
}

func TestConcat(t *testing.T) {
	w := Concat(
		wiggle.NewSliceWalker(sparse("b", 2)),
		wiggle.NewSliceWalker(nil),
		wiggle.NewSliceWalker(sparse("a", 1, 3)),
	)
	got := collect(t, w)
	assert.Equal(t, append(sparse("b", 2), sparse("a", 1, 3)...), got)
	assert.False(t, w.Scan())
}
