// Package distance compares wiggle tracks by the pairwise distance of their
// values.
package distance

import (
	"context"
	"fmt"
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/wiggle/encoding/wiggle"
	"github.com/grailbio/wiggle/merge"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Metric is a distance between two non-negative values.
type Metric uint8

const (
	// MetricA is |x-y| / ((x+1)(y+1)).
	MetricA Metric = iota
	// MetricB is |x-y| / (x+y).
	MetricB
	// MetricC is |x-y| / max(x, y).
	MetricC
)

var metricNames = []string{"a", "b", "c"}

func (m Metric) String() string {
	if int(m) < len(metricNames) {
		return metricNames[m]
	}
	return fmt.Sprintf("Metric%d", m)
}

// ParseMetric converts a metric name ("a", "b" or "c") to a Metric.
func ParseMetric(v string) (Metric, error) {
	for m, name := range metricNames {
		if name == v {
			return Metric(m), nil
		}
	}
	return MetricA, fmt.Errorf("%v: invalid distance metric", v)
}

// Apply returns the distance between x and y. Metrics b and c are zero if
// both values are.
func (m Metric) Apply(x, y float64) float64 {
	d := math.Abs(x - y)
	switch m {
	case MetricA:
		return d / ((x + 1) * (y + 1))
	case MetricB:
		if x+y == 0 {
			return 0
		}
		return d / (x + y)
	case MetricC:
		if hi := math.Max(x, y); hi != 0 {
			return d / hi
		}
		return 0
	}
	panic(m)
}

// Opts controls Distance.
type Opts struct {
	Metric Metric
	// Threshold skips the positions where both weighted values are below
	// it. Zero disables the filter.
	Threshold float64
	// Store resolves the track indices. If nil, a private store is used.
	Store *wiggle.Store
}

// Distance returns the matrix of pairwise distances between tracks. The
// values of each track are weighted so that all tracks have the same sum,
// and the distance between two tracks is the mean of the metric over all
// positions held by either of them, undefined values counting as zero.
//
// Tracks are walked with their index, one pair at a time, so they must be
// seekable.
func Distance(ctx context.Context, tracks []*wiggle.Track, opts Opts) (*mat.SymDense, error) {
	store := opts.Store
	if store == nil {
		store = wiggle.NewStore()
	}
	n := len(tracks)
	if n == 0 {
		return nil, errors.New("distance: no tracks")
	}
	weights, err := trackWeights(ctx, tracks, store)
	if err != nil {
		return nil, err
	}
	d := mat.NewSymDense(n, nil)
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			v, err := pairDistance(ctx, tracks[i], tracks[j], weights[i], weights[j], opts, store)
			if err != nil {
				return nil, err
			}
			d.SetSym(i, j, v)
		}
	}
	return d, nil
}

// trackWeights returns max_sum/sum for the sum of every track.
func trackWeights(ctx context.Context, tracks []*wiggle.Track, store *wiggle.Store) ([]float64, error) {
	sums := make([]float64, len(tracks))
	var maxSum float64
	for i, t := range tracks {
		idx, _, err := store.Get(ctx, t, true)
		if err != nil {
			return nil, errors.Wrapf(err, "indexing %s", t.Name())
		}
		sums[i] = idx.All().Sum
		maxSum = math.Max(maxSum, sums[i])
	}
	weights := make([]float64, len(tracks))
	for i, sum := range sums {
		weights[i] = 1
		if sum > 0 {
			weights[i] = maxSum / sum
		}
		log.Debug.Printf("distance: track %s: sum %g, weight %g", tracks[i].Name(), sum, weights[i])
	}
	return weights, nil
}

func pairDistance(ctx context.Context, left, right *wiggle.Track, wl, wr float64, opts Opts, store *wiggle.Store) (float64, error) {
	walkOpts := wiggle.WalkOpts{Store: store, ForceIndex: true}
	lw, err := wiggle.Walk(ctx, left, walkOpts)
	if err != nil {
		return 0, err
	}
	rw, err := wiggle.Walk(ctx, right, walkOpts)
	if err != nil {
		return 0, err
	}
	var (
		total float64
		count int
		z     = merge.Zip(lw, rw)
	)
	for z.Scan() {
		values := z.Item().Values
		x, y := wl*values[0].Float64(), wr*values[1].Float64()
		if opts.Threshold > 0 && x < opts.Threshold && y < opts.Threshold {
			continue
		}
		total += opts.Metric.Apply(x, y)
		count++
	}
	if err := z.Err(); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}
