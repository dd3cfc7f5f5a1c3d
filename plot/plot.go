// Package plot draws the values of a wiggle walk, one plot per region.
package plot

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/wiggle/encoding/wiggle"
	"github.com/grailbio/wiggle/transform"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Order is the order of the plots returned by Plots.
type Order uint8

const (
	// ByRegion orders plots by region name.
	ByRegion Order = iota
	// ByAverage orders plots by decreasing average value.
	ByAverage
	// ByOriginal keeps the order in which regions appear in the walk.
	ByOriginal
)

var orderNames = []string{"region", "average", "original"}

func (o Order) String() string {
	if int(o) < len(orderNames) {
		return orderNames[o]
	}
	return fmt.Sprintf("Order%d", o)
}

// ParseOrder converts "region", "average" or "original" to an Order.
func ParseOrder(v string) (Order, error) {
	for o, name := range orderNames {
		if name == v {
			return Order(o), nil
		}
	}
	return ByRegion, fmt.Errorf("%v: invalid plot order", v)
}

// Opts controls Plots.
type Opts struct {
	// Regions restricts plotting to these ranges. If nil, every region is
	// plotted between its first and last position.
	Regions map[string]transform.Range
	OrderBy Order
	// AverageThreshold, if set, drops the regions whose average is below
	// it. A threshold of zero also plots the regions of Regions without
	// data.
	AverageThreshold *float64
}

// RegionPlot is the plot of one region.
type RegionPlot struct {
	Region string
	// Average is the sum of values over the plotted range, divided by its
	// length.
	Average float64
	Plot    *gplot.Plot
}

type series struct {
	region string
	xys    plotter.XYs
}

// Plots draws one line plot per region of src. Gaps are drawn as zero.
// The whole walk is loaded in memory.
func Plots(src wiggle.Walker, opts Opts) ([]RegionPlot, error) {
	w := transform.Fill(src, transform.FillOpts{
		Regions:   opts.Regions,
		Filler:    wiggle.Int(0),
		OnlyEdges: true,
	})
	var (
		all   []*series
		index = map[string]*series{}
	)
	for w.Scan() {
		item := w.Item()
		if opts.Regions != nil {
			r, ok := opts.Regions[item.Region]
			if !ok || !r.Contains(item.Pos) {
				continue
			}
		}
		s := index[item.Region]
		if s == nil {
			s = &series{region: item.Region}
			index[item.Region] = s
			all = append(all, s)
		}
		s.xys = append(s.xys, plotter.XY{X: float64(item.Pos), Y: item.Value.Float64()})
	}
	if err := w.Err(); err != nil {
		return nil, err
	}

	var plots []RegionPlot
	for _, s := range all {
		start, stop := s.xys[0].X, s.xys[len(s.xys)-1].X
		if r, ok := opts.Regions[s.region]; ok {
			start, stop = float64(r.Start), float64(r.Stop)
		}
		var sum float64
		for _, xy := range s.xys {
			sum += xy.Y
		}
		average := sum / (stop - start + 1)
		if opts.AverageThreshold != nil && average < *opts.AverageThreshold {
			continue
		}
		p, err := linePlot(s.region, s.xys, start, stop, average)
		if err != nil {
			return nil, errors.E(err, "plot region", s.region)
		}
		plots = append(plots, RegionPlot{Region: s.region, Average: average, Plot: p})
	}
	if opts.AverageThreshold != nil && *opts.AverageThreshold == 0 {
		var missing []string
		for region := range opts.Regions {
			if index[region] == nil {
				missing = append(missing, region)
			}
		}
		sort.Strings(missing)
		for _, region := range missing {
			r := opts.Regions[region]
			p := gplot.New()
			p.Title.Text = region + " (no data)"
			p.X.Min, p.X.Max = float64(r.Start), float64(r.Stop)
			plots = append(plots, RegionPlot{Region: region, Plot: p})
		}
	}

	switch opts.OrderBy {
	case ByRegion:
		sort.SliceStable(plots, func(i, j int) bool { return plots[i].Region < plots[j].Region })
	case ByAverage:
		sort.SliceStable(plots, func(i, j int) bool { return plots[i].Average > plots[j].Average })
	}
	return plots, nil
}

func linePlot(region string, xys plotter.XYs, start, stop, average float64) (*gplot.Plot, error) {
	p := gplot.New()
	p.Title.Text = region
	p.X.Label.Text = "position"
	if err := plotutil.AddLines(p, xys); err != nil {
		return nil, err
	}
	avg, err := plotter.NewLine(plotter.XYs{{X: start, Y: average}, {X: stop, Y: average}})
	if err != nil {
		return nil, err
	}
	avg.LineStyle.Color = color.RGBA{R: 255, A: 255}
	avg.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(avg)
	p.Legend.Add(fmt.Sprintf("avg=%.2f", average), avg)
	p.X.Min, p.X.Max = start, stop
	return p, nil
}

// fileName turns a region name into a file name.
func fileName(region string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == filepath.Separator {
			return '_'
		}
		return r
	}, region)
}

// Save writes every plot to <dir>/<region>.<format>, where format is any
// format gonum/plot can render (e.g. "png", "svg", "pdf"). It returns the
// paths written.
func Save(ctx context.Context, plots []RegionPlot, dir, format string, width, height vg.Length) (paths []string, err error) {
	for _, rp := range plots {
		path := strings.TrimSuffix(dir, "/") + "/" + fileName(rp.Region) + "." + format
		if err = save(ctx, rp.Plot, path, format, width, height); err != nil {
			return paths, err
		}
		log.Printf("plot: wrote %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func save(ctx context.Context, p *gplot.Plot, path, format string, width, height vg.Length) (err error) {
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return errors.E(err, "render plot", path)
	}
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create plot", path)
	}
	defer file.CloseAndReport(ctx, f, &err)
	_, err = wt.WriteTo(f.Writer(ctx))
	return err
}
