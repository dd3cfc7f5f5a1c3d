package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/wiggle/distance"
	"github.com/grailbio/wiggle/encoding/wiggle"
	"github.com/grailbio/wiggle/interval"
	"github.com/grailbio/wiggle/merge"
	"github.com/grailbio/wiggle/plot"
	"github.com/grailbio/wiggle/transform"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
	"v.io/x/lib/cmdline"
)

// parseThreshold parses an optional float flag.
func parseThreshold(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errors.E(err, "invalid threshold", v)
	}
	return &t, nil
}

func newCmdCoverage() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "coverage",
		Short:    "Write the intervals covered by a wiggle track as a BED track",
		ArgsName: "track",
	}
	var (
		out       outputOpts
		threshold string
	)
	addOutputFlags(cmd, &out)
	cmd.Flags.StringVar(&threshold, "threshold", "", "Only count positions with a value of at least this threshold")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("coverage takes one track argument, but got %v", argv)
		}
		t, err := parseThreshold(threshold)
		if err != nil {
			return err
		}
		return coverageTrack(vcontext.Background(), env, argv[0], t, out)
	})
	return cmd
}

func coverageTrack(ctx context.Context, env *cmdline.Env, path string, threshold *float64, out outputOpts) (err error) {
	track, err := openTrack(ctx, env, path)
	if err != nil {
		return err
	}
	defer closeTracks(ctx, []*wiggle.Track{track}, &err)
	w, err := wiggle.Walk(ctx, track, wiggle.WalkOpts{})
	if err != nil {
		return err
	}
	if threshold != nil {
		w = transform.Filter(w, transform.AtLeast(*threshold))
	}
	name := out.name
	if name == "" {
		name = "Coverage of " + path
	}
	intervals := interval.Coverage(w)
	if out.path == "" {
		return interval.WriteBED(env.Stdout, intervals, name, out.description)
	}
	return writeFile(ctx, out.path, func(w io.Writer) error {
		return interval.WriteBED(w, intervals, name, out.description)
	})
}

// writeFile creates path and fills it with write. Nothing is left at path
// if writing fails.
func writeFile(ctx context.Context, path string, write func(io.Writer) error) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	err = write(f.Writer(ctx))
	if e := f.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		_ = file.Remove(ctx, path)
	}
	return err
}

type mergeOpts struct {
	merger    string
	noIndices bool
}

func newCmdMerge() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "merge",
		Short: "Merge any number of wiggle tracks",
		Long: fmt.Sprintf(`
Merge walks the tracks in lock-step and reduces the values at every position
with a merger. Undefined values count as zero for all mergers but count.
Available mergers: %s.`, strings.Join(merge.Mergers(), ", ")),
		ArgsName: "track...",
	}
	var (
		out  outputOpts
		opts mergeOpts
	)
	addOutputFlags(cmd, &out)
	cmd.Flags.StringVar(&opts.merger, "merger", "sum", "Merger to use")
	cmd.Flags.BoolVar(&opts.noIndices, "no-indices", false, "Do not use indices to walk the tracks. Their regions must then be in the same order")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("merge takes track arguments")
		}
		return mergeTracks(vcontext.Background(), env, argv, opts, out)
	})
	return cmd
}

func mergeTracks(ctx context.Context, env *cmdline.Env, paths []string, opts mergeOpts, out outputOpts) (err error) {
	merger, err := merge.ParseMerger(opts.merger)
	if err != nil {
		return err
	}
	if n := merger.Arity(); n != 0 && n != len(paths) {
		return fmt.Errorf("merger %v takes %d tracks, but got %d", merger, n, len(paths))
	}
	var (
		store   = wiggle.NewStore()
		tracks  []*wiggle.Track
		walkers []wiggle.Walker
	)
	defer func() { closeTracks(ctx, tracks, &err) }()
	for _, path := range paths {
		track, err := openTrack(ctx, env, path)
		if err != nil {
			return err
		}
		tracks = append(tracks, track)
		w, err := wiggle.Walk(ctx, track, wiggle.WalkOpts{Store: store, ForceIndex: !opts.noIndices})
		if err != nil {
			return err
		}
		walkers = append(walkers, w)
	}
	return writeTrack(ctx, env, out, "Merge of "+strings.Join(paths, ", "), merge.Merge(merger.Func(), walkers...), store)
}

func newCmdDistance() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "distance",
		Short:    "Compute the pairwise distances between wiggle tracks",
		ArgsName: "track...",
	}
	var (
		metric    string
		threshold float64
	)
	cmd.Flags.StringVar(&metric, "metric", "a", "Pairwise metric: a, b or c")
	cmd.Flags.Float64Var(&threshold, "threshold", 0, "Skip positions where both weighted values are below this threshold")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 2 {
			return fmt.Errorf("distance takes at least two track arguments, but got %v", argv)
		}
		m, err := distance.ParseMetric(metric)
		if err != nil {
			return err
		}
		return distanceTracks(vcontext.Background(), env, argv, distance.Opts{Metric: m, Threshold: threshold})
	})
	return cmd
}

func trackLabel(i int) string {
	return string(rune('A' + i))
}

func distanceTracks(ctx context.Context, env *cmdline.Env, paths []string, opts distance.Opts) (err error) {
	var tracks []*wiggle.Track
	defer func() { closeTracks(ctx, tracks, &err) }()
	for _, path := range paths {
		track, err := openTrack(ctx, env, path)
		if err != nil {
			return err
		}
		tracks = append(tracks, track)
	}
	d, err := distance.Distance(ctx, tracks, opts)
	if err != nil {
		return err
	}
	writeDistances(env.Stdout, paths, d)
	return nil
}

// writeDistances prints the lower triangle of d, labeling tracks A, B, ...
func writeDistances(w io.Writer, paths []string, d *mat.SymDense) {
	for i, path := range paths {
		fmt.Fprintf(w, "%s: %s\n", trackLabel(i), path)
	}
	fmt.Fprint(w, "\n   ")
	for i := range paths {
		fmt.Fprintf(w, "    %s ", trackLabel(i))
	}
	fmt.Fprintf(w, "\n%s     x\n", trackLabel(0))
	for i := 1; i < len(paths); i++ {
		fmt.Fprintf(w, "%s  ", trackLabel(i))
		for j := 0; j < i; j++ {
			fmt.Fprintf(w, " %.3f", d.At(i, j))
		}
		fmt.Fprint(w, "   x\n")
	}
}

type plotOpts struct {
	regions          string
	genome           string
	orderBy          string
	averageThreshold string
	format           string
	outputDir        string
	width, height    float64
}

func newCmdPlot() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "plot",
		Short:    "Plot wiggle tracks, one plot per region",
		ArgsName: "track...",
	}
	var opts plotOpts
	cmd.Flags.StringVar(&opts.regions, "regions", "", "Comma-separated list of regions to plot. All regions are plotted if empty")
	cmd.Flags.StringVar(&opts.genome, "genome", "", "BED file defining the range of every region to plot")
	cmd.Flags.StringVar(&opts.orderBy, "order-by", "region", "Order of the plots: region, average or original")
	cmd.Flags.StringVar(&opts.averageThreshold, "average-threshold", "", "Only plot regions with an average value of at least this threshold. With zero, regions of -genome without data are plotted too")
	cmd.Flags.StringVar(&opts.format, "format", "png", "Image format: png, svg, pdf, eps, ...")
	cmd.Flags.StringVar(&opts.outputDir, "output-dir", ".", "Directory to write one image per region to")
	cmd.Flags.Float64Var(&opts.width, "width", 6, "Image width in inches")
	cmd.Flags.Float64Var(&opts.height, "height", 3, "Image height in inches")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("plot takes track arguments")
		}
		_, err := plotTracks(vcontext.Background(), env, argv, opts)
		return err
	})
	return cmd
}

// plotTracks plots the tracks at paths and returns the image paths. With
// more than one track, plotted regions are named "<track>, <region>".
func plotTracks(ctx context.Context, env *cmdline.Env, paths []string, opts plotOpts) (images []string, err error) {
	orderBy, err := plot.ParseOrder(opts.orderBy)
	if err != nil {
		return nil, err
	}
	threshold, err := parseThreshold(opts.averageThreshold)
	if err != nil {
		return nil, err
	}
	var selected map[string]bool
	if opts.regions != "" {
		selected = map[string]bool{}
		for _, r := range strings.Split(opts.regions, ",") {
			selected[r] = true
		}
	}
	rename := func(path, region string) string {
		if len(paths) > 1 {
			return path + ", " + region
		}
		return region
	}
	var regions map[string]transform.Range
	if opts.genome != "" {
		genome, err := interval.ReadRegionsFromPath(ctx, opts.genome)
		if err != nil {
			return nil, err
		}
		regions = map[string]transform.Range{}
		for region, r := range genome {
			if selected != nil && !selected[region] {
				continue
			}
			for _, path := range paths {
				regions[rename(path, region)] = r
			}
		}
	}

	var (
		tracks  []*wiggle.Track
		walkers []wiggle.Walker
	)
	defer func() { closeTracks(ctx, tracks, &err) }()
	for _, path := range paths {
		track, err := openTrack(ctx, env, path)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
		w, err := wiggle.Walk(ctx, track, wiggle.WalkOpts{})
		if err != nil {
			return nil, err
		}
		if selected != nil {
			w = transform.Filter(w, func(item wiggle.Item) bool { return selected[item.Region] })
		}
		path := path
		w = transform.Map(w, func(item wiggle.Item) wiggle.Item {
			item.Region = rename(path, item.Region)
			return item
		})
		walkers = append(walkers, w)
	}
	plots, err := plot.Plots(transform.Concat(walkers...), plot.Opts{
		Regions:          regions,
		OrderBy:          orderBy,
		AverageThreshold: threshold,
	})
	if err != nil {
		return nil, err
	}
	return plot.Save(ctx, plots, opts.outputDir, opts.format, vg.Length(opts.width)*vg.Inch, vg.Length(opts.height)*vg.Inch)
}
