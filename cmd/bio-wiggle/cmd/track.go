package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/wiggle/encoding/wiggle"
	"github.com/grailbio/wiggle/interval"
	"github.com/grailbio/wiggle/transform"
	"v.io/x/lib/cmdline"
)

func newCmdIndex() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "index",
		Short:    "Build the index of a wiggle track",
		ArgsName: "track",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("index takes one track argument, but got %v", argv)
		}
		_, err := indexTrack(vcontext.Background(), argv[0])
		return err
	})
	return cmd
}

// indexTrack makes sure the track at path has an index file, and returns
// its path.
func indexTrack(ctx context.Context, path string) (indexPath string, err error) {
	track, err := wiggle.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer closeTracks(ctx, []*wiggle.Track{track}, &err)
	if _, indexPath, err = wiggle.NewStore().Get(ctx, track, true); err != nil {
		return "", err
	}
	if indexPath == "" {
		return "", errors.E("could not write index file for", path)
	}
	log.Printf("index of %s: %s", path, indexPath)
	return indexPath, nil
}

func newCmdSort() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sort",
		Short:    "Sort the regions of a wiggle track alphabetically",
		ArgsName: "track",
	}
	var out outputOpts
	addOutputFlags(cmd, &out)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("sort takes one track argument, but got %v", argv)
		}
		return sortTrack(vcontext.Background(), env, argv[0], out)
	})
	return cmd
}

func sortTrack(ctx context.Context, env *cmdline.Env, path string, out outputOpts) (err error) {
	track, err := openTrack(ctx, env, path)
	if err != nil {
		return err
	}
	defer closeTracks(ctx, []*wiggle.Track{track}, &err)
	store := wiggle.NewStore()
	w, err := wiggle.Walk(ctx, track, wiggle.WalkOpts{Store: store, ForceIndex: true})
	if err != nil {
		return err
	}
	return writeTrack(ctx, env, out, "Sorted "+path, w, store)
}

func newCmdScale() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "scale",
		Short:    "Scale the values of a wiggle track",
		ArgsName: "track",
	}
	var out outputOpts
	addOutputFlags(cmd, &out)
	factor := cmd.Flags.Float64("factor", 0.1, "Scaling factor")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("scale takes one track argument, but got %v", argv)
		}
		return scaleTrack(vcontext.Background(), env, argv[0], *factor, out)
	})
	return cmd
}

func scaleTrack(ctx context.Context, env *cmdline.Env, path string, factor float64, out outputOpts) (err error) {
	track, err := openTrack(ctx, env, path)
	if err != nil {
		return err
	}
	defer closeTracks(ctx, []*wiggle.Track{track}, &err)
	w, err := wiggle.Walk(ctx, track, wiggle.WalkOpts{})
	if err != nil {
		return err
	}
	return writeTrack(ctx, env, out, "Scaled "+path, transform.Map(w, transform.Scale(factor)), wiggle.NewStore())
}

type fillOpts struct {
	genome     string
	filler     string
	onlyEdges  bool
	onlyGenome bool
}

func newCmdFill() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "fill",
		Short: "Fill undefined positions of a wiggle track",
		Long: `
Fill adds the positions a track lacks, with a filler value. Without -genome,
every region is filled between its first and last position. Note that the
result may be very large unless -only-edges is set.`,
		ArgsName: "track",
	}
	var (
		out  outputOpts
		opts fillOpts
	)
	addOutputFlags(cmd, &out)
	cmd.Flags.StringVar(&opts.genome, "genome", "", "BED file defining the range of every region to fill. Regions it does not list are not filled")
	cmd.Flags.StringVar(&opts.filler, "filler", "0", "Value of filled positions")
	cmd.Flags.BoolVar(&opts.onlyEdges, "only-edges", false, "Only fill the first and last position of every gap")
	cmd.Flags.BoolVar(&opts.onlyGenome, "only-genome", false, "Drop the positions outside the ranges of -genome")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("fill takes one track argument, but got %v", argv)
		}
		return fillTrack(vcontext.Background(), env, argv[0], opts, out)
	})
	return cmd
}

func fillTrack(ctx context.Context, env *cmdline.Env, path string, opts fillOpts, out outputOpts) (err error) {
	filler, err := wiggle.ParseValue(opts.filler)
	if err != nil {
		return errors.E(err, "could not parse filler value", opts.filler)
	}
	var regions map[string]transform.Range
	if opts.genome != "" {
		if regions, err = interval.ReadRegionsFromPath(ctx, opts.genome); err != nil {
			return err
		}
	} else if opts.onlyGenome {
		return errors.E("-only-genome requires -genome")
	}
	track, err := openTrack(ctx, env, path)
	if err != nil {
		return err
	}
	defer closeTracks(ctx, []*wiggle.Track{track}, &err)
	w, err := wiggle.Walk(ctx, track, wiggle.WalkOpts{})
	if err != nil {
		return err
	}
	if opts.onlyGenome {
		w = transform.Filter(w, transform.InRegions(regions))
	}
	w = transform.Fill(w, transform.FillOpts{Regions: regions, Filler: filler, OnlyEdges: opts.onlyEdges})
	return writeTrack(ctx, env, out, "Filled "+path, w, wiggle.NewStore())
}

type derivativeOpts struct {
	method   string
	step     int
	autoStep bool
}

func newCmdDerivative() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "derivative",
		Short:    "Compute the derivative of a wiggle track",
		ArgsName: "track",
	}
	var (
		out  outputOpts
		opts derivativeOpts
	)
	addOutputFlags(cmd, &out)
	cmd.Flags.StringVar(&opts.method, "method", "forward", "Divided difference method: forward, backward or central")
	cmd.Flags.IntVar(&opts.step, "step", 0, "Only use positions this far apart. Zero means no restriction, except for the central method which infers the step")
	cmd.Flags.BoolVar(&opts.autoStep, "auto-step", false, "Infer -step from the first two positions (forward and backward methods)")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("derivative takes one track argument, but got %v", argv)
		}
		return derivativeTrack(vcontext.Background(), env, argv[0], opts, out)
	})
	return cmd
}

func derivativeTrack(ctx context.Context, env *cmdline.Env, path string, opts derivativeOpts, out outputOpts) (err error) {
	diffOpts := transform.DiffOpts{Step: opts.step, AutoStep: opts.autoStep}
	var derivative func(wiggle.Walker) wiggle.Walker
	switch opts.method {
	case "forward":
		derivative = func(w wiggle.Walker) wiggle.Walker { return transform.ForwardDividedDifference(w, diffOpts) }
	case "backward":
		derivative = func(w wiggle.Walker) wiggle.Walker { return transform.BackwardDividedDifference(w, diffOpts) }
	case "central":
		derivative = func(w wiggle.Walker) wiggle.Walker { return transform.CentralDividedDifference(w, opts.step) }
	default:
		return fmt.Errorf("%v: invalid derivative method", opts.method)
	}
	track, err := openTrack(ctx, env, path)
	if err != nil {
		return err
	}
	defer closeTracks(ctx, []*wiggle.Track{track}, &err)
	w, err := wiggle.Walk(ctx, track, wiggle.WalkOpts{})
	if err != nil {
		return err
	}
	return writeTrack(ctx, env, out, "Derivative of "+path, derivative(w), wiggle.NewStore())
}
