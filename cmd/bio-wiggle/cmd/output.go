package cmd

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/wiggle/encoding/wiggle"
	"v.io/x/lib/cmdline"
)

// outputOpts describes where and how a command writes its track.
type outputOpts struct {
	path        string
	name        string
	description string
}

func addOutputFlags(cmd *cmdline.Command, opts *outputOpts) {
	cmd.Flags.StringVar(&opts.path, "output", "", "Output path. The result is written to stdout if empty. A path ending in .gz is gzip compressed")
	cmd.Flags.StringVar(&opts.name, "name", "", "Name of the result track, displayed to the left of the track in the UCSC Genome Browser")
	cmd.Flags.StringVar(&opts.description, "description", "", "Description of the result track, displayed as center label in the UCSC Genome Browser")
}

// openTrack opens the track at path, or stdin if path is "-".
func openTrack(ctx context.Context, env *cmdline.Env, path string) (*wiggle.Track, error) {
	if path == "-" {
		return wiggle.NewTrack(env.Stdin, path), nil
	}
	return wiggle.Open(ctx, path)
}

// closeTracks closes tracks, keeping the first error in *err.
func closeTracks(ctx context.Context, tracks []*wiggle.Track, err *error) {
	for _, t := range tracks {
		if e := t.Close(ctx); e != nil && *err == nil {
			*err = errors.E(e, "close", t.Name())
		}
	}
}

// writeTrack writes src as described by out, naming the track defaultName
// unless a name is given.
func writeTrack(ctx context.Context, env *cmdline.Env, out outputOpts, defaultName string, src wiggle.Walker, store *wiggle.Store) error {
	opts := wiggle.WriteOpts{Name: out.name, Description: out.description}
	if opts.Name == "" {
		opts.Name = defaultName
	}
	if out.path == "" {
		_, err := wiggle.Write(env.Stdout, src, opts)
		return err
	}
	_, err := wiggle.WriteFile(ctx, out.path, src, opts, store)
	return err
}
