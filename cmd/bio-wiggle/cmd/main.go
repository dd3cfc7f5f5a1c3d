package cmd

import (
	"log"

	"v.io/x/lib/cmdline"
)

// newRoot returns the bio-wiggle command tree.
func newRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-wiggle",
		Short:    "Tools for working with wiggle tracks",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdIndex(),
			newCmdSort(),
			newCmdScale(),
			newCmdFill(),
			newCmdDerivative(),
			newCmdCoverage(),
			newCmdMerge(),
			newCmdDistance(),
			newCmdPlot(),
		},
	}
}

func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newRoot())
}
