package main

import "github.com/grailbio/wiggle/cmd/bio-wiggle/cmd"

func main() {
	cmd.Run()
}
