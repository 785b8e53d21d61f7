package main

import (
	"os"

	"github.com/dalemusser/classforge/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
