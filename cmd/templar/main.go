// Package main is the entry point for the templar CLI.
package main

import (
	"os"

	"github.com/jmylchreest/templar/cmd/templar/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
