// Package main is the entry point for the kasboek CLI.
package main

import (
	"os"

	"github.com/josh-kwaku/kasboek/cmd/kasboek/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
