// Package main is the entry point for the siccprobe application.
package main

import (
	"os"

	"github.com/jmylchreest/siccprobe/cmd/siccprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
