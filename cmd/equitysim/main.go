package main

import (
	"os"

	"github.com/ksfraser/equitysim/cmd/equitysim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
