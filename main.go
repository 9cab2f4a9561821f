package main

import (
	"os"

	"github.com/easycab-sim/central/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
