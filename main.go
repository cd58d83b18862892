package main

import (
	"os"

	"github.com/arjunpat/mathrise/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
