package main

import (
	"os"

	"github.com/stackgen/stackgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
