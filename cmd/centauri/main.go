package main

import (
	"os"

	"github.com/ComposableFi/centauri/cmd/centauri/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
