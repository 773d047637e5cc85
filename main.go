package main

import (
	"os"

	"github.com/wolfmanIII/elara/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
