package main

import (
	"os"

	"github.com/rustyeddy/barreplay/cmd/barreplay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
