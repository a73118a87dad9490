package main

import (
	"os"

	"github.com/rustyeddy/barscript/cmd/barscript/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
