package main

import (
	"os"

	"github.com/adamwal/gpwetl/cmd/gpwetl/commands"
)

// Unified CLI entry point: go run ./cmd/gpwetl [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
