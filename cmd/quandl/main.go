package main

import (
	"os"

	"github.com/sv650s/springboard/cmd/quandl/commands"
)

// main is the entry point for the quandl CLI
// ⭐ Single CLI entry point: go run ./cmd/quandl [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
