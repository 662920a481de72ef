package main

import (
	"os"

	"github.com/wonny/dietdash/cmd/dash/commands"
)

// main is the entry point for the dashboard CLI
// ⭐ single CLI entry point: go run ./cmd/dash [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
