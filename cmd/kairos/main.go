package main

import (
	"os"

	"github.com/wonny/kairos/cmd/kairos/commands"
)

// main is the entry point for the Kairos CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/kairos [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
