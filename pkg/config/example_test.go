package config_test

import (
	"fmt"

	"github.com/wonny/kairos/pkg/config"
)

// Example shows the one place environment is read from.
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config rejected: %v\n", err)
		return
	}

	fmt.Printf("broker mode: %s\n", cfg.Broker.Mode)
	fmt.Printf("scan every: %s\n", cfg.Engine.ScanInterval)
	fmt.Printf("rules file: %s\n", cfg.Engine.RulesPath)
}
