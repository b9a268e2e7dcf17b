package cmd

import (
	"fmt"
	"os"

	"github.com/go-drift/fiber/pkg/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "config",
		Short: "Print the resolved configuration",
		Long: `Print the configuration resolved from fiber.yaml in the current
directory, with defaults applied.

Example fiber.yaml:

  version: v1.0.0
  app:
    name: counter
  scheduler:
    slice: 5ms
    yieldThreshold: 1ms
    frameInterval: 16ms
  debug:
    hookChecks: true
    inspector: localhost:7777`,
		Usage: "fiber config",
		Run:   runConfig,
	})
}

func loadConfig() (*config.Resolved, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runConfig(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("config takes no arguments")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
