package cmd

import "fmt"

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Long:  "Show the fiber version and build time.",
		Usage: "fiber version",
		Run:   runVersion,
	})
}

func runVersion(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("version takes no arguments")
	}
	printVersion()
	return nil
}
